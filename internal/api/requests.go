// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/eventlens/internal/models"
)

// MetricRequest is the parsed query string of a metric route.
type MetricRequest struct {
	Options   models.QueryOptions
	Dimension models.UTMDimension
	Mode      models.PageMode
}

// stringFilters maps query parameters to the optional string filters.
var stringFilters = []struct {
	param string
	field func(*models.FilterOptions) **string
}{
	{"revision", func(f *models.FilterOptions) **string { return &f.Revision }},
	{"environment", func(f *models.FilterOptions) **string { return &f.Environment }},
	{"event", func(f *models.FilterOptions) **string { return &f.Event }},
	{"event_group", func(f *models.FilterOptions) **string { return &f.EventGroup }},
	{"utm_source", func(f *models.FilterOptions) **string { return &f.UTMSource }},
	{"utm_medium", func(f *models.FilterOptions) **string { return &f.UTMMedium }},
	{"utm_campaign", func(f *models.FilterOptions) **string { return &f.UTMCampaign }},
	{"utm_term", func(f *models.FilterOptions) **string { return &f.UTMTerm }},
	{"utm_content", func(f *models.FilterOptions) **string { return &f.UTMContent }},
	{"country", func(f *models.FilterOptions) **string { return &f.Country }},
	{"browser", func(f *models.FilterOptions) **string { return &f.Browser }},
	{"os", func(f *models.FilterOptions) **string { return &f.OS }},
	{"referrer", func(f *models.FilterOptions) **string { return &f.Referrer }},
	{"page", func(f *models.FilterOptions) **string { return &f.Page }},
	{"referrer_tld", func(f *models.FilterOptions) **string { return &f.ReferrerTLD }},
}

// parseMetricRequest reads the window, slice, limit and filters from values.
// A parameter that is present but empty still sets its filter: an empty
// string is a value, not the absence of one.
//
// Range and enum checks are left to the backend so that both transports
// report the same configuration errors.
func parseMetricRequest(values url.Values) (MetricRequest, error) {
	var req MetricRequest
	opts := &req.Options

	var err error
	if opts.FilterOptions.From, err = parseTime(values, "from"); err != nil {
		return req, err
	}
	if opts.FilterOptions.To, err = parseTime(values, "to"); err != nil {
		return req, err
	}

	opts.TimeSlice = models.TimeSlice(strings.ToUpper(values.Get("time_slice")))

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: limit must be an integer", ErrInvalidParameter)
		}
		opts.Limit = limit
	}

	for _, f := range stringFilters {
		if _, ok := values[f.param]; ok {
			v := values.Get(f.param)
			*f.field(&opts.FilterOptions) = &v
		}
	}

	if raw := values.Get("mobile"); raw != "" {
		mobile, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("%w: mobile must be a boolean", ErrInvalidParameter)
		}
		opts.FilterOptions.Mobile = &mobile
	}

	req.Dimension = models.UTMDimension(strings.ToUpper(values.Get("dimension")))
	req.Mode = models.PageMode(strings.ToUpper(values.Get("mode")))
	return req, nil
}

func parseTime(values url.Values, key string) (time.Time, error) {
	raw := values.Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC3339 timestamp", ErrInvalidParameter, key)
	}
	return t.UTC(), nil
}
