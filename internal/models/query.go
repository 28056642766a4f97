// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package models

import "time"

// DefaultQueryLimit is the row limit applied when QueryOptions.Limit is zero.
const DefaultQueryLimit = 10000

// TimeSlice is the bucketing granularity for time-series metrics.
type TimeSlice string

const (
	TimeSliceYear   TimeSlice = "YEAR"
	TimeSliceMonth  TimeSlice = "MONTH"
	TimeSliceDay    TimeSlice = "DAY"
	TimeSliceHour   TimeSlice = "HOUR"
	TimeSliceMinute TimeSlice = "MINUTE"
)

// TimeSlices lists every supported granularity, coarsest first.
var TimeSlices = []TimeSlice{TimeSliceYear, TimeSliceMonth, TimeSliceDay, TimeSliceHour, TimeSliceMinute}

// UTMDimension selects the UTM field grouped by the utms metric.
type UTMDimension string

const (
	UTMSource   UTMDimension = "SOURCE"
	UTMMedium   UTMDimension = "MEDIUM"
	UTMCampaign UTMDimension = "CAMPAIGN"
)

// PageMode selects how page views are attributed. The zero value groups every
// page view; Entry and Exit attribute each user to their first or last page.
type PageMode string

const (
	PageModeAll   PageMode = ""
	PageModeEntry PageMode = "ENTRY"
	PageModeExit  PageMode = "EXIT"
)

// FilterOptions narrows the rows considered by a metric.
//
// From/To is a half-open window [From, To). Every other field is optional:
// a nil pointer means "no clause", never a default value. Mobile is the only
// tri-state: nil emits nothing, false emits the negated mobile predicate.
type FilterOptions struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required,gtfield=From"`

	Revision    *string `json:"revision,omitempty"`
	Environment *string `json:"environment,omitempty"`
	Event       *string `json:"event,omitempty"`
	EventGroup  *string `json:"event_group,omitempty"`

	UTMSource   *string `json:"utm_source,omitempty"`
	UTMMedium   *string `json:"utm_medium,omitempty"`
	UTMCampaign *string `json:"utm_campaign,omitempty"`
	UTMTerm     *string `json:"utm_term,omitempty"`
	UTMContent  *string `json:"utm_content,omitempty"`

	Country *string `json:"country,omitempty"`
	Browser *string `json:"browser,omitempty"`
	OS      *string `json:"os,omitempty"`

	// Referrer and Page match by substring.
	Referrer *string `json:"referrer,omitempty"`
	Page     *string `json:"page,omitempty"`

	// ReferrerTLD matches rows whose referrer host has this registrable domain
	// (eTLD+1). A bare public suffix or IP matches only that exact host.
	ReferrerTLD *string `json:"referrer_tld,omitempty"`

	Mobile *bool `json:"mobile,omitempty"`
}

// QueryOptions is the request shape accepted by every metric operation.
type QueryOptions struct {
	TimeSlice     TimeSlice     `json:"time_slice" validate:"omitempty,oneof=YEAR MONTH DAY HOUR MINUTE"`
	FilterOptions FilterOptions `json:"filter_options"`
	Limit         int           `json:"limit" validate:"gte=0"`
}

// StringPtr returns a pointer to s. Handy for building FilterOptions literals.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
