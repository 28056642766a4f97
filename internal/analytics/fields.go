// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"fmt"

	"github.com/tomtom215/eventlens/internal/models"
)

// Physical field names shared by the warehouse table and the document collection.
const (
	FieldTimestamp     = "ts"
	FieldPartitionDate = "partition_date"
	FieldUserHash      = "user_hash"
	FieldEvent         = "event"
	FieldEventGroup    = "event_group"
	FieldRevision      = "revision_id"
	FieldEnvironment   = "environment_id"
	FieldUTMSource     = "utm_source"
	FieldUTMMedium     = "utm_medium"
	FieldUTMCampaign   = "utm_campaign"
	FieldUTMTerm       = "utm_term"
	FieldUTMContent    = "utm_content"
	FieldCountry       = "user_country"
	FieldReferrer      = "referrer_url"
	FieldPage          = "page_url"
	FieldBrowser       = "browser_name"
	FieldOS            = "os_name"
	FieldDevice        = "device_name"
	FieldRequests      = "requests"
	FieldBytes         = "bytes"
)

// Device labels produced by the devices metric.
const (
	DeviceMobile  = "Mobile"
	DeviceDesktop = "Desktop"
)

// FieldValue is one equality or substring clause.
type FieldValue struct {
	Field string
	Value string
}

// SignalMatch is how a mobile signal compares its field.
type SignalMatch int

const (
	SignalEquals SignalMatch = iota
	SignalContains
)

// MobileSignal is one disjunct of the mobile predicate.
type MobileSignal struct {
	Field string
	Match SignalMatch
	Value string
}

// MobileSignals is the disjunction identifying a mobile event. Filtering on
// mobile=false negates the whole disjunction.
var MobileSignals = []MobileSignal{
	{Field: FieldBrowser, Match: SignalContains, Value: "Mobile"},
	{Field: FieldDevice, Match: SignalEquals, Value: "iPhone"},
	{Field: FieldDevice, Match: SignalEquals, Value: "iPad"},
	{Field: FieldOS, Match: SignalEquals, Value: "iOS"},
	{Field: FieldOS, Match: SignalEquals, Value: "Android"},
}

// EqualityFilters returns the equality clauses present in f, in a fixed order.
// Nil fields contribute nothing.
func EqualityFilters(f models.FilterOptions) []FieldValue {
	candidates := []struct {
		field string
		value *string
	}{
		{FieldRevision, f.Revision},
		{FieldEnvironment, f.Environment},
		{FieldEvent, f.Event},
		{FieldEventGroup, f.EventGroup},
		{FieldUTMSource, f.UTMSource},
		{FieldUTMMedium, f.UTMMedium},
		{FieldUTMCampaign, f.UTMCampaign},
		{FieldUTMTerm, f.UTMTerm},
		{FieldUTMContent, f.UTMContent},
		{FieldCountry, f.Country},
		{FieldBrowser, f.Browser},
		{FieldOS, f.OS},
	}
	return present(candidates)
}

// ContainsFilters returns the substring clauses present in f.
func ContainsFilters(f models.FilterOptions) []FieldValue {
	candidates := []struct {
		field string
		value *string
	}{
		{FieldReferrer, f.Referrer},
		{FieldPage, f.Page},
	}
	return present(candidates)
}

func present(candidates []struct {
	field string
	value *string
}) []FieldValue {
	var out []FieldValue
	for _, c := range candidates {
		if c.value != nil {
			out = append(out, FieldValue{Field: c.field, Value: *c.value})
		}
	}
	return out
}

// UTMField maps a UTM dimension to its physical field.
func UTMField(dim models.UTMDimension) (string, error) {
	switch dim {
	case models.UTMSource:
		return FieldUTMSource, nil
	case models.UTMMedium:
		return FieldUTMMedium, nil
	case models.UTMCampaign:
		return FieldUTMCampaign, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedUTMDimension, dim)
	}
}
