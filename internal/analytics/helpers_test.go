// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/eventlens/internal/models"
)

// TestFormatForTimeSlice verifies every declared slice maps and anything else fails
func TestFormatForTimeSlice(t *testing.T) {
	tests := []struct {
		slice models.TimeSlice
		want  string
	}{
		{models.TimeSliceYear, "%Y"},
		{models.TimeSliceMonth, "%Y-%m"},
		{models.TimeSliceDay, "%Y-%m-%d"},
		{models.TimeSliceHour, "%Y-%m-%d %H"},
		{models.TimeSliceMinute, "%Y-%m-%d %H:%M"},
	}
	for _, tt := range tests {
		got, err := FormatForTimeSlice(tt.slice)
		if err != nil {
			t.Fatalf("FormatForTimeSlice(%q) error: %v", tt.slice, err)
		}
		if got != tt.want {
			t.Errorf("FormatForTimeSlice(%q) = %q, want %q", tt.slice, got, tt.want)
		}
	}

	if len(tests) != len(models.TimeSlices) {
		t.Errorf("table covers %d slices, models declares %d", len(tests), len(models.TimeSlices))
	}

	for _, bad := range []models.TimeSlice{"", "WEEK", "day", "SECOND"} {
		if _, err := FormatForTimeSlice(bad); !errors.Is(err, ErrUnsupportedTimeSlice) {
			t.Errorf("FormatForTimeSlice(%q) err = %v, want ErrUnsupportedTimeSlice", bad, err)
		}
	}
}

// TestPartitionWindowFor verifies the 25 hour buffer decision and day truncation
func TestPartitionWindowFor(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		wantBuf bool
	}{
		{"window ending now", now.Add(-72 * time.Hour), now, true},
		{"window ending in future", now.Add(-time.Hour), now.Add(time.Hour), true},
		{"window ending 24h ago", now.Add(-72 * time.Hour), now.Add(-24 * time.Hour), true},
		{"window ending exactly 25h ago", now.Add(-72 * time.Hour), now.Add(-25 * time.Hour), false},
		{"window ending last month", now.AddDate(0, -2, 0), now.AddDate(0, -1, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := PartitionWindowFor(tt.from, tt.to, now)
			if w.IncludeUnpartitioned != tt.wantBuf {
				t.Errorf("IncludeUnpartitioned = %v, want %v", w.IncludeUnpartitioned, tt.wantBuf)
			}
			if w.From.Hour() != 0 || w.To.Hour() != 0 {
				t.Errorf("window bounds not truncated to days: %v - %v", w.From, w.To)
			}
			if w.FromDate() != tt.from.UTC().Format("2006-01-02") {
				t.Errorf("FromDate() = %s, want %s", w.FromDate(), tt.from.UTC().Format("2006-01-02"))
			}
		})
	}
}

// TestResolveUnit verifies deterministic naming and fatal missing bindings
func TestResolveUnit(t *testing.T) {
	tests := []struct {
		name    string
		entity  models.TrackedEntity
		want    string
		wantErr bool
	}{
		{"simple", models.Application{ID: "a", UsageBindingID: "abc123"}, "events_abc123", false},
		{"sanitized", models.IngestEndpoint{ID: "e", UsageBindingID: "Org-42.Prod"}, "events_org_42_prod", false},
		{"injection attempt", models.Application{ID: "a", UsageBindingID: `x"; DROP TABLE t;--`}, "events_x___drop_table_t___", false},
		{"missing binding", models.Application{ID: "a"}, "", true},
		{"nil entity", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveUnit(tt.entity)
			if tt.wantErr {
				if !errors.Is(err, ErrMissingUsageBinding) {
					t.Fatalf("err = %v, want ErrMissingUsageBinding", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveUnit() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestEqualityFilters verifies only present fields emit clauses
func TestEqualityFilters(t *testing.T) {
	f := models.FilterOptions{
		Event:     models.StringPtr("signup"),
		UTMSource: models.StringPtr(""),
		OS:        models.StringPtr("Linux"),
	}
	got := EqualityFilters(f)
	want := []FieldValue{{FieldEvent, "signup"}, {FieldUTMSource, ""}, {FieldOS, "Linux"}}
	if len(got) != len(want) {
		t.Fatalf("got %d clauses, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("clause %d = %v, want %v", i, got[i], want[i])
		}
	}

	if len(EqualityFilters(models.FilterOptions{})) != 0 {
		t.Error("empty filter must not emit clauses")
	}
	if c := ContainsFilters(models.FilterOptions{Page: models.StringPtr("/docs")}); len(c) != 1 || c[0].Field != FieldPage {
		t.Errorf("ContainsFilters() = %v", c)
	}
}

// TestUTMField verifies the three supported dimensions
func TestUTMField(t *testing.T) {
	for dim, want := range map[models.UTMDimension]string{
		models.UTMSource:   FieldUTMSource,
		models.UTMMedium:   FieldUTMMedium,
		models.UTMCampaign: FieldUTMCampaign,
	} {
		got, err := UTMField(dim)
		if err != nil || got != want {
			t.Errorf("UTMField(%q) = %q, %v", dim, got, err)
		}
	}
	if _, err := UTMField("TERM"); !errors.Is(err, ErrUnsupportedUTMDimension) {
		t.Errorf("UTMField(TERM) err = %v", err)
	}
}

// TestReferrerHost verifies host extraction from referrer URLs
func TestReferrerHost(t *testing.T) {
	tests := map[string]string{
		"https://www.Google.com/search?q=x": "www.google.com",
		"http://news.bbc.co.uk:8080/a":      "news.bbc.co.uk",
		"android-app://com.slack":           "com.slack",
		"https://user@example.org/":         "example.org",
		"/relative/path":                    "",
		"":                                  "",
	}
	for in, want := range tests {
		if got := ReferrerHost(in); got != want {
			t.Errorf("ReferrerHost(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestMergeByRegistrableDomain verifies host rows fold into eTLD+1 rows
func TestMergeByRegistrableDomain(t *testing.T) {
	rows := []models.GroupingCount{
		{Key: "www.google.com", UserCount: 3, EventCount: 10},
		{Key: "news.bbc.co.uk", UserCount: 2, EventCount: 4},
		{Key: "google.com", UserCount: 1, EventCount: 1},
		{Key: "www.bbc.co.uk", UserCount: 2, EventCount: 2},
		{Key: "localhost", UserCount: 1, EventCount: 1},
		{Key: "", UserCount: 9, EventCount: 9},
	}

	got := MergeByRegistrableDomain(rows, 0)
	want := []models.GroupingCount{
		{Key: "bbc.co.uk", UserCount: 4, EventCount: 6},
		{Key: "google.com", UserCount: 4, EventCount: 11},
		{Key: "localhost", UserCount: 1, EventCount: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if limited := MergeByRegistrableDomain(rows, 1); len(limited) != 1 || limited[0].Key != "bbc.co.uk" {
		t.Errorf("limit 1 = %v", limited)
	}
}

// TestMatchReferrerTLD verifies filter values resolve to the hosts that share their registrable domain
func TestMatchReferrerTLD(t *testing.T) {
	tests := []struct {
		in   string
		want TLDMatch
	}{
		{"Google.com", TLDMatch{Domain: "google.com", Subdomains: true}},
		{"bbc.co.uk", TLDMatch{Domain: "bbc.co.uk", Subdomains: true}},
		{"co.uk", TLDMatch{Domain: "co.uk"}},
		{"localhost", TLDMatch{Domain: "localhost"}},
		{"10.0.0.1", TLDMatch{Domain: "10.0.0.1"}},
		{"www.google.com", TLDMatch{Domain: "www.google.com", None: true}},
		{"", TLDMatch{None: true}},
	}
	for _, tt := range tests {
		if got := MatchReferrerTLD(tt.in); got != tt.want {
			t.Errorf("MatchReferrerTLD(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	// Every key MergeByRegistrableDomain can emit must select its own host.
	for _, host := range []string{"www.google.com", "co.uk", "10.0.0.1", "localhost"} {
		m := MatchReferrerTLD(RegistrableDomain(host))
		if m.None || (m.Domain != host && !m.Subdomains) {
			t.Errorf("host %q not selected by its key: %+v", host, m)
		}
	}
}

// TestRegistrableDomain_IPAddress keeps IP hosts whole
func TestRegistrableDomain_IPAddress(t *testing.T) {
	if got := RegistrableDomain("10.0.0.1"); got != "10.0.0.1" {
		t.Errorf("RegistrableDomain(10.0.0.1) = %q", got)
	}
}

// TestRounding verifies half-away-from-zero rounding of scalar metrics
func TestRounding(t *testing.T) {
	if got := RoundSeconds(1499); got != 1 {
		t.Errorf("RoundSeconds(1499) = %d, want 1", got)
	}
	if got := RoundSeconds(1500); got != 2 {
		t.Errorf("RoundSeconds(1500) = %d, want 2", got)
	}
	tests := []struct {
		bounced, total, want int64
	}{
		{0, 0, 0},
		{1, 2, 1},
		{1, 3, 0},
		{2, 3, 1},
		{5, 5, 1},
	}
	for _, tt := range tests {
		if got := RoundRatio(tt.bounced, tt.total); got != tt.want {
			t.Errorf("RoundRatio(%d, %d) = %d, want %d", tt.bounced, tt.total, got, tt.want)
		}
	}
}

// TestPrepareOptions verifies default limits and validation failures
func TestPrepareOptions(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := models.QueryOptions{FilterOptions: models.FilterOptions{From: from, To: from.Add(time.Hour)}}

	got, err := PrepareOptions(ok, 0)
	if err != nil {
		t.Fatalf("PrepareOptions() error: %v", err)
	}
	if got.Limit != models.DefaultQueryLimit {
		t.Errorf("Limit = %d, want %d", got.Limit, models.DefaultQueryLimit)
	}

	bad := []models.QueryOptions{
		{FilterOptions: models.FilterOptions{From: from, To: from}},
		{FilterOptions: models.FilterOptions{From: from, To: from.Add(-time.Hour)}},
		{FilterOptions: models.FilterOptions{From: from, To: from.Add(time.Hour)}, Limit: -1},
		{FilterOptions: models.FilterOptions{From: from, To: from.Add(time.Hour)}, TimeSlice: "WEEK"},
	}
	for i, opts := range bad {
		if _, err := PrepareOptions(opts, 0); !errors.Is(err, ErrInvalidQueryOptions) {
			t.Errorf("case %d: err = %v, want ErrInvalidQueryOptions", i, err)
		}
	}
}
