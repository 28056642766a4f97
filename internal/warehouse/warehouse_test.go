// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package warehouse

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/models"
	"github.com/tomtom215/eventlens/internal/testinfra"
)

// testDBSemaphore serializes DuckDB test databases; concurrent CGO instances
// exhaust memory on small CI runners.
var testDBSemaphore = make(chan struct{}, 1)

const testUnit = "events_app1"

var (
	testApp      = models.Application{ID: "a1", OrgID: "o1", UsageBindingID: "app1"}
	testEndpoint = models.IngestEndpoint{ID: "e1", OrgID: "o1", UsageBindingID: "app1"}
	settledNow   = testinfra.FixtureDay.AddDate(0, 2, 0)
)

// setupTestEngine returns a seeded in-memory engine.
func setupTestEngine(t *testing.T) *Engine {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	engine, err := New(Config{Path: ":memory:", Dataset: "analytics", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close(context.Background()) })

	ctx := context.Background()
	if err := engine.Configure(ctx); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := engine.ProvisionUnit(ctx, testUnit); err != nil {
		t.Fatalf("ProvisionUnit() error = %v", err)
	}
	db, err := engine.DB(ctx)
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}
	if err := testinfra.SeedSQL(ctx, db, engine.table(testUnit), testinfra.SampleEvents()); err != nil {
		t.Fatalf("SeedSQL() error = %v", err)
	}
	return engine
}

func setupTestService(t *testing.T, now time.Time) *analytics.Service {
	t.Helper()
	return analytics.NewService(setupTestEngine(t), analytics.ServiceConfig{
		Now: func() time.Time { return now },
	})
}

func dayOptions() models.QueryOptions {
	return models.QueryOptions{FilterOptions: models.FilterOptions{
		From: testinfra.FixtureDay,
		To:   testinfra.FixtureDay.AddDate(0, 0, 1),
	}}
}

func assertRows[T any](t *testing.T, name string, got, want []T) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s = %+v, want %+v", name, got, want)
	}
}

// TestConfig_Validate covers path and dataset validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Path: ":memory:", Dataset: "analytics"}, false},
		{"missing path", Config{Dataset: "analytics"}, true},
		{"bad dataset", Config{Path: ":memory:", Dataset: "a; DROP"}, true},
		{"empty dataset", Config{Path: ":memory:"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestProviderConfig reports the storage layout without opening a connection.
func TestProviderConfig(t *testing.T) {
	engine, err := New(Config{Path: "/var/lib/eventlens/events.duckdb", Dataset: "analytics"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pc := engine.ProviderConfig()
	if pc.Provider != models.StorageProviderDuckDB {
		t.Errorf("Provider = %q", pc.Provider)
	}
	if pc.Config["dataset"] != "analytics" {
		t.Errorf("dataset = %v", pc.Config["dataset"])
	}
	if !strings.Contains(pc.Hint, "analytics.events_") {
		t.Errorf("Hint = %q", pc.Hint)
	}
}

// TestNewPredicate checks the generated WHERE clause and argument order.
func TestNewPredicate(t *testing.T) {
	from := testinfra.FixtureDay
	to := from.AddDate(0, 0, 1)
	q := analytics.Query{
		Filter: models.FilterOptions{
			From:        from,
			To:          to,
			Event:       models.StringPtr("click"),
			Page:        models.StringPtr("home"),
			ReferrerTLD: models.StringPtr("Google.com"),
			Mobile:      models.BoolPtr(false),
		},
		Window: analytics.PartitionWindowFor(from, to, to),
	}
	pb := newPredicate(q)
	where := pb.where()

	for _, want := range []string{
		"ts >= ?",
		"ts < ?",
		"partition_date IS NULL",
		"event = ?",
		"contains(COALESCE(page_url, ''), ?)",
		"suffix(",
		"NOT (contains(COALESCE(browser_name, ''), 'Mobile')",
	} {
		if !strings.Contains(where, want) {
			t.Errorf("where clause missing %q:\n%s", want, where)
		}
	}
	wantArgs := []interface{}{from, to, "2025-01-10", "2025-01-11", "click", "home", "google.com", ".google.com"}
	if !reflect.DeepEqual(pb.args, wantArgs) {
		t.Errorf("args = %v, want %v", pb.args, wantArgs)
	}
}

// TestNewPredicate_ReferrerTLD narrows the host clause to what the domain can match.
func TestNewPredicate_ReferrerTLD(t *testing.T) {
	from := testinfra.FixtureDay
	to := from.AddDate(0, 0, 1)

	tests := []struct {
		tld      string
		want     string
		wantArgs []interface{}
	}{
		{"google.com", "suffix(", []interface{}{"google.com", ".google.com"}},
		{"co.uk", ", 1)) = ?", []interface{}{"co.uk"}},
		{"127.0.0.1", ", 1)) = ?", []interface{}{"127.0.0.1"}},
		{"www.google.com", "FALSE", nil},
	}
	for _, tt := range tests {
		q := analytics.Query{
			Filter: models.FilterOptions{From: from, To: to, ReferrerTLD: models.StringPtr(tt.tld)},
			Window: analytics.PartitionWindowFor(from, to, to),
		}
		pb := newPredicate(q)
		if !strings.Contains(pb.where(), tt.want) {
			t.Errorf("%s: where clause missing %q:\n%s", tt.tld, tt.want, pb.where())
		}
		// time range and partition bounds come first
		if got := pb.args[4:]; len(got) != len(tt.wantArgs) || (len(got) > 0 && !reflect.DeepEqual(got, tt.wantArgs)) {
			t.Errorf("%s: tld args = %v, want %v", tt.tld, got, tt.wantArgs)
		}
	}
}

// TestLimitClause omits LIMIT for unbounded queries.
func TestLimitClause(t *testing.T) {
	clause, args := limitClause(0, []interface{}{"x"})
	if clause != "" || len(args) != 1 {
		t.Errorf("limitClause(0) = %q, %v", clause, args)
	}
	clause, args = limitClause(5, []interface{}{"x"})
	if clause != " LIMIT ?" || len(args) != 2 || args[1] != 5 {
		t.Errorf("limitClause(5) = %q, %v", clause, args)
	}
}

// TestQuoteIdent escapes embedded quotes.
func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent(`a"b`); got != `"a""b"` {
		t.Errorf("quoteIdent() = %s", got)
	}
	if got := sqlLiteral("it's"); got != "'it''s'" {
		t.Errorf("sqlLiteral() = %s", got)
	}
}

// TestService_Scalars exercises session duration and bounce ratio end to end.
func TestService_Scalars(t *testing.T) {
	svc := setupTestService(t, settledNow)
	ctx := context.Background()

	sess, err := svc.AverageSessionDuration(ctx, testApp, dayOptions())
	if err != nil {
		t.Fatalf("AverageSessionDuration() error = %v", err)
	}
	// u1 spans 10 minutes, u3 spans 30 minutes, u2 has no span.
	if sess.Result != 1200 {
		t.Errorf("AverageSessionDuration = %d, want 1200", sess.Result)
	}
	if !sess.From.Equal(testinfra.FixtureDay) {
		t.Errorf("From = %v", sess.From)
	}

	bounce, err := svc.BounceRatio(ctx, testApp, dayOptions())
	if err != nil {
		t.Fatalf("BounceRatio() error = %v", err)
	}
	if bounce.Result != 0 {
		t.Errorf("BounceRatio = %d, want 0", bounce.Result)
	}
}

// TestService_Groupings checks every simple grouping against the fixture.
func TestService_Groupings(t *testing.T) {
	svc := setupTestService(t, settledNow)
	ctx := context.Background()
	opts := dayOptions()

	type groupingFn func() (models.GroupingResult, error)
	tests := []struct {
		name string
		fn   groupingFn
		want []models.GroupingCount
	}{
		{"events", func() (models.GroupingResult, error) { return svc.Events(ctx, testApp, opts) },
			[]models.GroupingCount{{Key: "view", UserCount: 3, EventCount: 3}, {Key: "click", UserCount: 2, EventCount: 3}}},
		{"event groups", func() (models.GroupingResult, error) { return svc.EventGroups(ctx, testApp, opts) },
			[]models.GroupingCount{{Key: "nav", UserCount: 3, EventCount: 3}, {Key: "ui", UserCount: 2, EventCount: 3}}},
		{"countries", func() (models.GroupingResult, error) { return svc.Countries(ctx, testApp, opts) },
			[]models.GroupingCount{{Key: "DE", UserCount: 2, EventCount: 5}, {Key: "US", UserCount: 1, EventCount: 1}}},
		{"browsers", func() (models.GroupingResult, error) { return svc.Browsers(ctx, testApp, opts) },
			[]models.GroupingCount{
				{Key: "Chrome", UserCount: 1, EventCount: 3},
				{Key: "Chrome Mobile", UserCount: 1, EventCount: 2},
				{Key: "Mobile Safari", UserCount: 1, EventCount: 1},
			}},
		{"operating systems", func() (models.GroupingResult, error) { return svc.OperatingSystems(ctx, testApp, opts) },
			[]models.GroupingCount{
				{Key: "Android", UserCount: 1, EventCount: 2},
				{Key: "Windows", UserCount: 1, EventCount: 3},
				{Key: "iOS", UserCount: 1, EventCount: 1},
			}},
		{"devices", func() (models.GroupingResult, error) { return svc.Devices(ctx, testApp, opts) },
			[]models.GroupingCount{{Key: "Mobile", UserCount: 2, EventCount: 3}, {Key: "Desktop", UserCount: 1, EventCount: 3}}},
		{"pages", func() (models.GroupingResult, error) { return svc.Pages(ctx, testApp, models.PageModeAll, opts) },
			[]models.GroupingCount{
				{Key: "/home", UserCount: 3, EventCount: 3},
				{Key: "/checkout", UserCount: 1, EventCount: 1},
				{Key: "/docs", UserCount: 1, EventCount: 1},
				{Key: "/pricing", UserCount: 1, EventCount: 1},
			}},
		{"entry pages", func() (models.GroupingResult, error) { return svc.Pages(ctx, testApp, models.PageModeEntry, opts) },
			[]models.GroupingCount{{Key: "/home", UserCount: 2, EventCount: 4}, {Key: "/docs", UserCount: 1, EventCount: 2}}},
		{"exit pages", func() (models.GroupingResult, error) { return svc.Pages(ctx, testApp, models.PageModeExit, opts) },
			[]models.GroupingCount{{Key: "/home", UserCount: 2, EventCount: 3}, {Key: "/checkout", UserCount: 1, EventCount: 3}}},
		{"utm sources", func() (models.GroupingResult, error) { return svc.UTMs(ctx, testApp, models.UTMSource, opts) },
			[]models.GroupingCount{{Key: "newsletter", UserCount: 2, EventCount: 2}, {Key: "hn", UserCount: 1, EventCount: 1}}},
		{"referrers", func() (models.GroupingResult, error) { return svc.Referrers(ctx, testApp, opts) },
			[]models.GroupingCount{
				{Key: "https://mail.google.com/inbox", UserCount: 1, EventCount: 1},
				{Key: "https://news.ycombinator.com/item?id=1", UserCount: 1, EventCount: 1},
				{Key: "https://www.google.com/search?q=eventlens", UserCount: 1, EventCount: 1},
			}},
		{"referrer tlds", func() (models.GroupingResult, error) { return svc.ReferrerTLDs(ctx, testApp, opts) },
			[]models.GroupingCount{{Key: "google.com", UserCount: 2, EventCount: 2}, {Key: "ycombinator.com", UserCount: 1, EventCount: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			assertRows(t, tt.name, got.Result, tt.want)
		})
	}
}

// TestService_EventRequests buckets events by the requested time slice.
func TestService_EventRequests(t *testing.T) {
	svc := setupTestService(t, settledNow)
	ctx := context.Background()

	tests := []struct {
		slice models.TimeSlice
		want  []models.GroupingCount
	}{
		{models.TimeSliceDay, []models.GroupingCount{{Key: "2025-01-10", UserCount: 3, EventCount: 6}}},
		{models.TimeSliceHour, []models.GroupingCount{
			{Key: "2025-01-10 10", UserCount: 1, EventCount: 3},
			{Key: "2025-01-10 11", UserCount: 1, EventCount: 1},
			{Key: "2025-01-10 12", UserCount: 1, EventCount: 2},
		}},
		{models.TimeSliceMonth, []models.GroupingCount{{Key: "2025-01", UserCount: 3, EventCount: 6}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.slice), func(t *testing.T) {
			opts := dayOptions()
			opts.TimeSlice = tt.slice
			got, err := svc.EventRequests(ctx, testApp, opts)
			if err != nil {
				t.Fatalf("EventRequests() error = %v", err)
			}
			assertRows(t, "EventRequests", got.Result, tt.want)
		})
	}
}

// TestService_Filters applies dimension filters to the events grouping.
func TestService_Filters(t *testing.T) {
	svc := setupTestService(t, settledNow)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.QueryOptions)
		want   []models.GroupingCount
	}{
		{"mobile", func(o *models.QueryOptions) { o.FilterOptions.Mobile = models.BoolPtr(true) },
			[]models.GroupingCount{{Key: "view", UserCount: 2, EventCount: 2}, {Key: "click", UserCount: 1, EventCount: 1}}},
		{"desktop", func(o *models.QueryOptions) { o.FilterOptions.Mobile = models.BoolPtr(false) },
			[]models.GroupingCount{{Key: "click", UserCount: 1, EventCount: 2}, {Key: "view", UserCount: 1, EventCount: 1}}},
		{"country", func(o *models.QueryOptions) { o.FilterOptions.Country = models.StringPtr("US") },
			[]models.GroupingCount{{Key: "view", UserCount: 1, EventCount: 1}}},
		{"page contains", func(o *models.QueryOptions) { o.FilterOptions.Page = models.StringPtr("home") },
			[]models.GroupingCount{{Key: "click", UserCount: 2, EventCount: 2}, {Key: "view", UserCount: 1, EventCount: 1}}},
		{"referrer tld", func(o *models.QueryOptions) { o.FilterOptions.ReferrerTLD = models.StringPtr("google.com") },
			[]models.GroupingCount{{Key: "click", UserCount: 1, EventCount: 1}, {Key: "view", UserCount: 1, EventCount: 1}}},
		{"referrer public suffix", func(o *models.QueryOptions) { o.FilterOptions.ReferrerTLD = models.StringPtr("com") },
			[]models.GroupingCount{}},
		{"referrer subdomain is not a tld", func(o *models.QueryOptions) { o.FilterOptions.ReferrerTLD = models.StringPtr("www.google.com") },
			[]models.GroupingCount{}},
		{"environment", func(o *models.QueryOptions) { o.FilterOptions.Environment = models.StringPtr("staging") },
			[]models.GroupingCount{{Key: "click", UserCount: 1, EventCount: 1}, {Key: "view", UserCount: 1, EventCount: 1}}},
		{"limit", func(o *models.QueryOptions) { o.Limit = 1 },
			[]models.GroupingCount{{Key: "view", UserCount: 3, EventCount: 3}}},
		{"no match", func(o *models.QueryOptions) { o.FilterOptions.Event = models.StringPtr("purchase") },
			[]models.GroupingCount{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := dayOptions()
			tt.mutate(&opts)
			got, err := svc.Events(ctx, testApp, opts)
			if err != nil {
				t.Fatalf("Events() error = %v", err)
			}
			assertRows(t, "Events", got.Result, tt.want)
		})
	}
}

// TestService_Usage sums requests and bytes per bucket, newest first.
func TestService_Usage(t *testing.T) {
	svc := setupTestService(t, settledNow)
	ctx := context.Background()

	opts := dayOptions()
	opts.TimeSlice = models.TimeSliceHour

	usage, err := svc.Usage(ctx, testEndpoint, opts)
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	assertRows(t, "Usage", usage.Result, []models.UsageCount{
		{Key: "2025-01-10 12", Requests: 2, Bytes: 20},
		{Key: "2025-01-10 11", Requests: 3, Bytes: 300},
		{Key: "2025-01-10 10", Requests: 4, Bytes: 175},
	})

	opts.TimeSlice = models.TimeSliceDay
	requests, err := svc.Requests(ctx, testEndpoint, opts)
	if err != nil {
		t.Fatalf("Requests() error = %v", err)
	}
	assertRows(t, "Requests", requests.Result, []models.UsageCount{{Key: "2025-01-10", Requests: 9}})

	bytes, err := svc.Bytes(ctx, testEndpoint, opts)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	assertRows(t, "Bytes", bytes.Result, []models.UsageCount{{Key: "2025-01-10", Bytes: 495}})
}

// TestService_StreamingBuffer admits unpartitioned rows only near now.
func TestService_StreamingBuffer(t *testing.T) {
	opts := models.QueryOptions{FilterOptions: models.FilterOptions{
		From: testinfra.FixtureDay,
		To:   testinfra.FixtureDay.AddDate(0, 0, 2),
	}}

	tests := []struct {
		name string
		now  time.Time
		want []models.GroupingCount
	}{
		{"within buffer", testinfra.FixtureDay.Add(36 * time.Hour),
			[]models.GroupingCount{{Key: "view", UserCount: 4, EventCount: 4}, {Key: "click", UserCount: 2, EventCount: 3}}},
		{"settled", settledNow,
			[]models.GroupingCount{{Key: "view", UserCount: 3, EventCount: 3}, {Key: "click", UserCount: 2, EventCount: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := setupTestService(t, tt.now)
			got, err := svc.Events(context.Background(), testApp, opts)
			if err != nil {
				t.Fatalf("Events() error = %v", err)
			}
			assertRows(t, "Events", got.Result, tt.want)
		})
	}
}

// TestService_MissingUnit soft-fails when the unit table does not exist.
func TestService_MissingUnit(t *testing.T) {
	svc := setupTestService(t, settledNow)
	app := models.Application{ID: "a2", OrgID: "o1", UsageBindingID: "unknown"}

	got, err := svc.Countries(context.Background(), app, dayOptions())
	if err != nil {
		t.Fatalf("Countries() error = %v", err)
	}
	if got.Result == nil || len(got.Result) != 0 {
		t.Errorf("Countries() = %+v, want empty non-nil", got.Result)
	}
}

// TestEngine_CloseReopens reopens the connection after Close.
func TestEngine_CloseReopens(t *testing.T) {
	engine := setupTestEngine(t)
	ctx := context.Background()

	if err := engine.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := engine.Configure(ctx); err != nil {
		t.Fatalf("Configure() after Close error = %v", err)
	}
}
