// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/cache"
	"github.com/tomtom215/eventlens/internal/models"
)

// fakeBackend records the last call and answers with canned rows.
type fakeBackend struct {
	mu        sync.Mutex
	lastOp    string
	lastOpts  models.QueryOptions
	lastDim   models.UTMDimension
	lastMode  models.PageMode
	lastUnit  string
	breaker   string
	cacheOn   bool
	cacheStat cache.Stats
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{breaker: "closed"}
}

func (f *fakeBackend) record(op string, entity models.TrackedEntity, opts models.QueryOptions) error {
	f.mu.Lock()
	f.lastOp = op
	f.lastOpts = opts
	f.lastUnit, _ = entity.UsageBinding()
	f.mu.Unlock()

	if _, err := analytics.PrepareOptions(opts, 0); err != nil {
		return err
	}
	if opts.TimeSlice != "" && opts.TimeSlice != models.TimeSliceDay && opts.TimeSlice != models.TimeSliceHour {
		return fmt.Errorf("%w: %q", analytics.ErrUnsupportedTimeSlice, opts.TimeSlice)
	}
	if _, ok := entity.UsageBinding(); !ok {
		return analytics.ErrMissingUsageBinding
	}
	return nil
}

func (f *fakeBackend) grouping(op string, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	if err := f.record(op, app, opts); err != nil {
		return models.GroupingResult{}, err
	}
	return models.GroupingResult{
		Result: []models.GroupingCount{{Key: op, UserCount: 2, EventCount: 5}},
		From:   opts.FilterOptions.From,
		To:     opts.FilterOptions.To,
	}, nil
}

func (f *fakeBackend) usage(op string, ep models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	if err := f.record(op, ep, opts); err != nil {
		return models.UsageResult{}, err
	}
	return models.UsageResult{
		Result: []models.UsageCount{{Key: "2025-01-10", Requests: 9, Bytes: 495}},
		From:   opts.FilterOptions.From,
		To:     opts.FilterOptions.To,
	}, nil
}

func (f *fakeBackend) Provider() models.StorageProvider { return models.StorageProviderDuckDB }

func (f *fakeBackend) ProviderConfig() models.StorageProviderConfig {
	return models.StorageProviderConfig{
		Provider: models.StorageProviderDuckDB,
		Config:   map[string]any{"dataset": "analytics"},
		Hint:     "fake",
	}
}

func (f *fakeBackend) Configure(context.Context) error { return nil }
func (f *fakeBackend) Close(context.Context) error     { return nil }
func (f *fakeBackend) BreakerState() string            { return f.breaker }

func (f *fakeBackend) CacheStats() (cache.Stats, bool) { return f.cacheStat, f.cacheOn }

func (f *fakeBackend) AverageSessionDuration(_ context.Context, app models.Application, opts models.QueryOptions) (models.ScalarResult, error) {
	if err := f.record(analytics.OpAverageSessionDuration, app, opts); err != nil {
		return models.ScalarResult{}, err
	}
	return models.ScalarResult{Result: 1200, From: opts.FilterOptions.From, To: opts.FilterOptions.To}, nil
}

func (f *fakeBackend) BounceRatio(_ context.Context, app models.Application, opts models.QueryOptions) (models.ScalarResult, error) {
	if err := f.record(analytics.OpBounceRatio, app, opts); err != nil {
		return models.ScalarResult{}, err
	}
	return models.ScalarResult{From: opts.FilterOptions.From, To: opts.FilterOptions.To}, nil
}

func (f *fakeBackend) EventRequests(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpEventRequests, app, opts)
}

func (f *fakeBackend) Referrers(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpReferrers, app, opts)
}

func (f *fakeBackend) ReferrerTLDs(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpReferrerTLDs, app, opts)
}

func (f *fakeBackend) UTMs(_ context.Context, app models.Application, dim models.UTMDimension, opts models.QueryOptions) (models.GroupingResult, error) {
	f.mu.Lock()
	f.lastDim = dim
	f.mu.Unlock()
	switch dim {
	case models.UTMSource, models.UTMMedium, models.UTMCampaign:
	default:
		return models.GroupingResult{}, fmt.Errorf("%w: %q", analytics.ErrUnsupportedUTMDimension, dim)
	}
	return f.grouping(analytics.OpUTMs, app, opts)
}

func (f *fakeBackend) Pages(_ context.Context, app models.Application, mode models.PageMode, opts models.QueryOptions) (models.GroupingResult, error) {
	f.mu.Lock()
	f.lastMode = mode
	f.mu.Unlock()
	switch mode {
	case models.PageModeAll, models.PageModeEntry, models.PageModeExit:
	default:
		return models.GroupingResult{}, fmt.Errorf("%w: %q", analytics.ErrUnsupportedPageMode, mode)
	}
	return f.grouping(analytics.OpPages, app, opts)
}

func (f *fakeBackend) Countries(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpCountries, app, opts)
}

func (f *fakeBackend) Devices(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpDevices, app, opts)
}

func (f *fakeBackend) EventGroups(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpEventGroups, app, opts)
}

func (f *fakeBackend) Events(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpEvents, app, opts)
}

func (f *fakeBackend) Browsers(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpBrowsers, app, opts)
}

func (f *fakeBackend) OperatingSystems(_ context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return f.grouping(analytics.OpOperatingSystems, app, opts)
}

func (f *fakeBackend) Usage(_ context.Context, ep models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	return f.usage(analytics.OpUsage, ep, opts)
}

func (f *fakeBackend) Requests(_ context.Context, ep models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	return f.usage(analytics.OpRequests, ep, opts)
}

func (f *fakeBackend) Bytes(_ context.Context, ep models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	return f.usage(analytics.OpBytes, ep, opts)
}

var _ AnalyticsService = (*fakeBackend)(nil)

const testWindow = "from=2025-01-10T00:00:00Z&to=2025-01-11T00:00:00Z"

// setupTestRouter returns a router over a fake backend with one application
// "web" (bound), one application "unbound" and one ingest endpoint "edge".
func setupTestRouter(t *testing.T, cfg *ChiMiddlewareConfig) (http.Handler, *fakeBackend) {
	t.Helper()

	fb := newFakeBackend()
	apps := map[string]models.Application{
		"web":     {ID: "web", OrgID: "org1", UsageBindingID: "web-prod"},
		"unbound": {ID: "unbound", OrgID: "org1"},
	}
	endpoints := map[string]models.IngestEndpoint{
		"edge": {ID: "edge", OrgID: "org1", UsageBindingID: "edge-prod"},
	}
	if cfg == nil {
		cfg = &ChiMiddlewareConfig{RateLimitDisabled: true}
	}
	return NewRouter(NewHandler(fb, apps, endpoints), cfg).SetupChi(), fb
}

// doGet performs a GET against h and decodes the envelope.
func doGet(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp APIResponse
	if w.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

// decodeData re-encodes resp.Data into out.
func decodeData(t *testing.T, resp APIResponse, out interface{}) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("Failed to marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("Failed to unmarshal data %s: %v", raw, err)
	}
}

var fixtureFrom = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
