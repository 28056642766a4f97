// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/cache"
	"github.com/tomtom215/eventlens/internal/models"
)

// TestApplicationMetric_Dispatch verifies every application metric name reaches its backend operation.
func TestApplicationMetric_Dispatch(t *testing.T) {
	t.Parallel()

	for name := range applicationMetrics {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h, fb := setupTestRouter(t, nil)

			query := testWindow
			switch name {
			case analytics.OpUTMs:
				query += "&dimension=source"
			case analytics.OpPages:
				query += "&mode=entry"
			}

			w, resp := doGet(t, h, "/api/v1/applications/web/"+name+"?"+query)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if !resp.Success {
				t.Errorf("Expected Success to be true")
			}
			if fb.lastOp != name {
				t.Errorf("Expected backend op %q, got %q", name, fb.lastOp)
			}
			if fb.lastUnit != "web-prod" {
				t.Errorf("Expected binding web-prod, got %q", fb.lastUnit)
			}
		})
	}
}

// TestApplicationMetric_GroupingBody verifies the wrapped result echoes the requested window.
func TestApplicationMetric_GroupingBody(t *testing.T) {
	t.Parallel()
	h, _ := setupTestRouter(t, nil)

	_, resp := doGet(t, h, "/api/v1/applications/web/countries?"+testWindow)

	var got models.GroupingResult
	decodeData(t, resp, &got)

	if !got.From.Equal(fixtureFrom) {
		t.Errorf("Expected from %v, got %v", fixtureFrom, got.From)
	}
	if len(got.Result) != 1 || got.Result[0].Key != analytics.OpCountries || got.Result[0].UserCount != 2 {
		t.Errorf("Unexpected rows: %+v", got.Result)
	}
	if resp.Meta == nil || resp.Meta.RequestID == "" {
		t.Errorf("Expected request id in meta")
	}
}

// TestApplicationMetric_Scalar verifies scalar metrics encode their integer result.
func TestApplicationMetric_Scalar(t *testing.T) {
	t.Parallel()
	h, _ := setupTestRouter(t, nil)

	_, resp := doGet(t, h, "/api/v1/applications/web/average_session_duration?"+testWindow)

	var got models.ScalarResult
	decodeData(t, resp, &got)
	if got.Result != 1200 {
		t.Errorf("Expected 1200, got %d", got.Result)
	}
}

// TestApplicationMetric_Errors verifies the status mapping of routing and configuration errors.
func TestApplicationMetric_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantErr  string
	}{
		{"unknown application", "/api/v1/applications/nope/countries?" + testWindow, http.StatusNotFound, ErrCodeNotFound},
		{"unknown metric", "/api/v1/applications/web/nope?" + testWindow, http.StatusNotFound, ErrCodeNotFound},
		{"usage metric on application", "/api/v1/applications/web/usage?" + testWindow, http.StatusNotFound, ErrCodeNotFound},
		{"missing binding", "/api/v1/applications/unbound/countries?" + testWindow, http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad from", "/api/v1/applications/web/countries?from=yesterday&to=2025-01-11T00:00:00Z", http.StatusBadRequest, ErrCodeBadRequest},
		{"bad limit", "/api/v1/applications/web/countries?" + testWindow + "&limit=ten", http.StatusBadRequest, ErrCodeBadRequest},
		{"bad mobile", "/api/v1/applications/web/countries?" + testWindow + "&mobile=maybe", http.StatusBadRequest, ErrCodeBadRequest},
		{"missing window", "/api/v1/applications/web/countries", http.StatusBadRequest, ErrCodeValidationFailed},
		{"unsupported slice", "/api/v1/applications/web/event_requests?" + testWindow + "&time_slice=WEEK", http.StatusBadRequest, ErrCodeValidationFailed},
		{"unsupported dimension", "/api/v1/applications/web/utms?" + testWindow + "&dimension=TERM", http.StatusBadRequest, ErrCodeValidationFailed},
		{"unsupported mode", "/api/v1/applications/web/pages?" + testWindow + "&mode=MIDDLE", http.StatusBadRequest, ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _ := setupTestRouter(t, nil)

			w, resp := doGet(t, h, tt.target)
			if w.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if resp.Success {
				t.Errorf("Expected Success to be false")
			}
			if resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("Expected error code %s, got %+v", tt.wantErr, resp.Error)
			}
		})
	}
}

// TestApplicationMetric_ValidationDetails verifies option validation failures list the offending fields.
func TestApplicationMetric_ValidationDetails(t *testing.T) {
	t.Parallel()
	h, _ := setupTestRouter(t, nil)

	w, resp := doGet(t, h, "/api/v1/applications/web/countries?from=2025-01-11T00:00:00Z&to=2025-01-10T00:00:00Z")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Fatalf("Expected %s, got %+v", ErrCodeValidationFailed, resp.Error)
	}
	details, ok := resp.Error.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected details object, got %T", resp.Error.Details)
	}
	fields, ok := details["fields"].([]interface{})
	if !ok || len(fields) == 0 {
		t.Fatalf("Expected field errors, got %v", details)
	}
	first, _ := fields[0].(map[string]interface{})
	field, _ := first["field"].(string)
	if !strings.HasSuffix(field, "to") || first["tag"] != "gtfield" {
		t.Errorf("Unexpected field error: %v", first)
	}
}

// TestIngestEndpointMetric verifies usage routes and their isolation from application routes.
func TestIngestEndpointMetric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target   string
		wantCode int
		wantOp   string
	}{
		{"/api/v1/ingest-endpoints/edge/usage?" + testWindow, http.StatusOK, analytics.OpUsage},
		{"/api/v1/ingest-endpoints/edge/requests?" + testWindow + "&time_slice=HOUR", http.StatusOK, analytics.OpRequests},
		{"/api/v1/ingest-endpoints/edge/bytes?" + testWindow, http.StatusOK, analytics.OpBytes},
		{"/api/v1/ingest-endpoints/edge/countries?" + testWindow, http.StatusNotFound, ""},
		{"/api/v1/ingest-endpoints/web/usage?" + testWindow, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		h, fb := setupTestRouter(t, nil)
		w, resp := doGet(t, h, tt.target)
		if w.Code != tt.wantCode {
			t.Errorf("%s: expected status %d, got %d", tt.target, tt.wantCode, w.Code)
			continue
		}
		if tt.wantCode != http.StatusOK {
			continue
		}
		if fb.lastOp != tt.wantOp {
			t.Errorf("%s: expected op %q, got %q", tt.target, tt.wantOp, fb.lastOp)
		}
		var got models.UsageResult
		decodeData(t, resp, &got)
		if len(got.Result) != 1 || got.Result[0].Requests != 9 {
			t.Errorf("%s: unexpected rows %+v", tt.target, got.Result)
		}
	}
}

// TestEntityDirectory verifies the directory routes list entities sorted by ID.
func TestEntityDirectory(t *testing.T) {
	t.Parallel()
	h, _ := setupTestRouter(t, nil)

	_, resp := doGet(t, h, "/api/v1/applications")
	var apps []models.Application
	decodeData(t, resp, &apps)
	if len(apps) != 2 || apps[0].ID != "unbound" || apps[1].ID != "web" {
		t.Errorf("Unexpected applications: %+v", apps)
	}

	_, resp = doGet(t, h, "/api/v1/ingest-endpoints")
	var endpoints []models.IngestEndpoint
	decodeData(t, resp, &endpoints)
	if len(endpoints) != 1 || endpoints[0].UsageBindingID != "edge-prod" {
		t.Errorf("Unexpected endpoints: %+v", endpoints)
	}
}

// TestHealth verifies breaker state and cache counters are reported.
func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		breaker    string
		cacheOn    bool
		wantStatus string
	}{
		{"closed without cache", "closed", false, "healthy"},
		{"open with cache", "open", true, "degraded"},
		{"half-open", "half-open", true, "healthy"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, fb := setupTestRouter(t, nil)
			fb.breaker = tt.breaker
			fb.cacheOn = tt.cacheOn
			fb.cacheStat = cache.Stats{Hits: 3, Misses: 1, TotalKeys: 2}

			w, resp := doGet(t, h, "/api/v1/health")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var got HealthStatus
			decodeData(t, resp, &got)
			if got.Status != tt.wantStatus {
				t.Errorf("Expected status %q, got %q", tt.wantStatus, got.Status)
			}
			if got.BreakerState != tt.breaker {
				t.Errorf("Expected breaker %q, got %q", tt.breaker, got.BreakerState)
			}
			if tt.cacheOn {
				if got.Cache == nil || got.Cache.HitRate != 75 {
					t.Errorf("Expected cache hit rate 75, got %+v", got.Cache)
				}
			} else if got.Cache != nil {
				t.Errorf("Expected no cache section, got %+v", got.Cache)
			}
		})
	}
}

// TestStorage verifies the provider config blob is served as-is.
func TestStorage(t *testing.T) {
	t.Parallel()
	h, _ := setupTestRouter(t, nil)

	_, resp := doGet(t, h, "/api/v1/storage")
	var got models.StorageProviderConfig
	decodeData(t, resp, &got)
	if got.Provider != models.StorageProviderDuckDB || got.Hint != "fake" {
		t.Errorf("Unexpected provider config: %+v", got)
	}
	if got.Config["dataset"] != "analytics" {
		t.Errorf("Expected dataset analytics, got %v", got.Config["dataset"])
	}
}
