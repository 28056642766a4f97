// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/eventlens/internal/models"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status        string                 `json:"status"`
	Provider      models.StorageProvider `json:"provider"`
	BreakerState  string                 `json:"breaker_state"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Cache         *CacheStatus           `json:"cache,omitempty"`
}

// CacheStatus reports result cache counters.
type CacheStatus struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Keys      int64   `json:"keys"`
	HitRate   float64 `json:"hit_rate"`
}

// Health handles GET /api/v1/health. The process is "degraded" while the
// execution breaker is open: metrics still answer, but with empty results.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.backend.BreakerState()
	status := "healthy"
	if state == "open" {
		status = "degraded"
	}

	health := HealthStatus{
		Status:        status,
		Provider:      h.backend.Provider(),
		BreakerState:  state,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if stats, ok := h.backend.CacheStats(); ok {
		cs := &CacheStatus{
			Hits:      stats.Hits,
			Misses:    stats.Misses,
			Evictions: stats.Evictions,
			Keys:      stats.TotalKeys,
		}
		if total := stats.Hits + stats.Misses; total > 0 {
			cs.HitRate = float64(stats.Hits) / float64(total) * 100
		}
		health.Cache = cs
	}

	NewResponseWriter(w, r).Success(health)
}

// HealthLive handles GET /api/v1/health/live. It answers 200 whenever the
// process can serve HTTP, regardless of the store.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// Storage handles GET /api/v1/storage.
func (h *Handler) Storage(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.backend.ProviderConfig())
}
