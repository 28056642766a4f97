// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/cache"
	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/models"
	"github.com/tomtom215/eventlens/internal/validation"
)

// AnalyticsService is the backend the handlers query. *backend.Backend
// satisfies it.
type AnalyticsService interface {
	analytics.Backend
	BreakerState() string
	CacheStats() (cache.Stats, bool)
}

// Handler serves the metric, directory and status routes.
type Handler struct {
	backend      AnalyticsService
	applications map[string]models.Application
	endpoints    map[string]models.IngestEndpoint
	startTime    time.Time
}

// NewHandler creates a Handler over backend and the static entity directory.
func NewHandler(backend AnalyticsService, applications map[string]models.Application, endpoints map[string]models.IngestEndpoint) *Handler {
	if applications == nil {
		applications = map[string]models.Application{}
	}
	if endpoints == nil {
		endpoints = map[string]models.IngestEndpoint{}
	}
	return &Handler{
		backend:      backend,
		applications: applications,
		endpoints:    endpoints,
		startTime:    time.Now(),
	}
}

type applicationMetric func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error)

type endpointMetric func(ctx context.Context, b analytics.Backend, ep models.IngestEndpoint, req MetricRequest) (interface{}, error)

var applicationMetrics = map[string]applicationMetric{
	analytics.OpAverageSessionDuration: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.AverageSessionDuration(ctx, app, req.Options)
	},
	analytics.OpBounceRatio: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.BounceRatio(ctx, app, req.Options)
	},
	analytics.OpEventRequests: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.EventRequests(ctx, app, req.Options)
	},
	analytics.OpReferrers: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.Referrers(ctx, app, req.Options)
	},
	analytics.OpReferrerTLDs: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.ReferrerTLDs(ctx, app, req.Options)
	},
	analytics.OpUTMs: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.UTMs(ctx, app, req.Dimension, req.Options)
	},
	analytics.OpPages: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.Pages(ctx, app, req.Mode, req.Options)
	},
	analytics.OpCountries: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.Countries(ctx, app, req.Options)
	},
	analytics.OpDevices: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.Devices(ctx, app, req.Options)
	},
	analytics.OpEventGroups: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.EventGroups(ctx, app, req.Options)
	},
	analytics.OpEvents: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.Events(ctx, app, req.Options)
	},
	analytics.OpBrowsers: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.Browsers(ctx, app, req.Options)
	},
	analytics.OpOperatingSystems: func(ctx context.Context, b analytics.Backend, app models.Application, req MetricRequest) (interface{}, error) {
		return b.OperatingSystems(ctx, app, req.Options)
	},
}

var endpointMetrics = map[string]endpointMetric{
	analytics.OpUsage: func(ctx context.Context, b analytics.Backend, ep models.IngestEndpoint, req MetricRequest) (interface{}, error) {
		return b.Usage(ctx, ep, req.Options)
	},
	analytics.OpRequests: func(ctx context.Context, b analytics.Backend, ep models.IngestEndpoint, req MetricRequest) (interface{}, error) {
		return b.Requests(ctx, ep, req.Options)
	},
	analytics.OpBytes: func(ctx context.Context, b analytics.Backend, ep models.IngestEndpoint, req MetricRequest) (interface{}, error) {
		return b.Bytes(ctx, ep, req.Options)
	},
}

// ApplicationMetric handles GET /api/v1/applications/{id}/{metric}.
func (h *Handler) ApplicationMetric(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "metric")

	app, ok := h.applications[id]
	if !ok {
		h.respondMetricError(rw, fmt.Errorf("%w: application %q", ErrUnknownEntity, id))
		return
	}
	metric, ok := applicationMetrics[name]
	if !ok {
		h.respondMetricError(rw, fmt.Errorf("%w: %q", ErrUnknownMetric, name))
		return
	}
	req, err := parseMetricRequest(r.URL.Query())
	if err != nil {
		h.respondMetricError(rw, err)
		return
	}

	ctx := logging.ContextWithEntity(r.Context(), string(models.EntityKindApplication), id)
	result, err := metric(ctx, h.backend, app, req)
	if err != nil {
		h.respondMetricError(rw, err)
		return
	}
	rw.Success(result)
}

// IngestEndpointMetric handles GET /api/v1/ingest-endpoints/{id}/{metric}.
func (h *Handler) IngestEndpointMetric(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "metric")

	ep, ok := h.endpoints[id]
	if !ok {
		h.respondMetricError(rw, fmt.Errorf("%w: ingest endpoint %q", ErrUnknownEntity, id))
		return
	}
	metric, ok := endpointMetrics[name]
	if !ok {
		h.respondMetricError(rw, fmt.Errorf("%w: %q", ErrUnknownMetric, name))
		return
	}
	req, err := parseMetricRequest(r.URL.Query())
	if err != nil {
		h.respondMetricError(rw, err)
		return
	}

	ctx := logging.ContextWithEntity(r.Context(), string(models.EntityKindIngestEndpoint), id)
	result, err := metric(ctx, h.backend, ep, req)
	if err != nil {
		h.respondMetricError(rw, err)
		return
	}
	rw.Success(result)
}

// Applications handles GET /api/v1/applications.
func (h *Handler) Applications(w http.ResponseWriter, r *http.Request) {
	out := make([]models.Application, 0, len(h.applications))
	for _, app := range h.applications {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	NewResponseWriter(w, r).Success(out)
}

// IngestEndpoints handles GET /api/v1/ingest-endpoints.
func (h *Handler) IngestEndpoints(w http.ResponseWriter, r *http.Request) {
	out := make([]models.IngestEndpoint, 0, len(h.endpoints))
	for _, ep := range h.endpoints {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	NewResponseWriter(w, r).Success(out)
}

func (h *Handler) respondMetricError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownEntity), errors.Is(err, ErrUnknownMetric):
		rw.NotFound(err.Error())
	case errors.Is(err, ErrInvalidParameter):
		rw.BadRequest(err.Error())
	case analytics.IsConfigurationError(err):
		logging.CtxWarn(rw.r.Context()).Err(err).Msg("Rejected metric request")
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			apiErr := verr.ToAPIError()
			rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, err.Error(), apiErr.Details)
			return
		}
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	default:
		rw.InternalError(err)
	}
}
