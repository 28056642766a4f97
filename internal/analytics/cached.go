// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/eventlens/internal/cache"
	"github.com/tomtom215/eventlens/internal/metrics"
	"github.com/tomtom215/eventlens/internal/models"
)

// ResultCache is the storage used by CachedBackend.
type ResultCache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
}

// CachedBackend memoizes results of windows that lie entirely before the
// streaming buffer, where the underlying rows no longer change.
//
// Empty results are never stored: they may be masked execution failures.
// Concurrent misses on the same key share a single backend call. That call is
// detached from the cancellation of whichever caller started it and is bounded
// by LoadTimeout instead; each caller stops waiting when its own context ends.
type CachedBackend struct {
	Backend

	// LoadTimeout bounds a shared load. Zero uses DefaultLoadTimeout.
	LoadTimeout time.Duration

	cache  ResultCache
	buffer time.Duration
	now    func() time.Time
	loads  singleflight.Group
}

// DefaultLoadTimeout bounds shared cache loads when no timeout is set.
const DefaultLoadTimeout = 30 * time.Second

// NewCachedBackend decorates b. A zero buffer uses DefaultBufferWindow and a
// nil now uses time.Now.
func NewCachedBackend(b Backend, c ResultCache, buffer time.Duration, now func() time.Time) *CachedBackend {
	if buffer <= 0 {
		buffer = DefaultBufferWindow
	}
	if now == nil {
		now = time.Now
	}
	return &CachedBackend{Backend: b, cache: c, buffer: buffer, now: now}
}

type cacheKeyParams struct {
	Provider models.StorageProvider `json:"provider"`
	Unit     string                 `json:"unit"`
	Selector string                 `json:"selector,omitempty"`
	Options  models.QueryOptions    `json:"options"`
}

func cached[T any](ctx context.Context, c *CachedBackend, op string, entity models.TrackedEntity, selector string,
	opts models.QueryOptions, empty func(T) bool, load func(ctx context.Context) (models.Result[T], error)) (models.Result[T], error) {

	f := opts.FilterOptions
	unit, err := ResolveUnit(entity)
	if err != nil || partitionWindow(f.From, f.To, c.now(), c.buffer).IncludeUnpartitioned {
		return load(ctx)
	}

	key := cache.GenerateKey(op, cacheKeyParams{
		Provider: c.Provider(),
		Unit:     unit,
		Selector: selector,
		Options:  opts,
	})
	if v, ok := c.cache.Get(key); ok {
		if res, ok := v.(models.Result[T]); ok {
			metrics.RecordCacheLookup(true)
			return res, nil
		}
	}
	metrics.RecordCacheLookup(false)

	ch := c.loads.DoChan(key, func() (interface{}, error) {
		timeout := c.LoadTimeout
		if timeout <= 0 {
			timeout = DefaultLoadTimeout
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		res, err := load(loadCtx)
		if err != nil {
			return res, err
		}
		if !empty(res.Result) {
			c.cache.Set(key, res)
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return models.Result[T]{}, ctx.Err()
	case r := <-ch:
		res, _ := r.Val.(models.Result[T])
		return res, r.Err
	}
}

func emptyGroups(rows []models.GroupingCount) bool { return len(rows) == 0 }
func emptyUsage(rows []models.UsageCount) bool     { return len(rows) == 0 }
func emptyScalar(v int64) bool                     { return v == 0 }

// AverageSessionDuration implements Backend.
func (c *CachedBackend) AverageSessionDuration(ctx context.Context, app models.Application, opts models.QueryOptions) (models.ScalarResult, error) {
	return cached(ctx, c, OpAverageSessionDuration, app, "", opts, emptyScalar, func(ctx context.Context) (models.ScalarResult, error) {
		return c.Backend.AverageSessionDuration(ctx, app, opts)
	})
}

// BounceRatio implements Backend.
func (c *CachedBackend) BounceRatio(ctx context.Context, app models.Application, opts models.QueryOptions) (models.ScalarResult, error) {
	return cached(ctx, c, OpBounceRatio, app, "", opts, emptyScalar, func(ctx context.Context) (models.ScalarResult, error) {
		return c.Backend.BounceRatio(ctx, app, opts)
	})
}

// EventRequests implements Backend.
func (c *CachedBackend) EventRequests(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpEventRequests, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.EventRequests(ctx, app, opts)
	})
}

// Referrers implements Backend.
func (c *CachedBackend) Referrers(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpReferrers, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.Referrers(ctx, app, opts)
	})
}

// ReferrerTLDs implements Backend.
func (c *CachedBackend) ReferrerTLDs(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpReferrerTLDs, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.ReferrerTLDs(ctx, app, opts)
	})
}

// UTMs implements Backend.
func (c *CachedBackend) UTMs(ctx context.Context, app models.Application, dim models.UTMDimension, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpUTMs, app, string(dim), opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.UTMs(ctx, app, dim, opts)
	})
}

// Pages implements Backend.
func (c *CachedBackend) Pages(ctx context.Context, app models.Application, mode models.PageMode, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpPages, app, "mode:"+string(mode), opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.Pages(ctx, app, mode, opts)
	})
}

// Countries implements Backend.
func (c *CachedBackend) Countries(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpCountries, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.Countries(ctx, app, opts)
	})
}

// Devices implements Backend.
func (c *CachedBackend) Devices(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpDevices, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.Devices(ctx, app, opts)
	})
}

// EventGroups implements Backend.
func (c *CachedBackend) EventGroups(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpEventGroups, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.EventGroups(ctx, app, opts)
	})
}

// Events implements Backend.
func (c *CachedBackend) Events(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpEvents, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.Events(ctx, app, opts)
	})
}

// Browsers implements Backend.
func (c *CachedBackend) Browsers(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpBrowsers, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.Browsers(ctx, app, opts)
	})
}

// OperatingSystems implements Backend.
func (c *CachedBackend) OperatingSystems(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return cached(ctx, c, OpOperatingSystems, app, "", opts, emptyGroups, func(ctx context.Context) (models.GroupingResult, error) {
		return c.Backend.OperatingSystems(ctx, app, opts)
	})
}

// Usage implements Backend.
func (c *CachedBackend) Usage(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	return cached(ctx, c, OpUsage, endpoint, "", opts, emptyUsage, func(ctx context.Context) (models.UsageResult, error) {
		return c.Backend.Usage(ctx, endpoint, opts)
	})
}

// Requests implements Backend.
func (c *CachedBackend) Requests(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	return cached(ctx, c, OpRequests, endpoint, "", opts, emptyUsage, func(ctx context.Context) (models.UsageResult, error) {
		return c.Backend.Requests(ctx, endpoint, opts)
	})
}

// Bytes implements Backend.
func (c *CachedBackend) Bytes(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	return cached(ctx, c, OpBytes, endpoint, "", opts, emptyUsage, func(ctx context.Context) (models.UsageResult, error) {
		return c.Backend.Bytes(ctx, endpoint, opts)
	})
}
