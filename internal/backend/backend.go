// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

// Package backend assembles the configured analytics backend: the storage
// engine, the shared aggregation service and the optional result cache.
package backend

import (
	"context"
	"fmt"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/cache"
	"github.com/tomtom215/eventlens/internal/config"
	"github.com/tomtom215/eventlens/internal/docstore"
	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/models"
	"github.com/tomtom215/eventlens/internal/warehouse"
)

// UnitProvisioner is implemented by engines that can create the storage for
// a unit ahead of ingestion.
type UnitProvisioner interface {
	ProvisionUnit(ctx context.Context, unit string) error
}

// Backend is the assembled analytics.Backend.
type Backend struct {
	analytics.Backend

	engine  analytics.Engine
	service *analytics.Service
	cache   cache.Cacher
}

// New builds the backend selected by cfg.Storage.Provider. observer may be
// nil to use the default logging observer.
func New(ctx context.Context, cfg *config.Config, observer analytics.FailureObserver) (*Backend, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	service := analytics.NewService(engine, analytics.ServiceConfig{
		DefaultLimit: cfg.Analytics.DefaultLimit,
		BufferWindow: cfg.Analytics.BufferWindow,
		QueryTimeout: cfg.Analytics.QueryTimeout,
		Breaker: analytics.BreakerConfig{
			MaxRequests:      cfg.Analytics.BreakerMaxRequests,
			Interval:         cfg.Analytics.BreakerInterval,
			Timeout:          cfg.Analytics.BreakerTimeout,
			FailureThreshold: cfg.Analytics.BreakerFailureThreshold,
		},
		Observer: observer,
	})

	b := &Backend{Backend: service, engine: engine, service: service}
	if cfg.Analytics.CacheEnabled {
		b.cache = cache.NewCacher(cache.CacheConfig{
			Type:     cache.CacheType(cfg.Analytics.CacheType),
			TTL:      cfg.Analytics.CacheTTL,
			Capacity: cfg.Analytics.CacheCapacity,
		})
		cached := analytics.NewCachedBackend(service, b.cache, cfg.Analytics.BufferWindow, nil)
		cached.LoadTimeout = cfg.Analytics.QueryTimeout
		b.Backend = cached
	}

	logging.Ctx(ctx).Info().
		Str("provider", string(engine.Provider())).
		Bool("result_cache", cfg.Analytics.CacheEnabled).
		Msg("Analytics backend created")
	return b, nil
}

// NewEngine returns the storage engine for cfg.Storage.Provider.
func NewEngine(cfg *config.Config) (analytics.Engine, error) {
	switch cfg.Storage.Provider {
	case models.StorageProviderDuckDB:
		return warehouse.New(warehouse.Config{
			Path:      cfg.Warehouse.Path,
			Dataset:   cfg.Warehouse.Dataset,
			MaxMemory: cfg.Warehouse.MaxMemory,
			Threads:   cfg.Warehouse.Threads,
		})
	case models.StorageProviderMongoDB:
		return docstore.New(docstore.Config{
			URI:                    cfg.MongoDB.URI,
			Database:               cfg.MongoDB.Database,
			ConnectTimeout:         cfg.MongoDB.ConnectTimeout,
			ServerSelectionTimeout: cfg.MongoDB.ServerSelectionTimeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", analytics.ErrUnsupportedProvider, cfg.Storage.Provider)
	}
}

// BreakerState reports the execution circuit breaker state.
func (b *Backend) BreakerState() string {
	return b.service.BreakerState()
}

// CacheStats returns the result cache counters and whether a cache is enabled.
func (b *Backend) CacheStats() (cache.Stats, bool) {
	if b.cache == nil {
		return cache.Stats{}, false
	}
	return b.cache.GetStats(), true
}

// ProvisionUnit creates the storage for the unit of entity.
func (b *Backend) ProvisionUnit(ctx context.Context, entity models.TrackedEntity) error {
	unit, err := analytics.ResolveUnit(entity)
	if err != nil {
		return err
	}
	p, ok := b.engine.(UnitProvisioner)
	if !ok {
		return fmt.Errorf("%s does not support provisioning", b.engine.Provider())
	}
	return p.ProvisionUnit(ctx, unit)
}

// Close releases the engine client and stops the cache sweeper.
func (b *Backend) Close(ctx context.Context) error {
	if b.cache != nil {
		b.cache.Close()
	}
	return b.service.Close(ctx)
}
