// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/eventlens/internal/models"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every optional setting
//  2. Config File: optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: explicit mappings override both
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	backend, err := backend.New(ctx, cfg, nil)
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Storage   StorageConfig   `koanf:"storage"`
	Warehouse WarehouseConfig `koanf:"warehouse"`
	MongoDB   MongoDBConfig   `koanf:"mongodb"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`

	// Entities is the static entity directory served by the HTTP surface.
	Entities []EntityConfig `koanf:"entities" validate:"dive"`
}

// StorageConfig selects the aggregation backend.
type StorageConfig struct {
	Provider models.StorageProvider `koanf:"provider" validate:"required,storage_provider"`
}

// WarehouseConfig holds DuckDB settings.
type WarehouseConfig struct {
	Path      string `koanf:"path"`
	Dataset   string `koanf:"dataset"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"` // 0 = runtime.NumCPU()
}

// MongoDBConfig holds document store settings.
type MongoDBConfig struct {
	URI                    string        `koanf:"uri"`
	Database               string        `koanf:"database"`
	ConnectTimeout         time.Duration `koanf:"connect_timeout"`
	ServerSelectionTimeout time.Duration `koanf:"server_selection_timeout"`
}

// AnalyticsConfig holds the shared aggregation settings.
type AnalyticsConfig struct {
	DefaultLimit int           `koanf:"default_limit" validate:"gte=0"`
	BufferWindow time.Duration `koanf:"buffer_window" validate:"gte=0"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gte=0"`

	// ProvisionUnits creates the table or collection of every configured
	// entity at startup, for deployments where ingestion does not.
	ProvisionUnits bool `koanf:"provision_units"`

	// Result cache for windows outside the streaming buffer.
	CacheEnabled  bool          `koanf:"cache_enabled"`
	CacheType     string        `koanf:"cache_type" validate:"omitempty,oneof=ttl lru"`
	CacheTTL      time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	CacheCapacity int           `koanf:"cache_capacity" validate:"gte=0"`

	// Circuit breaker around backend execution.
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	Host              string        `koanf:"host"`
	Timeout           time.Duration `koanf:"timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EntityConfig is one tracked entity in the directory.
type EntityConfig struct {
	Kind         models.EntityKind `koanf:"kind" validate:"required,oneof=application ingest_endpoint"`
	ID           string            `koanf:"id" validate:"required"`
	OrgID        string            `koanf:"org_id"`
	UsageBinding string            `koanf:"usage_binding"`
}

// Applications returns the configured applications keyed by ID.
func (c *Config) Applications() map[string]models.Application {
	out := make(map[string]models.Application)
	for _, e := range c.Entities {
		if e.Kind == models.EntityKindApplication {
			out[e.ID] = models.Application{ID: e.ID, OrgID: e.OrgID, UsageBindingID: e.UsageBinding}
		}
	}
	return out
}

// IngestEndpoints returns the configured ingest endpoints keyed by ID.
func (c *Config) IngestEndpoints() map[string]models.IngestEndpoint {
	out := make(map[string]models.IngestEndpoint)
	for _, e := range c.Entities {
		if e.Kind == models.EntityKindIngestEndpoint {
			out[e.ID] = models.IngestEndpoint{ID: e.ID, OrgID: e.OrgID, UsageBindingID: e.UsageBinding}
		}
	}
	return out
}
