// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/eventlens/internal/models"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/eventlens/config.yaml",
	"/etc/eventlens/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. File and
// environment layers override it.
func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Provider: models.StorageProviderDuckDB,
		},
		Warehouse: WarehouseConfig{
			Path:      "/data/eventlens.duckdb",
			Dataset:   "analytics",
			MaxMemory: "2GB",
			Threads:   0,
		},
		MongoDB: MongoDBConfig{
			URI:                    "mongodb://127.0.0.1:27017",
			Database:               "eventlens",
			ConnectTimeout:         10 * time.Second,
			ServerSelectionTimeout: 5 * time.Second,
		},
		Analytics: AnalyticsConfig{
			DefaultLimit:            models.DefaultQueryLimit,
			BufferWindow:            25 * time.Hour,
			QueryTimeout:            30 * time.Second,
			CacheEnabled:            true,
			CacheType:               "ttl",
			CacheTTL:                10 * time.Minute,
			CacheCapacity:           10000,
			BreakerFailureThreshold: 5,
			BreakerMaxRequests:      1,
			BreakerInterval:         time.Minute,
			BreakerTimeout:          30 * time.Second,
		},
		Server: ServerConfig{
			Port:            8390,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration from every layer and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoadWithKoanf loads defaults, then the config file, then environment
// variables, and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processEntities(k); err != nil {
		return nil, fmt.Errorf("failed to process entities: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// processEntities expands the ENTITIES environment form
//
//	kind:id:org_id:usage_binding,kind:id:org_id:usage_binding
//
// into the list form used by YAML. The usage binding may be empty.
func processEntities(k *koanf.Koanf) error {
	raw, ok := k.Get("entities").(string)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		k.Delete("entities")
		return nil
	}

	var entities []map[string]interface{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) < 3 || len(parts) > 4 {
			return fmt.Errorf("entity %q must be kind:id:org_id[:usage_binding]", item)
		}
		entity := map[string]interface{}{
			"kind":   parts[0],
			"id":     parts[1],
			"org_id": parts[2],
		}
		if len(parts) == 4 {
			entity["usage_binding"] = parts[3]
		}
		entities = append(entities, entity)
	}
	k.Delete("entities")
	return k.Set("entities", entities)
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"storage_provider": "storage.provider",

		"duckdb_path":       "warehouse.path",
		"duckdb_dataset":    "warehouse.dataset",
		"duckdb_max_memory": "warehouse.max_memory",
		"duckdb_threads":    "warehouse.threads",

		"mongodb_uri":                      "mongodb.uri",
		"mongodb_database":                 "mongodb.database",
		"mongodb_connect_timeout":          "mongodb.connect_timeout",
		"mongodb_server_selection_timeout": "mongodb.server_selection_timeout",

		"analytics_default_limit": "analytics.default_limit",
		"analytics_buffer_window": "analytics.buffer_window",
		"analytics_query_timeout": "analytics.query_timeout",
		"provision_units":         "analytics.provision_units",

		"result_cache_enabled":  "analytics.cache_enabled",
		"result_cache_type":     "analytics.cache_type",
		"result_cache_ttl":      "analytics.cache_ttl",
		"result_cache_capacity": "analytics.cache_capacity",

		"breaker_failure_threshold": "analytics.breaker_failure_threshold",
		"breaker_max_requests":      "analytics.breaker_max_requests",
		"breaker_interval":          "analytics.breaker_interval",
		"breaker_timeout":           "analytics.breaker_timeout",

		"http_port":           "server.port",
		"http_host":           "server.host",
		"http_timeout":        "server.timeout",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"entities": "entities",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
