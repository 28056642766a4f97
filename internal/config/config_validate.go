// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package config

import (
	"fmt"
	"regexp"

	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/models"
	"github.com/tomtom215/eventlens/internal/validation"
)

var datasetPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateEntities(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateStorage checks the settings of the selected provider only.
func (c *Config) validateStorage() error {
	switch c.Storage.Provider {
	case models.StorageProviderDuckDB:
		if c.Warehouse.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when STORAGE_PROVIDER=duckdb")
		}
		if !datasetPattern.MatchString(c.Warehouse.Dataset) {
			return fmt.Errorf("DUCKDB_DATASET must match %s", datasetPattern.String())
		}
	case models.StorageProviderMongoDB:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORAGE_PROVIDER=mongodb")
		}
		if c.MongoDB.Database == "" {
			return fmt.Errorf("MONGODB_DATABASE is required when STORAGE_PROVIDER=mongodb")
		}
	default:
		return fmt.Errorf("STORAGE_PROVIDER %q is not supported", c.Storage.Provider)
	}
	return nil
}

// validateEntities rejects duplicate IDs within a kind.
func (c *Config) validateEntities() error {
	seen := make(map[string]bool, len(c.Entities))
	for _, e := range c.Entities {
		key := string(e.Kind) + "/" + e.ID
		if seen[key] {
			return fmt.Errorf("duplicate %s entity %q", e.Kind, e.ID)
		}
		seen[key] = true
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
