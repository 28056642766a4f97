// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package models

// StorageProvider identifies an analytics backend implementation.
type StorageProvider string

const (
	// StorageProviderDuckDB is the columnar warehouse backend.
	StorageProviderDuckDB StorageProvider = "duckdb"

	// StorageProviderMongoDB is the document aggregation backend.
	StorageProviderMongoDB StorageProvider = "mongodb"
)

// StorageProviders lists every provider a deployment can select.
var StorageProviders = []StorageProvider{StorageProviderDuckDB, StorageProviderMongoDB}

// Valid reports whether p names a known provider.
func (p StorageProvider) Valid() bool {
	for _, known := range StorageProviders {
		if p == known {
			return true
		}
	}
	return false
}

// StorageProviderConfig is what a backend surfaces to operators: a free-form
// configuration blob and a human-readable setup hint. Secrets must be redacted
// before they reach Config.
type StorageProviderConfig struct {
	Provider StorageProvider `json:"provider"`
	Config   map[string]any  `json:"config"`
	Hint     string          `json:"hint"`
}
