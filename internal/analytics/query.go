// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"fmt"

	"github.com/tomtom215/eventlens/internal/models"
	"github.com/tomtom215/eventlens/internal/validation"
)

// Query is a fully prepared metric request handed to an Engine.
type Query struct {
	// Operation is the metric name, for logging only.
	Operation string

	// Unit is the resolved table or collection name.
	Unit string

	// Filter carries the requested window and dimension filters.
	Filter models.FilterOptions

	// Window is the partition pruning range derived from Filter.
	Window PartitionWindow

	// Format is the bucket key pattern for time-bucketed operations, "" otherwise.
	Format string

	// Limit caps grouping rows; zero or negative means unlimited.
	Limit int
}

// PrepareOptions validates opts and applies the default limit.
// Validation failures wrap ErrInvalidQueryOptions.
func PrepareOptions(opts models.QueryOptions, defaultLimit int) (models.QueryOptions, error) {
	if verr := validation.ValidateStruct(opts); verr != nil {
		return opts, fmt.Errorf("%w: %w", ErrInvalidQueryOptions, verr)
	}
	if opts.Limit == 0 {
		if defaultLimit <= 0 {
			defaultLimit = models.DefaultQueryLimit
		}
		opts.Limit = defaultLimit
	}
	return opts, nil
}
