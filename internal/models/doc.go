// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

/*
Package models defines the data structures shared by every Eventlens analytics backend.

Everything in this package is a query-time projection. Nothing here is persisted by
Eventlens itself: raw event rows are written by the edge ingestion service and only
read and aggregated here.

Key Components:

  - TrackedEntity: Application or IngestEndpoint owning a usage-binding ID
  - FilterOptions: half-open time window plus optional dimension filters
  - QueryOptions: time slice, filter options and row limit for one metric call
  - GroupingCount / UsageCount: result rows
  - Result: rows wrapped with the requested window
  - StorageProvider / StorageProviderConfig: backend selection surface

Filter Semantics:

Every optional FilterOptions field is a pointer. A nil pointer contributes no
predicate at all. Mobile is tri-state:

	nil   -> no clause
	true  -> browser contains "Mobile" OR device is iPhone/iPad OR os is iOS/Android
	false -> NOT (same disjunction)

Usage Example:

	opts := models.QueryOptions{
	    TimeSlice: models.TimeSliceDay,
	    FilterOptions: models.FilterOptions{
	        From:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	        To:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	        Mobile: models.BoolPtr(true),
	    },
	}
	res, err := backend.EventRequests(ctx, app, opts)

Thread Safety:

All types are plain values and safe to share once constructed.
*/
package models
