// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

/*
Package analytics defines the storage-agnostic aggregation contract and the
business rules shared by every storage engine.

Architecture:

A Backend is assembled from two halves:

  - Engine: the query-construction step for one storage engine (DuckDB SQL in
    internal/warehouse, MongoDB pipelines in internal/docstore)
  - Service: everything else (unit resolution, option preparation, partition
    window, soft-fail policy, circuit breaker, rounding, referrer domain merge,
    result wrapping)

Engines never round, never merge referrer hosts and never decide whether the
streaming buffer is included. They receive a fully prepared Query and return
raw rows, so the two engines only differ in how they ask the question.

Error Classes:

Configuration errors are returned synchronously and wrap one of the sentinel
errors (ErrMissingUsageBinding, ErrUnsupportedTimeSlice, ...). Execution
errors never reach the caller: the Service returns an empty result and reports
the failure to its FailureObserver.

	res, err := backend.Referrers(ctx, app, opts)
	if errors.Is(err, analytics.ErrMissingUsageBinding) {
	    // entity was never provisioned
	}
	// err == nil with an empty res.Result may be a masked failure

Partition Buffer:

Rows that the ingestion service has not yet assigned a partition carry a null
partition_date. When the requested window ends within BufferWindow of now the
partition predicate also admits those rows. See PartitionWindowFor.
*/
package analytics
