// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

/*
Package warehouse implements the columnar analytics engine on DuckDB.

Every storage unit is a table "<dataset>"."events_<binding>" partitioned by the
partition_date column. Rows still sitting in the streaming buffer carry a NULL
partition_date and are only admitted when the requested window reaches into
the buffer horizon.

SQL Generation:

Every query is assembled by predicateBuilder from an analytics.Query:

	WHERE ts >= ? AND ts < ?
	  AND (partition_date BETWEEN CAST(? AS DATE) AND CAST(? AS DATE) OR partition_date IS NULL)
	  AND event = ?
	  AND contains(COALESCE(page_url, ''), ?)
	  AND NOT (contains(COALESCE(browser_name, ''), 'Mobile') OR ...)

User values are always bound as parameters. Identifiers (dataset, unit, field
names) come from validated configuration or from the fixed field list in
package analytics and are quoted before they are spliced in.

Aggregations:

  - Sessions: epoch_ms(MAX(ts)) - epoch_ms(MIN(ts)) per user_hash
  - Attribution: arg_min/arg_max(field, ts) per user_hash
  - Buckets: strftime(ts, format) with the shared analytics format patterns

SUM results are cast to BIGINT because DuckDB widens integer sums to HUGEINT,
which database/sql cannot scan into int64.
*/
package warehouse
