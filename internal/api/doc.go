// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

/*
Package api provides the read-only HTTP surface over the analytics backend.

Routes:

	GET /api/v1/health                              breaker state, cache counters
	GET /api/v1/storage                             provider config blob and hint
	GET /api/v1/applications                        configured applications
	GET /api/v1/applications/{id}/{metric}          application metrics
	GET /api/v1/ingest-endpoints                    configured ingest endpoints
	GET /api/v1/ingest-endpoints/{id}/{metric}      usage metrics
	GET /metrics                                    Prometheus exposition

Metric names are the analytics operation names (average_session_duration,
referrer_tlds, usage, ...). Query parameters:

	from, to        RFC3339 window bounds, to exclusive (required)
	time_slice      YEAR, MONTH, DAY, HOUR or MINUTE
	limit           maximum grouping rows, 0 for the default
	dimension       SOURCE, MEDIUM or CAMPAIGN (utms)
	mode            ENTRY or EXIT (pages), empty for every page view
	revision, environment, event, event_group, utm_source, utm_medium,
	utm_campaign, utm_term, utm_content, country, browser, os, referrer,
	page, referrer_tld, mobile

Configuration errors answer 400, unknown entities and metrics 404. Execution
failures never surface here: the backend masks them as empty results.

Every response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
*/
package api
