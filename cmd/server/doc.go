// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

/*
Package main is the entry point for the Eventlens server.

Eventlens answers product-analytics questions (sessions, bounces, referrers,
pages, devices, ingest usage) over raw event rows held in either an embedded
DuckDB warehouse or a MongoDB cluster, selected by STORAGE_PROVIDER.

# Process Layout

	eventlens
	├── storage-layer
	│   └── backend-configure (one shot, retried with backoff)
	└── api-layer
	    └── http-server

Startup order:

 1. Configuration: koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog, JSON or console
 3. Backend: storage engine, circuit breaker, optional result cache
 4. HTTP: chi router over the backend and the configured entity directory
 5. Supervisor tree: suture v4, stopped by SIGINT or SIGTERM

A store that is down at startup does not stop the process: provisioning is
retried by the supervisor and metric routes answer with empty results until
the store is reachable again.
*/
package main
