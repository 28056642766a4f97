// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

// Package services adapts long-running Eventlens components to suture.Service:
// the HTTP server and the one-shot backend provisioning step.
package services
