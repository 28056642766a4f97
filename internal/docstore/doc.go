// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

// Package docstore implements the document aggregation engine on MongoDB.
//
// Each storage unit is a collection named after the unit in the configured
// database. Every metric is a single aggregation pipeline that starts with a
// $match stage built by matchStage and ends with $sort/$limit where the
// metric returns grouping rows. Key formatting uses $dateToString with the
// same strftime patterns the warehouse engine uses, and referrer hosts are
// extracted with $regexFind using analytics.ReferrerHostPattern, so both
// engines produce identical keys.
//
// The client is created lazily on first use and released by Close.
package docstore
