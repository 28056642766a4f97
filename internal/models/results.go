// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package models

import "time"

// GroupingCount is one bucket or dimension value with its distinct user count
// and total event count.
type GroupingCount struct {
	Key        string `json:"key" bson:"key"`
	UserCount  int64  `json:"user_count" bson:"user_count"`
	EventCount int64  `json:"event_count" bson:"event_count"`
}

// UsageCount is one time bucket of ingest-endpoint usage. The requests and
// bytes metrics fill only their own counter.
type UsageCount struct {
	Key      string `json:"key" bson:"key"`
	Requests int64  `json:"requests" bson:"requests"`
	Bytes    int64  `json:"bytes" bson:"bytes"`
}

// Result wraps metric rows with the window the caller asked for. From and To
// always echo the request, never a widened partition bound.
type Result[T any] struct {
	Result T         `json:"result"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

// GroupingResult is the wrapped form of grouping metrics.
type GroupingResult = Result[[]GroupingCount]

// UsageResult is the wrapped form of usage metrics.
type UsageResult = Result[[]UsageCount]

// ScalarResult is the wrapped form of single-number metrics.
type ScalarResult = Result[int64]
