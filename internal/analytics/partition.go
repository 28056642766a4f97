// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import "time"

// DefaultBufferWindow is how far back from now a window end must reach for
// unpartitioned rows to be admitted: 24h of streaming buffer plus 1h of clock skew.
const DefaultBufferWindow = 25 * time.Hour

// PartitionDateLayout is the textual form of partition bounds handed to engines.
const PartitionDateLayout = "2006-01-02"

// PartitionWindow is the date range used to prune partitions.
type PartitionWindow struct {
	// From and To are inclusive UTC dates (midnight).
	From time.Time
	To   time.Time

	// IncludeUnpartitioned admits rows whose partition_date is not yet assigned.
	IncludeUnpartitioned bool
}

// FromDate returns the lower bound formatted as YYYY-MM-DD.
func (w PartitionWindow) FromDate() string { return w.From.Format(PartitionDateLayout) }

// ToDate returns the upper bound formatted as YYYY-MM-DD.
func (w PartitionWindow) ToDate() string { return w.To.Format(PartitionDateLayout) }

// PartitionWindowFor derives the partition window for the half-open range
// [from, to) evaluated at now, using DefaultBufferWindow.
func PartitionWindowFor(from, to, now time.Time) PartitionWindow {
	return partitionWindow(from, to, now, DefaultBufferWindow)
}

func partitionWindow(from, to, now time.Time, buffer time.Duration) PartitionWindow {
	return PartitionWindow{
		From:                 truncateDay(from),
		To:                   truncateDay(to),
		IncludeUnpartitioned: to.After(now.Add(-buffer)),
	}
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
