// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"math"
	"sort"

	"github.com/tomtom215/eventlens/internal/models"
)

// Wrap echoes the requested window around rows.
func Wrap[T any](rows T, f models.FilterOptions) models.Result[T] {
	return models.Result[T]{Result: rows, From: f.From, To: f.To}
}

// SortGroupingCounts orders rows by user count descending, key ascending.
func SortGroupingCounts(rows []models.GroupingCount) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].UserCount != rows[j].UserCount {
			return rows[i].UserCount > rows[j].UserCount
		}
		return rows[i].Key < rows[j].Key
	})
}

// RoundSeconds converts a millisecond mean to whole seconds, half away from zero.
func RoundSeconds(millis float64) int64 {
	return int64(math.Round(millis / 1000))
}

// RoundRatio rounds bounced/total to the nearest integer, half away from zero,
// and is 0 when there are no users. The result is therefore always 0 or 1.
func RoundRatio(bounced, total int64) int64 {
	if total <= 0 {
		return 0
	}
	return int64(math.Round(float64(bounced) / float64(total)))
}

func applyLimit[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
