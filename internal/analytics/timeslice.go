// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"fmt"

	"github.com/tomtom215/eventlens/internal/models"
)

// FormatForTimeSlice returns the strftime pattern used to key time buckets.
//
// The same pattern is understood by DuckDB strftime and MongoDB $dateToString,
// so both engines produce byte-identical bucket keys. Any value outside the
// five declared slices is a configuration error.
func FormatForTimeSlice(slice models.TimeSlice) (string, error) {
	switch slice {
	case models.TimeSliceYear:
		return "%Y", nil
	case models.TimeSliceMonth:
		return "%Y-%m", nil
	case models.TimeSliceDay:
		return "%Y-%m-%d", nil
	case models.TimeSliceHour:
		return "%Y-%m-%d %H", nil
	case models.TimeSliceMinute:
		return "%Y-%m-%d %H:%M", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTimeSlice, slice)
	}
}
