// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package api

import "errors"

// Routing errors, answered with 404.
var (
	ErrUnknownEntity = errors.New("unknown tracked entity")
	ErrUnknownMetric = errors.New("unknown metric")
)

// ErrInvalidParameter marks a malformed query parameter, answered with 400.
var ErrInvalidParameter = errors.New("invalid query parameter")
