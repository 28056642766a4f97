// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"fmt"
	"strings"

	"github.com/tomtom215/eventlens/internal/models"
)

// UnitPrefix prefixes every physical storage unit name.
const UnitPrefix = "events_"

// ResolveUnit returns the table or collection name holding the entity's rows.
// The name is events_ followed by the lowercased binding ID with every
// character outside [a-z0-9_] replaced by an underscore, which keeps it safe
// to splice into SQL identifiers and collection names.
func ResolveUnit(entity models.TrackedEntity) (string, error) {
	if entity == nil {
		return "", fmt.Errorf("%w: nil entity", ErrMissingUsageBinding)
	}
	binding, ok := entity.UsageBinding()
	if !ok {
		return "", fmt.Errorf("%w: %s %q", ErrMissingUsageBinding, entity.Kind(), entity.EntityID())
	}
	return UnitPrefix + sanitizeUnit(binding), nil
}

func sanitizeUnit(binding string) string {
	var b strings.Builder
	b.Grow(len(binding))
	for _, r := range strings.ToLower(binding) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
