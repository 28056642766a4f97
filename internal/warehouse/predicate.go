// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package warehouse

import (
	"fmt"
	"strings"

	"github.com/tomtom215/eventlens/internal/analytics"
)

// hostExpr extracts the lowercased referrer host, '' when the referrer is not
// an absolute URL.
var hostExpr = fmt.Sprintf("lower(regexp_extract(COALESCE(%s, ''), %s, 1))",
	analytics.FieldReferrer, sqlLiteral(analytics.ReferrerHostPattern))

// predicateBuilder accumulates WHERE conditions and their bound arguments.
type predicateBuilder struct {
	conditions []string
	args       []interface{}
}

// newPredicate returns the conditions shared by every query: the time range,
// partition pruning, dimension filters and the mobile classification.
func newPredicate(q analytics.Query) *predicateBuilder {
	pb := &predicateBuilder{}
	f := q.Filter

	pb.add(analytics.FieldTimestamp+" >= ?", f.From.UTC())
	pb.add(analytics.FieldTimestamp+" < ?", f.To.UTC())

	partition := fmt.Sprintf("%s BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)", analytics.FieldPartitionDate)
	if q.Window.IncludeUnpartitioned {
		partition = fmt.Sprintf("(%s OR %s IS NULL)", partition, analytics.FieldPartitionDate)
	}
	pb.add(partition, q.Window.FromDate(), q.Window.ToDate())

	for _, fv := range analytics.EqualityFilters(f) {
		pb.add(fv.Field+" = ?", fv.Value)
	}
	for _, fv := range analytics.ContainsFilters(f) {
		pb.add(fmt.Sprintf("contains(COALESCE(%s, ''), ?)", fv.Field), fv.Value)
	}
	if f.ReferrerTLD != nil {
		pb.referrerTLD(analytics.MatchReferrerTLD(*f.ReferrerTLD))
	}
	if f.Mobile != nil {
		if *f.Mobile {
			pb.add(mobileExpr)
		} else {
			pb.add("NOT " + mobileExpr)
		}
	}
	return pb
}

func (pb *predicateBuilder) add(condition string, args ...interface{}) {
	pb.conditions = append(pb.conditions, condition)
	pb.args = append(pb.args, args...)
}

// referrerTLD admits rows whose referrer host has m.Domain as its registrable domain.
func (pb *predicateBuilder) referrerTLD(m analytics.TLDMatch) {
	switch {
	case m.None:
		pb.add("FALSE")
	case m.Subdomains:
		pb.add(fmt.Sprintf("(%s = ? OR suffix(%s, ?))", hostExpr, hostExpr), m.Domain, "."+m.Domain)
	default:
		pb.add(hostExpr+" = ?", m.Domain)
	}
}

// nonEmpty requires field to hold a non-empty value.
func (pb *predicateBuilder) nonEmpty(field string) *predicateBuilder {
	pb.add(fmt.Sprintf("%s IS NOT NULL AND %s <> ''", field, field))
	return pb
}

func (pb *predicateBuilder) where() string {
	if len(pb.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(pb.conditions, " AND ")
}

// limitClause returns the LIMIT clause and appends its argument, or nothing
// when limit is unbounded.
func limitClause(limit int, args []interface{}) (string, []interface{}) {
	if limit <= 0 {
		return "", args
	}
	return " LIMIT ?", append(args, limit)
}

// mobileExpr is true when any mobile signal matches.
var mobileExpr = buildMobileExpr()

func buildMobileExpr() string {
	parts := make([]string, 0, len(analytics.MobileSignals))
	for _, s := range analytics.MobileSignals {
		switch s.Match {
		case analytics.SignalContains:
			parts = append(parts, fmt.Sprintf("contains(COALESCE(%s, ''), %s)", s.Field, sqlLiteral(s.Value)))
		default:
			parts = append(parts, fmt.Sprintf("COALESCE(%s, '') = %s", s.Field, sqlLiteral(s.Value)))
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
