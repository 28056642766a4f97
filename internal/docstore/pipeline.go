// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package docstore

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tomtom215/eventlens/internal/analytics"
)

// hostField holds the extracted referrer host between stages.
const hostField = "_referrer_host"

// matchStage builds the $match stage shared by every pipeline. extra criteria
// are appended after the common filters.
func matchStage(q analytics.Query, extra ...bson.D) bson.D {
	return bson.D{{Key: "$match", Value: criteria(q, extra...)}}
}

// criteria returns the query document for the time range, partition window,
// dimension filters and mobile classification.
func criteria(q analytics.Query, extra ...bson.D) bson.D {
	f := q.Filter
	and := bson.A{
		bson.D{{Key: analytics.FieldTimestamp, Value: bson.D{
			{Key: "$gte", Value: f.From.UTC()},
			{Key: "$lt", Value: f.To.UTC()},
		}}},
		partitionCriteria(q.Window),
	}

	for _, fv := range analytics.EqualityFilters(f) {
		and = append(and, bson.D{{Key: fv.Field, Value: fv.Value}})
	}
	for _, fv := range analytics.ContainsFilters(f) {
		if fv.Value == "" {
			continue
		}
		and = append(and, bson.D{{Key: fv.Field, Value: bson.D{{Key: "$regex", Value: regexp.QuoteMeta(fv.Value)}}}})
	}
	if f.ReferrerTLD != nil {
		and = append(and, tldCriteria(analytics.MatchReferrerTLD(*f.ReferrerTLD)))
	}
	if f.Mobile != nil {
		op := "$or"
		if !*f.Mobile {
			op = "$nor"
		}
		and = append(and, bson.D{{Key: op, Value: mobileCriteria()}})
	}
	for _, d := range extra {
		and = append(and, d)
	}
	return bson.D{{Key: "$and", Value: and}}
}

func partitionCriteria(w analytics.PartitionWindow) bson.D {
	inRange := bson.D{{Key: analytics.FieldPartitionDate, Value: bson.D{
		{Key: "$gte", Value: w.From},
		{Key: "$lte", Value: w.To},
	}}}
	if !w.IncludeUnpartitioned {
		return inRange
	}
	return bson.D{{Key: "$or", Value: bson.A{
		inRange,
		bson.D{{Key: analytics.FieldPartitionDate, Value: nil}},
	}}}
}

// tldCriteria admits documents whose referrer host has m.Domain as its
// registrable domain. Every document carries _id, so None matches nothing.
func tldCriteria(m analytics.TLDMatch) bson.D {
	if m.None {
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$exists", Value: false}}}}
	}
	return bson.D{{Key: analytics.FieldReferrer, Value: bson.D{
		{Key: "$regex", Value: tldPattern(m)},
		{Key: "$options", Value: "i"},
	}}}
}

// tldPattern matches referrers whose host is m.Domain, or a subdomain of it
// when m.Subdomains is set.
func tldPattern(m analytics.TLDMatch) string {
	prefix := strings.TrimSuffix(analytics.ReferrerHostPattern, `([^/:?#@]+)`)
	sub := ""
	if m.Subdomains {
		sub = `(?:[^/:?#@]*\.)?`
	}
	return prefix + sub + regexp.QuoteMeta(m.Domain) + `(?:[/:?#]|$)`
}

// mobileCriteria is the query-language form of the mobile signals.
func mobileCriteria() bson.A {
	out := make(bson.A, 0, len(analytics.MobileSignals))
	for _, s := range analytics.MobileSignals {
		if s.Match == analytics.SignalContains {
			out = append(out, bson.D{{Key: s.Field, Value: bson.D{{Key: "$regex", Value: regexp.QuoteMeta(s.Value)}}}})
		} else {
			out = append(out, bson.D{{Key: s.Field, Value: s.Value}})
		}
	}
	return out
}

// mobileExpr is the aggregation-expression form of the mobile signals.
func mobileExpr() bson.D {
	or := make(bson.A, 0, len(analytics.MobileSignals))
	for _, s := range analytics.MobileSignals {
		input := bson.D{{Key: "$ifNull", Value: bson.A{"$" + s.Field, ""}}}
		if s.Match == analytics.SignalContains {
			or = append(or, bson.D{{Key: "$regexMatch", Value: bson.D{
				{Key: "input", Value: input},
				{Key: "regex", Value: regexp.QuoteMeta(s.Value)},
			}}})
		} else {
			or = append(or, bson.D{{Key: "$eq", Value: bson.A{input, s.Value}}})
		}
	}
	return bson.D{{Key: "$or", Value: or}}
}

// deviceExpr labels each event Mobile or Desktop.
func deviceExpr() bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{mobileExpr(), analytics.DeviceMobile, analytics.DeviceDesktop}}}
}

// hostExpr extracts the lowercased referrer host, "" when there is none.
func hostExpr() bson.D {
	return bson.D{{Key: "$let", Value: bson.D{
		{Key: "vars", Value: bson.D{{Key: "m", Value: bson.D{{Key: "$regexFind", Value: bson.D{
			{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + analytics.FieldReferrer, ""}}}},
			{Key: "regex", Value: analytics.ReferrerHostPattern},
		}}}}}},
		{Key: "in", Value: bson.D{{Key: "$toLower", Value: bson.D{{Key: "$ifNull", Value: bson.A{
			bson.D{{Key: "$arrayElemAt", Value: bson.A{"$$m.captures", 0}}},
			"",
		}}}}}},
	}}}
}

// bucketExpr formats ts with a strftime pattern in UTC.
func bucketExpr(format string) bson.D {
	return bson.D{{Key: "$dateToString", Value: bson.D{
		{Key: "format", Value: format},
		{Key: "date", Value: "$" + analytics.FieldTimestamp},
		{Key: "timezone", Value: "UTC"},
	}}}
}

// nonEmpty requires field to be present, non-null and not "".
func nonEmpty(field string) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}}}
}

// groupingPipeline counts distinct users and events per value of keyExpr.
func groupingPipeline(q analytics.Query, keyExpr interface{}, extra ...bson.D) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		matchStage(q, extra...),
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: keyExpr},
			{Key: "users", Value: bson.D{{Key: "$addToSet", Value: "$" + analytics.FieldUserHash}}},
			{Key: "event_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "key", Value: "$_id"},
			{Key: "user_count", Value: bson.D{{Key: "$size", Value: "$users"}}},
			{Key: "event_count", Value: 1},
		}}},
	}
	return appendSortLimit(pipeline, q.Limit)
}

// attributionPipeline assigns each user the value of valueExpr on their first
// (or last) qualifying event and groups users by it. pre stages run after the
// match and before ordering.
func attributionPipeline(q analytics.Query, valueExpr interface{}, last bool, pre []bson.D, extra ...bson.D) mongo.Pipeline {
	pick := "$first"
	if last {
		pick = "$last"
	}
	pipeline := mongo.Pipeline{matchStage(q, extra...)}
	pipeline = append(pipeline, pre...)
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: analytics.FieldTimestamp, Value: 1}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + analytics.FieldUserHash},
			{Key: "value", Value: bson.D{{Key: pick, Value: valueExpr}}},
			{Key: "events", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$value"},
			{Key: "user_count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "event_count", Value: bson.D{{Key: "$sum", Value: "$events"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "key", Value: "$_id"},
			{Key: "user_count", Value: 1},
			{Key: "event_count", Value: 1},
		}}},
	)
	return appendSortLimit(pipeline, q.Limit)
}

func appendSortLimit(pipeline mongo.Pipeline, limit int) mongo.Pipeline {
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
		{Key: "user_count", Value: -1},
		{Key: "key", Value: 1},
	}}})
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}
	return pipeline
}

// referrerHostStages compute the host into hostField and drop events without one.
func referrerHostStages() []bson.D {
	return []bson.D{
		{{Key: "$addFields", Value: bson.D{{Key: hostField, Value: hostExpr()}}}},
		{{Key: "$match", Value: bson.D{{Key: hostField, Value: bson.D{{Key: "$ne", Value: ""}}}}}},
	}
}
