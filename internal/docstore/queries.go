// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/models"
)

// aggregate runs pipeline against the unit collection and decodes every result.
func aggregate[T any](ctx context.Context, e *Engine, q analytics.Query, pipeline mongo.Pipeline) ([]T, error) {
	coll, err := e.collection(ctx, q.Unit)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Operation, err)
	}
	defer func() {
		if cerr := cursor.Close(ctx); cerr != nil {
			e.logger.Warn().Err(cerr).Str("operation", q.Operation).Msg("Failed to close cursor")
		}
	}()

	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", q.Operation, err)
	}
	return results, nil
}

func sessionPipeline(q analytics.Query) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(q),
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + analytics.FieldUserHash},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$" + analytics.FieldTimestamp}}},
			{Key: "last", Value: bson.D{{Key: "$max", Value: "$" + analytics.FieldTimestamp}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "span", Value: bson.D{{Key: "$subtract", Value: bson.A{"$last", "$first"}}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "span", Value: bson.D{{Key: "$gt", Value: 0}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$span"}}},
			{Key: "sessions", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

func bouncePipeline(q analytics.Query) mongo.Pipeline {
	return mongo.Pipeline{
		matchStage(q),
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + analytics.FieldUserHash},
			{Key: "events", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "bounced", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$events", 1}}}, 1, 0,
			}}}}}},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

func usagePipeline(q analytics.Query) mongo.Pipeline {
	sumOf := func(field string) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, 0}}}}}
	}
	return mongo.Pipeline{
		matchStage(q),
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bucketExpr(q.Format)},
			{Key: "requests", Value: sumOf(analytics.FieldRequests)},
			{Key: "bytes", Value: sumOf(analytics.FieldBytes)},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "key", Value: "$_id"},
			{Key: "requests", Value: bson.D{{Key: "$toLong", Value: "$requests"}}},
			{Key: "bytes", Value: bson.D{{Key: "$toLong", Value: "$bytes"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "key", Value: -1}}}},
	}
}

// SessionDurationMillis implements analytics.Engine.
func (e *Engine) SessionDurationMillis(ctx context.Context, q analytics.Query) (float64, bool, error) {
	type row struct {
		Avg      float64 `bson:"avg"`
		Sessions int64   `bson:"sessions"`
	}
	rows, err := aggregate[row](ctx, e, q, sessionPipeline(q))
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 || rows[0].Sessions == 0 {
		return 0, false, nil
	}
	return rows[0].Avg, true, nil
}

// BounceCounts implements analytics.Engine.
func (e *Engine) BounceCounts(ctx context.Context, q analytics.Query) (bounced, total int64, err error) {
	type row struct {
		Bounced int64 `bson:"bounced"`
		Total   int64 `bson:"total"`
	}
	rows, err := aggregate[row](ctx, e, q, bouncePipeline(q))
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Bounced, rows[0].Total, nil
}

// TimeBuckets implements analytics.Engine.
func (e *Engine) TimeBuckets(ctx context.Context, q analytics.Query) ([]models.GroupingCount, error) {
	return aggregate[models.GroupingCount](ctx, e, q, groupingPipeline(q, bucketExpr(q.Format)))
}

// GroupByField implements analytics.Engine.
func (e *Engine) GroupByField(ctx context.Context, q analytics.Query, field string) ([]models.GroupingCount, error) {
	return aggregate[models.GroupingCount](ctx, e, q, groupingPipeline(q, "$"+field, nonEmpty(field)))
}

// GroupByDevice implements analytics.Engine.
func (e *Engine) GroupByDevice(ctx context.Context, q analytics.Query) ([]models.GroupingCount, error) {
	return aggregate[models.GroupingCount](ctx, e, q, groupingPipeline(q, deviceExpr()))
}

// GroupByAttribution implements analytics.Engine.
func (e *Engine) GroupByAttribution(ctx context.Context, q analytics.Query, field string, last bool) ([]models.GroupingCount, error) {
	pipeline := attributionPipeline(q, "$"+field, last, nil, nonEmpty(field))
	return aggregate[models.GroupingCount](ctx, e, q, pipeline)
}

// GroupByReferrerHost implements analytics.Engine.
func (e *Engine) GroupByReferrerHost(ctx context.Context, q analytics.Query) ([]models.GroupingCount, error) {
	pipeline := attributionPipeline(q, "$"+hostField, false, referrerHostStages())
	return aggregate[models.GroupingCount](ctx, e, q, pipeline)
}

// UsageBuckets implements analytics.Engine.
func (e *Engine) UsageBuckets(ctx context.Context, q analytics.Query) ([]models.UsageCount, error) {
	return aggregate[models.UsageCount](ctx, e, q, usagePipeline(q))
}
