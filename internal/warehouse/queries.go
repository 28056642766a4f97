// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/models"
)

// groupingOrder is the shared grouping sort: most users first, then key.
const groupingOrder = " ORDER BY user_count DESC, grouping_key ASC"

// SessionDurationMillis implements analytics.Engine.
func (e *Engine) SessionDurationMillis(ctx context.Context, q analytics.Query) (float64, bool, error) {
	db, err := e.DB(ctx)
	if err != nil {
		return 0, false, err
	}
	pb := newPredicate(q)
	query := fmt.Sprintf(`
		SELECT AVG(span_ms), COUNT(*)
		FROM (
			SELECT epoch_ms(MAX(ts)) - epoch_ms(MIN(ts)) AS span_ms
			FROM %s%s
			GROUP BY user_hash
		) sessions
		WHERE span_ms > 0`, e.table(q.Unit), pb.where())

	var avg sql.NullFloat64
	var sessions int64
	if err := db.QueryRowContext(ctx, query, pb.args...).Scan(&avg, &sessions); err != nil {
		return 0, false, fmt.Errorf("session duration: %w", err)
	}
	if !avg.Valid || sessions == 0 {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// BounceCounts implements analytics.Engine.
func (e *Engine) BounceCounts(ctx context.Context, q analytics.Query) (bounced, total int64, err error) {
	db, err := e.DB(ctx)
	if err != nil {
		return 0, 0, err
	}
	pb := newPredicate(q)
	query := fmt.Sprintf(`
		SELECT COUNT(*) FILTER (WHERE events = 1), COUNT(*)
		FROM (
			SELECT COUNT(*) AS events
			FROM %s%s
			GROUP BY user_hash
		) users`, e.table(q.Unit), pb.where())

	if err := db.QueryRowContext(ctx, query, pb.args...).Scan(&bounced, &total); err != nil {
		return 0, 0, fmt.Errorf("bounce counts: %w", err)
	}
	return bounced, total, nil
}

// TimeBuckets implements analytics.Engine.
func (e *Engine) TimeBuckets(ctx context.Context, q analytics.Query) ([]models.GroupingCount, error) {
	return e.groupBy(ctx, q, fmt.Sprintf("strftime(ts, %s)", sqlLiteral(q.Format)), newPredicate(q))
}

// GroupByField implements analytics.Engine.
func (e *Engine) GroupByField(ctx context.Context, q analytics.Query, field string) ([]models.GroupingCount, error) {
	return e.groupBy(ctx, q, quoteIdent(field), newPredicate(q).nonEmpty(quoteIdent(field)))
}

// GroupByDevice implements analytics.Engine.
func (e *Engine) GroupByDevice(ctx context.Context, q analytics.Query) ([]models.GroupingCount, error) {
	expr := fmt.Sprintf("CASE WHEN %s THEN %s ELSE %s END",
		mobileExpr, sqlLiteral(analytics.DeviceMobile), sqlLiteral(analytics.DeviceDesktop))
	return e.groupBy(ctx, q, expr, newPredicate(q))
}

// groupBy counts distinct users and events per value of keyExpr.
func (e *Engine) groupBy(ctx context.Context, q analytics.Query, keyExpr string, pb *predicateBuilder) ([]models.GroupingCount, error) {
	db, err := e.DB(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT %s AS grouping_key, COUNT(DISTINCT user_hash) AS user_count, COUNT(*) AS event_count
		FROM %s%s
		GROUP BY grouping_key`, keyExpr, e.table(q.Unit), pb.where()) + groupingOrder

	limit, args := limitClause(q.Limit, pb.args)
	rows, err := queryAndScan(ctx, db, query+limit, args, scanGroupingCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Operation, err)
	}
	return rows, nil
}

// GroupByAttribution implements analytics.Engine.
func (e *Engine) GroupByAttribution(ctx context.Context, q analytics.Query, field string, last bool) ([]models.GroupingCount, error) {
	pb := newPredicate(q).nonEmpty(quoteIdent(field))
	return e.attribute(ctx, q, quoteIdent(field), last, pb)
}

// GroupByReferrerHost implements analytics.Engine.
func (e *Engine) GroupByReferrerHost(ctx context.Context, q analytics.Query) ([]models.GroupingCount, error) {
	pb := newPredicate(q)
	pb.add(hostExpr + " <> ''")
	return e.attribute(ctx, q, hostExpr, false, pb)
}

// attribute assigns each user the value of valueExpr on their first (or last)
// qualifying event, then groups users by that value.
func (e *Engine) attribute(ctx context.Context, q analytics.Query, valueExpr string, last bool, pb *predicateBuilder) ([]models.GroupingCount, error) {
	db, err := e.DB(ctx)
	if err != nil {
		return nil, err
	}
	pick := "arg_min"
	if last {
		pick = "arg_max"
	}
	query := fmt.Sprintf(`
		WITH attributed AS (
			SELECT user_hash, %s(%s, ts) AS grouping_key, COUNT(*) AS events
			FROM %s%s
			GROUP BY user_hash
		)
		SELECT grouping_key, COUNT(*) AS user_count, CAST(SUM(events) AS BIGINT) AS event_count
		FROM attributed
		GROUP BY grouping_key`, pick, valueExpr, e.table(q.Unit), pb.where()) + groupingOrder

	limit, args := limitClause(q.Limit, pb.args)
	rows, err := queryAndScan(ctx, db, query+limit, args, scanGroupingCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Operation, err)
	}
	return rows, nil
}

// UsageBuckets implements analytics.Engine.
func (e *Engine) UsageBuckets(ctx context.Context, q analytics.Query) ([]models.UsageCount, error) {
	db, err := e.DB(ctx)
	if err != nil {
		return nil, err
	}
	pb := newPredicate(q)
	query := fmt.Sprintf(`
		SELECT strftime(ts, %s) AS grouping_key,
			CAST(COALESCE(SUM(requests), 0) AS BIGINT),
			CAST(COALESCE(SUM(bytes), 0) AS BIGINT)
		FROM %s%s
		GROUP BY grouping_key
		ORDER BY grouping_key DESC`, sqlLiteral(q.Format), e.table(q.Unit), pb.where())

	rows, err := queryAndScan(ctx, db, query, pb.args, scanUsageCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Operation, err)
	}
	return rows, nil
}
