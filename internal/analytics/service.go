// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/metrics"
	"github.com/tomtom215/eventlens/internal/models"
)

// BreakerConfig configures the circuit breaker guarding engine execution.
type BreakerConfig struct {
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed. Zero never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// DefaultLimit replaces a zero QueryOptions.Limit. Defaults to 10000.
	DefaultLimit int

	// BufferWindow is the streaming buffer horizon. Defaults to 25h.
	BufferWindow time.Duration

	// QueryTimeout bounds each engine call. Zero leaves the caller's context alone.
	QueryTimeout time.Duration

	Breaker BreakerConfig

	// Observer receives masked failures. Defaults to LogObserver.
	Observer FailureObserver

	// Now is the clock used for the buffer decision. Defaults to time.Now.
	Now func() time.Time
}

// Service implements Backend on top of an Engine.
type Service struct {
	engine   Engine
	cfg      ServiceConfig
	observer FailureObserver
	breaker  *gobreaker.CircuitBreaker[any]
	logger   zerolog.Logger
}

var _ Backend = (*Service)(nil)

// NewService wraps engine with the shared aggregation rules.
func NewService(engine Engine, cfg ServiceConfig) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = models.DefaultQueryLimit
	}
	if cfg.BufferWindow <= 0 {
		cfg.BufferWindow = DefaultBufferWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = 1
	}
	if cfg.Breaker.Timeout <= 0 {
		cfg.Breaker.Timeout = 30 * time.Second
	}

	s := &Service{
		engine:   engine,
		cfg:      cfg,
		observer: cfg.Observer,
		logger:   logging.WithComponent("analytics").With().Str("backend", string(engine.Provider())).Logger(),
	}
	if s.observer == nil {
		s.observer = LogObserver{}
	}

	provider := string(engine.Provider())
	s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        provider,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, breakerStateValue(to))
			s.logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Analytics circuit breaker state changed")
		},
	})
	metrics.SetCircuitBreakerState(provider, metrics.BreakerClosed)
	return s
}

func breakerStateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}

// BreakerState returns the current circuit breaker state ("closed", "open", "half-open").
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}

// Provider implements Backend.
func (s *Service) Provider() models.StorageProvider { return s.engine.Provider() }

// ProviderConfig implements Backend.
func (s *Service) ProviderConfig() models.StorageProviderConfig { return s.engine.ProviderConfig() }

// Configure implements Backend. Provisioning errors are returned, not masked.
func (s *Service) Configure(ctx context.Context) error {
	if err := s.engine.Configure(ctx); err != nil {
		return fmt.Errorf("configure %s backend: %w", s.engine.Provider(), err)
	}
	return nil
}

// Close implements Backend.
func (s *Service) Close(ctx context.Context) error {
	return s.engine.Close(ctx)
}

// prepare turns a caller request into an engine Query. Every error it returns
// is a configuration error.
func (s *Service) prepare(op string, entity models.TrackedEntity, opts models.QueryOptions, bucketed bool) (Query, error) {
	unit, err := ResolveUnit(entity)
	if err != nil {
		return Query{}, err
	}
	opts, err = PrepareOptions(opts, s.cfg.DefaultLimit)
	if err != nil {
		return Query{}, err
	}
	var format string
	if bucketed {
		if format, err = FormatForTimeSlice(opts.TimeSlice); err != nil {
			return Query{}, err
		}
	}
	f := opts.FilterOptions
	return Query{
		Operation: op,
		Unit:      unit,
		Filter:    f,
		Window:    partitionWindow(f.From, f.To, s.cfg.Now(), s.cfg.BufferWindow),
		Format:    format,
		Limit:     opts.Limit,
	}, nil
}

// execute runs fn through the breaker and converts any error into empty.
func execute[T any](ctx context.Context, s *Service, q Query, empty T, fn func(ctx context.Context) (T, error)) T {
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	provider := s.engine.Provider()
	start := time.Now()
	out, err := s.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	elapsed := time.Since(start)
	metrics.ObserveQuery(string(provider), q.Operation, elapsed)

	if err != nil {
		s.observer.ObserveFailure(ctx, Failure{
			Provider:  provider,
			Operation: q.Operation,
			Unit:      q.Unit,
			Duration:  elapsed,
			Err:       err,
		})
		return empty
	}
	v, ok := out.(T)
	if !ok {
		return empty
	}
	return v
}

func (s *Service) groups(ctx context.Context, q Query, fn func(ctx context.Context) ([]models.GroupingCount, error)) []models.GroupingCount {
	rows := execute(ctx, s, q, []models.GroupingCount{}, fn)
	if rows == nil {
		rows = []models.GroupingCount{}
	}
	return rows
}

func (s *Service) usage(ctx context.Context, q Query) []models.UsageCount {
	rows := execute(ctx, s, q, []models.UsageCount{}, func(ctx context.Context) ([]models.UsageCount, error) {
		return s.engine.UsageBuckets(ctx, q)
	})
	if rows == nil {
		rows = []models.UsageCount{}
	}
	return rows
}

type sessionStats struct {
	millis float64
	ok     bool
}

// AverageSessionDuration implements Backend. The result is in whole seconds.
func (s *Service) AverageSessionDuration(ctx context.Context, app models.Application, opts models.QueryOptions) (models.ScalarResult, error) {
	q, err := s.prepare(OpAverageSessionDuration, app, opts, false)
	if err != nil {
		return models.ScalarResult{}, err
	}
	stats := execute(ctx, s, q, sessionStats{}, func(ctx context.Context) (sessionStats, error) {
		millis, ok, err := s.engine.SessionDurationMillis(ctx, q)
		return sessionStats{millis: millis, ok: ok}, err
	})
	var seconds int64
	if stats.ok {
		seconds = RoundSeconds(stats.millis)
	}
	return Wrap(seconds, q.Filter), nil
}

type bounceStats struct {
	bounced int64
	total   int64
}

// BounceRatio implements Backend.
//
// The ratio is rounded to the nearest integer, so the result is 0 or 1.
// Callers that need a fraction must compute it from per-user counts.
func (s *Service) BounceRatio(ctx context.Context, app models.Application, opts models.QueryOptions) (models.ScalarResult, error) {
	q, err := s.prepare(OpBounceRatio, app, opts, false)
	if err != nil {
		return models.ScalarResult{}, err
	}
	stats := execute(ctx, s, q, bounceStats{}, func(ctx context.Context) (bounceStats, error) {
		bounced, total, err := s.engine.BounceCounts(ctx, q)
		return bounceStats{bounced: bounced, total: total}, err
	})
	return Wrap(RoundRatio(stats.bounced, stats.total), q.Filter), nil
}

// EventRequests implements Backend.
func (s *Service) EventRequests(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	q, err := s.prepare(OpEventRequests, app, opts, true)
	if err != nil {
		return models.GroupingResult{}, err
	}
	rows := s.groups(ctx, q, func(ctx context.Context) ([]models.GroupingCount, error) {
		return s.engine.TimeBuckets(ctx, q)
	})
	return Wrap(rows, q.Filter), nil
}

// Referrers implements Backend. Each user counts toward the referrer of their earliest event.
func (s *Service) Referrers(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	q, err := s.prepare(OpReferrers, app, opts, false)
	if err != nil {
		return models.GroupingResult{}, err
	}
	rows := s.groups(ctx, q, func(ctx context.Context) ([]models.GroupingCount, error) {
		return s.engine.GroupByAttribution(ctx, q, FieldReferrer, false)
	})
	return Wrap(rows, q.Filter), nil
}

// ReferrerTLDs implements Backend. Rows are keyed by registrable domain.
func (s *Service) ReferrerTLDs(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	q, err := s.prepare(OpReferrerTLDs, app, opts, false)
	if err != nil {
		return models.GroupingResult{}, err
	}
	hostQuery := q
	hostQuery.Limit = 0
	hosts := s.groups(ctx, q, func(ctx context.Context) ([]models.GroupingCount, error) {
		return s.engine.GroupByReferrerHost(ctx, hostQuery)
	})
	return Wrap(MergeByRegistrableDomain(hosts, q.Limit), q.Filter), nil
}

// UTMs implements Backend.
func (s *Service) UTMs(ctx context.Context, app models.Application, dim models.UTMDimension, opts models.QueryOptions) (models.GroupingResult, error) {
	q, err := s.prepare(OpUTMs, app, opts, false)
	if err != nil {
		return models.GroupingResult{}, err
	}
	field, err := UTMField(dim)
	if err != nil {
		return models.GroupingResult{}, err
	}
	return s.groupByField(ctx, q, field), nil
}

// Pages implements Backend. PageModeAll groups every page view; Entry and Exit
// attribute each user to their earliest or latest page.
func (s *Service) Pages(ctx context.Context, app models.Application, mode models.PageMode, opts models.QueryOptions) (models.GroupingResult, error) {
	q, err := s.prepare(OpPages, app, opts, false)
	if err != nil {
		return models.GroupingResult{}, err
	}
	switch mode {
	case models.PageModeAll:
		return s.groupByField(ctx, q, FieldPage), nil
	case models.PageModeEntry, models.PageModeExit:
		last := mode == models.PageModeExit
		rows := s.groups(ctx, q, func(ctx context.Context) ([]models.GroupingCount, error) {
			return s.engine.GroupByAttribution(ctx, q, FieldPage, last)
		})
		return Wrap(rows, q.Filter), nil
	default:
		return models.GroupingResult{}, fmt.Errorf("%w: %q", ErrUnsupportedPageMode, mode)
	}
}

// Countries implements Backend.
func (s *Service) Countries(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return s.simpleGrouping(ctx, OpCountries, app, opts, FieldCountry)
}

// EventGroups implements Backend.
func (s *Service) EventGroups(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return s.simpleGrouping(ctx, OpEventGroups, app, opts, FieldEventGroup)
}

// Events implements Backend.
func (s *Service) Events(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return s.simpleGrouping(ctx, OpEvents, app, opts, FieldEvent)
}

// Browsers implements Backend.
func (s *Service) Browsers(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return s.simpleGrouping(ctx, OpBrowsers, app, opts, FieldBrowser)
}

// OperatingSystems implements Backend.
func (s *Service) OperatingSystems(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	return s.simpleGrouping(ctx, OpOperatingSystems, app, opts, FieldOS)
}

// Devices implements Backend.
func (s *Service) Devices(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error) {
	q, err := s.prepare(OpDevices, app, opts, false)
	if err != nil {
		return models.GroupingResult{}, err
	}
	rows := s.groups(ctx, q, func(ctx context.Context) ([]models.GroupingCount, error) {
		return s.engine.GroupByDevice(ctx, q)
	})
	return Wrap(rows, q.Filter), nil
}

func (s *Service) simpleGrouping(ctx context.Context, op string, app models.Application, opts models.QueryOptions, field string) (models.GroupingResult, error) {
	q, err := s.prepare(op, app, opts, false)
	if err != nil {
		return models.GroupingResult{}, err
	}
	return s.groupByField(ctx, q, field), nil
}

func (s *Service) groupByField(ctx context.Context, q Query, field string) models.GroupingResult {
	rows := s.groups(ctx, q, func(ctx context.Context) ([]models.GroupingCount, error) {
		return s.engine.GroupByField(ctx, q, field)
	})
	return Wrap(rows, q.Filter)
}

// Usage implements Backend.
func (s *Service) Usage(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	q, err := s.prepare(OpUsage, endpoint, opts, true)
	if err != nil {
		return models.UsageResult{}, err
	}
	return Wrap(s.usage(ctx, q), q.Filter), nil
}

// Requests implements Backend. Only the Requests counter is populated.
func (s *Service) Requests(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	q, err := s.prepare(OpRequests, endpoint, opts, true)
	if err != nil {
		return models.UsageResult{}, err
	}
	rows := s.usage(ctx, q)
	for i := range rows {
		rows[i].Bytes = 0
	}
	return Wrap(rows, q.Filter), nil
}

// Bytes implements Backend. Only the Bytes counter is populated.
func (s *Service) Bytes(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error) {
	q, err := s.prepare(OpBytes, endpoint, opts, true)
	if err != nil {
		return models.UsageResult{}, err
	}
	rows := s.usage(ctx, q)
	for i := range rows {
		rows[i].Requests = 0
	}
	return Wrap(rows, q.Filter), nil
}
