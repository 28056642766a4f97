// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"context"
	"time"

	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/metrics"
	"github.com/tomtom215/eventlens/internal/models"
)

// Failure describes an execution error that was converted to an empty result.
type Failure struct {
	Provider  models.StorageProvider
	Operation string
	Unit      string
	Duration  time.Duration
	Err       error
}

// FailureObserver is notified of every masked execution failure.
type FailureObserver interface {
	ObserveFailure(ctx context.Context, f Failure)
}

// FailureObserverFunc adapts a function to FailureObserver.
type FailureObserverFunc func(ctx context.Context, f Failure)

// ObserveFailure implements FailureObserver.
func (fn FailureObserverFunc) ObserveFailure(ctx context.Context, f Failure) { fn(ctx, f) }

// LogObserver logs masked failures and counts them in
// eventlens_masked_failures_total.
type LogObserver struct{}

// ObserveFailure implements FailureObserver.
func (LogObserver) ObserveFailure(ctx context.Context, f Failure) {
	metrics.RecordMaskedFailure(string(f.Provider), f.Operation)
	logging.CtxErr(ctx, f.Err).
		Str("backend", string(f.Provider)).
		Str("operation", f.Operation).
		Str("unit", f.Unit).
		Dur("duration", f.Duration).
		Msg("Analytics query failed, returning empty result")
}

// MultiObserver fans a failure out to several observers.
type MultiObserver []FailureObserver

// ObserveFailure implements FailureObserver.
func (m MultiObserver) ObserveFailure(ctx context.Context, f Failure) {
	for _, o := range m {
		if o != nil {
			o.ObserveFailure(ctx, f)
		}
	}
}
