// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"context"
	"errors"

	"github.com/tomtom215/eventlens/internal/models"
)

// Configuration errors. They are returned to the caller and never retried.
var (
	ErrMissingUsageBinding     = errors.New("tracked entity has no usage binding")
	ErrUnsupportedTimeSlice    = errors.New("unsupported time slice")
	ErrUnsupportedUTMDimension = errors.New("unsupported utm dimension")
	ErrUnsupportedPageMode     = errors.New("unsupported page mode")
	ErrInvalidQueryOptions     = errors.New("invalid query options")
	ErrUnsupportedProvider     = errors.New("unsupported storage provider")
)

// IsConfigurationError reports whether err is one of the configuration error classes.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrMissingUsageBinding) ||
		errors.Is(err, ErrUnsupportedTimeSlice) ||
		errors.Is(err, ErrUnsupportedUTMDimension) ||
		errors.Is(err, ErrUnsupportedPageMode) ||
		errors.Is(err, ErrInvalidQueryOptions) ||
		errors.Is(err, ErrUnsupportedProvider)
}

// Operation names, used for metrics labels, log fields and cache keys.
const (
	OpAverageSessionDuration = "average_session_duration"
	OpBounceRatio            = "bounce_ratio"
	OpEventRequests          = "event_requests"
	OpReferrers              = "referrers"
	OpReferrerTLDs           = "referrer_tlds"
	OpUTMs                   = "utms"
	OpPages                  = "pages"
	OpCountries              = "countries"
	OpDevices                = "devices"
	OpEventGroups            = "event_groups"
	OpEvents                 = "events"
	OpBrowsers               = "browsers"
	OpOperatingSystems       = "operating_systems"
	OpUsage                  = "usage"
	OpRequests               = "requests"
	OpBytes                  = "bytes"
)

// Backend is the aggregation contract every storage provider satisfies.
//
// Application metrics accept only an Application and usage metrics only an
// IngestEndpoint. A nil error with an empty result means either no matching
// rows or a masked execution failure.
type Backend interface {
	Provider() models.StorageProvider
	ProviderConfig() models.StorageProviderConfig

	// Configure idempotently provisions backend-side resources.
	Configure(ctx context.Context) error

	AverageSessionDuration(ctx context.Context, app models.Application, opts models.QueryOptions) (models.ScalarResult, error)
	BounceRatio(ctx context.Context, app models.Application, opts models.QueryOptions) (models.ScalarResult, error)
	EventRequests(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)
	Referrers(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)
	ReferrerTLDs(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)
	UTMs(ctx context.Context, app models.Application, dim models.UTMDimension, opts models.QueryOptions) (models.GroupingResult, error)
	Pages(ctx context.Context, app models.Application, mode models.PageMode, opts models.QueryOptions) (models.GroupingResult, error)
	Countries(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)
	Devices(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)
	EventGroups(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)
	Events(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)
	Browsers(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)
	OperatingSystems(ctx context.Context, app models.Application, opts models.QueryOptions) (models.GroupingResult, error)

	Usage(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error)
	Requests(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error)
	Bytes(ctx context.Context, endpoint models.IngestEndpoint, opts models.QueryOptions) (models.UsageResult, error)

	// Close releases the lazily created client, if any.
	Close(ctx context.Context) error
}

// Engine is the query-construction half of a Backend.
//
// Every method receives a prepared Query and returns raw rows or an error.
// Errors are execution errors: the Service masks them. Grouping methods must
// order rows by user count descending then key ascending and honor Query.Limit
// when it is positive.
type Engine interface {
	Provider() models.StorageProvider
	ProviderConfig() models.StorageProviderConfig
	Configure(ctx context.Context) error
	Close(ctx context.Context) error

	// SessionDurationMillis returns the mean max(ts)-min(ts) in milliseconds
	// over users whose span is positive, and false when there are none.
	SessionDurationMillis(ctx context.Context, q Query) (float64, bool, error)

	// BounceCounts returns the number of users with exactly one event and the
	// number of users with any event.
	BounceCounts(ctx context.Context, q Query) (bounced, total int64, err error)

	// TimeBuckets groups events by ts formatted with Query.Format.
	TimeBuckets(ctx context.Context, q Query) ([]models.GroupingCount, error)

	// GroupByField groups events by a non-empty field value.
	GroupByField(ctx context.Context, q Query, field string) ([]models.GroupingCount, error)

	// GroupByAttribution attributes each user to the non-empty field value of
	// their earliest (or latest when last is true) event and groups users by it.
	// Event counts are the attributed users' event totals.
	GroupByAttribution(ctx context.Context, q Query, field string, last bool) ([]models.GroupingCount, error)

	// GroupByReferrerHost is GroupByAttribution over the lowercased host of
	// referrer_url, as extracted by ReferrerHostPattern.
	GroupByReferrerHost(ctx context.Context, q Query) ([]models.GroupingCount, error)

	// GroupByDevice groups events by the Mobile/Desktop label.
	GroupByDevice(ctx context.Context, q Query) ([]models.GroupingCount, error)

	// UsageBuckets sums requests and bytes by ts formatted with Query.Format,
	// ordered by key descending.
	UsageBuckets(ctx context.Context, q Query) ([]models.UsageCount, error)
}
