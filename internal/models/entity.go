// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package models

// EntityKind identifies the variant of a tracked entity.
type EntityKind string

const (
	// EntityKindApplication is a tracked application (page views, custom events).
	EntityKindApplication EntityKind = "application"

	// EntityKindIngestEndpoint is a tracked ingest endpoint (request/byte usage records).
	EntityKindIngestEndpoint EntityKind = "ingest_endpoint"
)

// TrackedEntity is anything whose events are aggregated by an analytics backend.
//
// The usage-binding ID links the entity to the physical storage unit (table or
// collection) holding its rows. An entity without a binding cannot be queried.
type TrackedEntity interface {
	Kind() EntityKind
	EntityID() string
	OrganizationID() string
	UsageBinding() (string, bool)
}

// Application is a tracked application. Application-scoped metrics (sessions,
// referrers, pages, devices, ...) accept only this variant.
type Application struct {
	ID             string `json:"id" koanf:"id"`
	OrgID          string `json:"org_id" koanf:"org_id"`
	UsageBindingID string `json:"usage_binding_id,omitempty" koanf:"usage_binding"`
}

// Kind implements TrackedEntity.
func (a Application) Kind() EntityKind { return EntityKindApplication }

// EntityID implements TrackedEntity.
func (a Application) EntityID() string { return a.ID }

// OrganizationID implements TrackedEntity.
func (a Application) OrganizationID() string { return a.OrgID }

// UsageBinding implements TrackedEntity.
func (a Application) UsageBinding() (string, bool) {
	return a.UsageBindingID, a.UsageBindingID != ""
}

// IngestEndpoint is a tracked ingest endpoint. Usage metrics accept only this variant.
type IngestEndpoint struct {
	ID             string `json:"id" koanf:"id"`
	OrgID          string `json:"org_id" koanf:"org_id"`
	UsageBindingID string `json:"usage_binding_id,omitempty" koanf:"usage_binding"`
}

// Kind implements TrackedEntity.
func (e IngestEndpoint) Kind() EntityKind { return EntityKindIngestEndpoint }

// EntityID implements TrackedEntity.
func (e IngestEndpoint) EntityID() string { return e.ID }

// OrganizationID implements TrackedEntity.
func (e IngestEndpoint) OrganizationID() string { return e.OrgID }

// UsageBinding implements TrackedEntity.
func (e IngestEndpoint) UsageBinding() (string, bool) {
	return e.UsageBindingID, e.UsageBindingID != ""
}
