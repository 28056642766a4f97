// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/models"
)

// Configurer is the provisioning subset of analytics.Backend.
type Configurer interface {
	Provider() models.StorageProvider
	Configure(ctx context.Context) error
}

// UnitProvisioner creates the storage unit of one tracked entity.
type UnitProvisioner interface {
	ProvisionUnit(ctx context.Context, entity models.TrackedEntity) error
}

// ConfigureService provisions backend-side resources once. A failed attempt
// is returned to the supervisor, which retries it with backoff; success ends
// the service for good. Metric routes keep serving meanwhile: until the store
// is reachable they answer with empty results.
type ConfigureService struct {
	backend  Configurer
	entities []models.TrackedEntity
	done     chan struct{}
}

// NewConfigureService creates a ConfigureService for backend. When entities
// are given and backend implements UnitProvisioner, each entity's unit is
// created after Configure. Entities without a usage binding are skipped.
func NewConfigureService(backend Configurer, entities ...models.TrackedEntity) *ConfigureService {
	return &ConfigureService{backend: backend, entities: entities, done: make(chan struct{})}
}

// Serve implements suture.Service.
func (c *ConfigureService) Serve(ctx context.Context) error {
	provider := string(c.backend.Provider())
	if err := c.backend.Configure(ctx); err != nil {
		logging.CtxWarn(ctx).Err(err).Str("provider", provider).Msg("Backend provisioning failed, will retry")
		return fmt.Errorf("configure %s backend: %w", provider, err)
	}

	if p, ok := c.backend.(UnitProvisioner); ok {
		for _, entity := range c.entities {
			if _, bound := entity.UsageBinding(); !bound {
				logging.CtxWarn(ctx).Str("entity_id", entity.EntityID()).Msg("Skipping unit provisioning: no usage binding")
				continue
			}
			if err := p.ProvisionUnit(ctx, entity); err != nil {
				return fmt.Errorf("provision unit for %s %s: %w", entity.Kind(), entity.EntityID(), err)
			}
		}
	}

	logging.CtxInfo(ctx).Str("provider", provider).Int("units", len(c.entities)).Msg("Backend provisioned")
	close(c.done)
	return suture.ErrDoNotRestart
}

// Done is closed once provisioning has succeeded.
func (c *ConfigureService) Done() <-chan struct{} {
	return c.done
}

// String names the service in supervisor events.
func (c *ConfigureService) String() string {
	return "backend-configure"
}
