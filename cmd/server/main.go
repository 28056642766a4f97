// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/tomtom215/eventlens/internal/api"
	"github.com/tomtom215/eventlens/internal/backend"
	"github.com/tomtom215/eventlens/internal/config"
	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/metrics"
	"github.com/tomtom215/eventlens/internal/models"
	"github.com/tomtom215/eventlens/internal/supervisor"
	"github.com/tomtom215/eventlens/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := backend.New(ctx, cfg, nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create analytics backend")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := b.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("Error closing analytics backend")
		}
	}()

	providerCfg := b.ProviderConfig()
	logging.Info().
		Str("version", version).
		Str("provider", string(providerCfg.Provider)).
		Interface("storage", providerCfg.Config).
		Int("entities", len(cfg.Entities)).
		Msg("Starting Eventlens")
	metrics.AppInfo.WithLabelValues(version, string(providerCfg.Provider)).Set(1)

	applications := cfg.Applications()
	endpoints := cfg.IngestEndpoints()

	handler := api.NewHandler(b, applications, endpoints)
	router := api.NewRouter(handler, &api.ChiMiddlewareConfig{
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
	})

	server := &http.Server{
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	var units []models.TrackedEntity
	if cfg.Analytics.ProvisionUnits {
		units = provisionList(applications, endpoints)
	}
	tree.AddStorageService(services.NewConfigureService(b, units...))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Eventlens stopped")
}

// provisionList orders entities by kind then ID so startup logs are stable.
func provisionList(applications map[string]models.Application, endpoints map[string]models.IngestEndpoint) []models.TrackedEntity {
	out := make([]models.TrackedEntity, 0, len(applications)+len(endpoints))
	for _, app := range applications {
		out = append(out, app)
	}
	for _, ep := range endpoints {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind() != out[j].Kind() {
			return out[i].Kind() < out[j].Kind()
		}
		return out[i].EntityID() < out[j].EntityID()
	})
	return out
}
