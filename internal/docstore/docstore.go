// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/models"
)

// Config configures the MongoDB engine.
type Config struct {
	URI      string
	Database string

	// ConnectTimeout bounds establishing a connection. Defaults to 10s.
	ConnectTimeout time.Duration

	// ServerSelectionTimeout bounds finding a usable server. Defaults to 5s.
	ServerSelectionTimeout time.Duration
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.URI == "" {
		return errors.New("mongodb uri is required")
	}
	if c.Database == "" {
		return errors.New("mongodb database is required")
	}
	return nil
}

// Engine is the MongoDB implementation of analytics.Engine.
type Engine struct {
	cfg    Config
	client *analytics.Lazy[*mongo.Client]
	logger zerolog.Logger
}

var _ analytics.Engine = (*Engine)(nil)

// New returns an Engine. No connection is made until the first query.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ServerSelectionTimeout <= 0 {
		cfg.ServerSelectionTimeout = 5 * time.Second
	}
	e := &Engine{
		cfg:    cfg,
		logger: logging.WithComponent("docstore"),
	}
	e.client = analytics.NewLazy(e.connect)
	return e, nil
}

func (e *Engine) connect(ctx context.Context) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(e.cfg.URI).
		SetConnectTimeout(e.cfg.ConnectTimeout).
		SetServerSelectionTimeout(e.cfg.ServerSelectionTimeout).
		SetAppName("eventlens")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.PrimaryPreferred()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	e.logger.Info().Str("database", e.cfg.Database).Msg("MongoDB client connected")
	return client, nil
}

// collection returns the collection backing unit.
func (e *Engine) collection(ctx context.Context, unit string) (*mongo.Collection, error) {
	client, err := e.client.Get(ctx)
	if err != nil {
		return nil, err
	}
	return client.Database(e.cfg.Database).Collection(unit), nil
}

// Provider implements analytics.Engine.
func (e *Engine) Provider() models.StorageProvider { return models.StorageProviderMongoDB }

// ProviderConfig implements analytics.Engine. Credentials in the URI are redacted.
func (e *Engine) ProviderConfig() models.StorageProviderConfig {
	return models.StorageProviderConfig{
		Provider: models.StorageProviderMongoDB,
		Config: map[string]any{
			"uri":                      logging.RedactURI(e.cfg.URI),
			"database":                 e.cfg.Database,
			"connect_timeout":          e.cfg.ConnectTimeout.String(),
			"server_selection_timeout": e.cfg.ServerSelectionTimeout.String(),
		},
		Hint: fmt.Sprintf("Events are read from collection %s<usage_binding> in database %s. "+
			"Index {ts: 1} and {partition_date: 1, ts: 1}; leave partition_date null while rows are buffered.",
			analytics.UnitPrefix, e.cfg.Database),
	}
}

// Configure implements analytics.Engine. MongoDB creates databases on first
// write, so this only verifies the server is reachable.
func (e *Engine) Configure(ctx context.Context) error {
	client, err := e.client.Get(ctx)
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.PrimaryPreferred())
}

// ProvisionUnit creates the collection for a storage unit and its indexes.
func (e *Engine) ProvisionUnit(ctx context.Context, unit string) error {
	client, err := e.client.Get(ctx)
	if err != nil {
		return err
	}
	db := client.Database(e.cfg.Database)

	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: unit}})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) == 0 {
		if err := db.CreateCollection(ctx, unit); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", unit, err)
		}
	}

	_, err = db.Collection(unit).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: analytics.FieldTimestamp, Value: 1}}},
		{Keys: bson.D{{Key: analytics.FieldPartitionDate, Value: 1}, {Key: analytics.FieldTimestamp, Value: 1}}},
		{Keys: bson.D{{Key: analytics.FieldUserHash, Value: 1}, {Key: analytics.FieldTimestamp, Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", unit, err)
	}
	return nil
}

// Close implements analytics.Engine.
func (e *Engine) Close(ctx context.Context) error {
	return e.client.Reset(func(c *mongo.Client) error { return c.Disconnect(ctx) })
}
