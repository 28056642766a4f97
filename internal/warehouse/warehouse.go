// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/eventlens/internal/analytics"
	"github.com/tomtom215/eventlens/internal/logging"
	"github.com/tomtom215/eventlens/internal/models"
)

// Config configures the DuckDB engine.
type Config struct {
	// Path is the database file, or ":memory:".
	Path string

	// Dataset is the schema holding one table per storage unit.
	Dataset string

	// MaxMemory is DuckDB's memory limit, e.g. "2GB".
	MaxMemory string

	// Threads defaults to runtime.NumCPU().
	Threads int
}

var datasetPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("warehouse path is required")
	}
	if !datasetPattern.MatchString(c.Dataset) {
		return fmt.Errorf("warehouse dataset %q must match %s", c.Dataset, datasetPattern.String())
	}
	return nil
}

// Engine is the DuckDB implementation of analytics.Engine.
type Engine struct {
	cfg    Config
	conn   *analytics.Lazy[*sql.DB]
	logger zerolog.Logger
}

var _ analytics.Engine = (*Engine)(nil)

// New returns an Engine. The connection is opened on first use.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = "1GB"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	e := &Engine{
		cfg:    cfg,
		logger: logging.WithComponent("warehouse"),
	}
	e.conn = analytics.NewLazy(e.open)
	return e, nil
}

// open establishes the connection pool and verifies it.
func (e *Engine) open(ctx context.Context) (*sql.DB, error) {
	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		e.cfg.Path, e.cfg.Threads, e.cfg.MaxMemory)

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	db.SetMaxOpenConns(e.cfg.Threads)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(5 * time.Minute)

	e.logger.Info().
		Str("path", e.cfg.Path).
		Str("dataset", e.cfg.Dataset).
		Int("threads", e.cfg.Threads).
		Msg("DuckDB connection opened")
	return db, nil
}

// DB returns the shared connection pool, opening it if needed.
func (e *Engine) DB(ctx context.Context) (*sql.DB, error) {
	return e.conn.Get(ctx)
}

// Provider implements analytics.Engine.
func (e *Engine) Provider() models.StorageProvider { return models.StorageProviderDuckDB }

// ProviderConfig implements analytics.Engine.
func (e *Engine) ProviderConfig() models.StorageProviderConfig {
	return models.StorageProviderConfig{
		Provider: models.StorageProviderDuckDB,
		Config: map[string]any{
			"path":       e.cfg.Path,
			"dataset":    e.cfg.Dataset,
			"max_memory": e.cfg.MaxMemory,
			"threads":    e.cfg.Threads,
		},
		Hint: fmt.Sprintf("Events are read from %s.%s<usage_binding>. The ingestion service must write "+
			"ts, user_hash and partition_date (NULL while rows are in the streaming buffer).",
			e.cfg.Dataset, analytics.UnitPrefix),
	}
}

// Configure implements analytics.Engine by creating the dataset schema.
func (e *Engine) Configure(ctx context.Context) error {
	db, err := e.DB(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(e.cfg.Dataset)); err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", e.cfg.Dataset, err)
	}
	return nil
}

// ProvisionUnit creates the table for a storage unit if it does not exist.
// Row writing belongs to the ingestion service; this only lays out the schema.
func (e *Engine) ProvisionUnit(ctx context.Context, unit string) error {
	db, err := e.DB(ctx)
	if err != nil {
		return err
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMP NOT NULL,
		partition_date DATE,
		user_hash VARCHAR NOT NULL,
		event VARCHAR,
		event_group VARCHAR,
		revision_id VARCHAR,
		environment_id VARCHAR,
		utm_source VARCHAR,
		utm_medium VARCHAR,
		utm_campaign VARCHAR,
		utm_term VARCHAR,
		utm_content VARCHAR,
		user_country VARCHAR,
		referrer_url VARCHAR,
		page_url VARCHAR,
		browser_name VARCHAR,
		os_name VARCHAR,
		device_name VARCHAR,
		requests BIGINT,
		bytes BIGINT
	)`, e.table(unit))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to provision unit %s: %w", unit, err)
	}
	return nil
}

// Close implements analytics.Engine.
func (e *Engine) Close(context.Context) error {
	return e.conn.Reset(func(db *sql.DB) error { return db.Close() })
}

// table returns the fully qualified, quoted table name of a unit.
func (e *Engine) table(unit string) string {
	return quoteIdent(e.cfg.Dataset) + "." + quoteIdent(unit)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqlLiteral renders a constant string as a SQL literal. Only used for values
// drawn from fixed sets (format patterns, mobile signals, the host pattern).
func sqlLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
