// Package storage provides the PostgreSQL gateway for blueline.
//
// It manages the connection pool, reads the four source tables
// (officers_real, districts, compensation, incidents) as loosely keyed rows,
// and normalizes them into typed records at the boundary. Filtered queries
// used by the agent tools live in queries.go.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"

	"github.com/ashita-ai/blueline/internal/telemetry"
)

// DB wraps a pgxpool.Pool against the hosted Postgres instance.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a new DB with a connection pool and verifies connectivity.
func New(ctx context.Context, dsn string, maxConns int32, logger *slog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse DSN: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping pool: %w", err)
	}

	return &DB{pool: pool, logger: logger}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping checks connectivity to the database.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// RegisterPoolMetrics publishes pool gauges. Call after telemetry.Init.
func (db *DB) RegisterPoolMetrics() error {
	meter := telemetry.Meter("blueline/storage")
	total, err := meter.Int64ObservableGauge("db.pool.connections.total",
		metric.WithDescription("Open connections in the pool"))
	if err != nil {
		return fmt.Errorf("storage: register pool metrics: %w", err)
	}
	idle, err := meter.Int64ObservableGauge("db.pool.connections.idle",
		metric.WithDescription("Idle connections in the pool"))
	if err != nil {
		return fmt.Errorf("storage: register pool metrics: %w", err)
	}
	acquired, err := meter.Int64ObservableGauge("db.pool.connections.acquired",
		metric.WithDescription("Connections currently checked out"))
	if err != nil {
		return fmt.Errorf("storage: register pool metrics: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stat := db.pool.Stat()
		o.ObserveInt64(total, int64(stat.TotalConns()))
		o.ObserveInt64(idle, int64(stat.IdleConns()))
		o.ObserveInt64(acquired, int64(stat.AcquiredConns()))
		return nil
	}, total, idle, acquired)
	if err != nil {
		return fmt.Errorf("storage: register pool metrics: %w", err)
	}
	return nil
}
