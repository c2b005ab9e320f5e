// Package testutil provides shared test infrastructure: a throwaway Postgres
// for gateway integration tests, a quiet logger, and an in-memory gateway
// with a small, hand-checked dataset.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ashita-ai/blueline/internal/storage"
	"github.com/ashita-ai/blueline/migrations"
)

const (
	pgImage    = "postgres:17-alpine"
	pgUser     = "blueline"
	pgPassword = "blueline"
	pgDatabase = "blueline"
)

// Postgres is a disposable Postgres container holding the four source tables.
type Postgres struct {
	container testcontainers.Container
	DSN       string
}

// StartPostgres starts a container and waits until it accepts connections.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pgImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			// The server logs readiness twice: once for the init run, once
			// for the real start.
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("testutil: start postgres: %w", err)
	}

	dsn, err := dsnFor(ctx, container)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, err
	}
	return &Postgres{container: container, DSN: dsn}, nil
}

// MustStartPostgres is StartPostgres for TestMain: it exits the process on
// failure.
func MustStartPostgres() *Postgres {
	pg, err := StartPostgres(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return pg
}

func dsnFor(ctx context.Context, c testcontainers.Container) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("testutil: container host: %w", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("testutil: container port: %w", err)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgUser, pgPassword, host, port.Port(), pgDatabase), nil
}

// NewDB connects a storage.DB and creates the source tables.
func (p *Postgres) NewDB(ctx context.Context, logger *slog.Logger) (*storage.DB, error) {
	db, err := storage.New(ctx, p.DSN, 4, logger)
	if err != nil {
		return nil, fmt.Errorf("testutil: connect: %w", err)
	}
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("testutil: migrate: %w", err)
	}
	return db, nil
}

// Stop removes the container.
func (p *Postgres) Stop() {
	_ = p.container.Terminate(context.Background())
}

// TestLogger returns a logger that only prints warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
