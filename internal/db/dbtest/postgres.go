//go:build integration

// Package dbtest starts a throwaway Postgres for integration tests and
// applies the embedded migrations to it.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	database "github.com/FACorreiaa/trip-planner/internal/db"
	"github.com/FACorreiaa/trip-planner/internal/pkg/config"
)

const (
	image    = "postgres:16-alpine"
	user     = "postgres"
	password = "postgres"
	dbName   = "trip_planner"
)

// Postgres is a running container with a migrated pool attached.
type Postgres struct {
	Pool      *pgxpool.Pool
	container testcontainers.Container
}

// Start boots the container, connects and migrates. Call Stop when done.
func Start(ctx context.Context) (*Postgres, error) {
	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": password,
			"POSTGRES_DB":       dbName,
		},
		// the entrypoint restarts the server once after init
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	cfg := &config.Config{Repositories: config.RepositoriesConfig{Postgres: config.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		DB:       dbName,
		Username: user,
		Password: password,
		SSLMode:  "disable",
		MaxConns: 5,
	}}}

	logger := zap.NewNop()
	dbCfg, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err = database.RunMigrations(dbCfg.ConnectionURL, logger); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	pool, err := database.Init(ctx, dbCfg, logger)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &Postgres{Pool: pool, container: container}, nil
}

// Stop closes the pool and removes the container.
func (p *Postgres) Stop(ctx context.Context) error {
	p.Pool.Close()
	return p.container.Terminate(ctx)
}

// Reset empties every table. Child rows go with their parents.
func (p *Postgres) Reset(t *testing.T) {
	t.Helper()
	if _, err := p.Pool.Exec(context.Background(), "TRUNCATE users, places CASCADE"); err != nil {
		t.Fatalf("reset database: %v", err)
	}
}

// CreateUser inserts a bare owner row and returns its id.
func (p *Postgres) CreateUser(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := p.Pool.Exec(context.Background(),
		`INSERT INTO users (id, username, email, hashed_password) VALUES ($1, $2, $3, 'x')`,
		id, name, name+"@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}
