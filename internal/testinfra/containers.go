// Package testinfra starts throwaway store servers for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "csvasset"
	PostgresPassword = "csvasset"
	PostgresDB       = "csvasset"

	MongoImage = "mongo:7"
)

// Server is a running container and the address stores connect to.
type Server struct {
	testcontainers.Container
	ConnString string
}

// StartPostgres runs a PostgreSQL container for the pgstore tests.
// The connection string uses sslmode=disable.
func StartPostgres(ctx context.Context) (*Server, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			// The server logs readiness twice: once for the init run, once for real.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	return &Server{Container: ctr, ConnString: connStr}, nil
}

// StartMongo runs a standalone MongoDB container for the mongostore tests.
func StartMongo(ctx context.Context) (*Server, error) {
	ctr, err := mongodb.Run(ctx, MongoImage)
	if err != nil {
		return nil, fmt.Errorf("start mongo: %w", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("mongo connection string: %w", err)
	}
	return &Server{Container: ctr, ConnString: uri}, nil
}
