// Package testing provides helpers shared by store integration tests.
package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vvka-141/csvasset/internal/testinfra"
)

// Environment variables that point integration tests at existing servers.
const (
	EnvPostgresConn = "CSVASSET_TEST_PG"
	EnvMongoURI     = "CSVASSET_TEST_MONGO"
)

// sharedServer starts one container per test binary on first use.
type sharedServer struct {
	once  sync.Once
	start func(context.Context) (*testinfra.Server, error)
	conn  string
	err   error
}

func (s *sharedServer) get() (string, error) {
	s.once.Do(func() {
		srv, err := s.start(context.Background())
		if err != nil {
			s.err = err
			return
		}
		s.conn = srv.ConnString
	})
	return s.conn, s.err
}

var (
	postgresServer = &sharedServer{start: testinfra.StartPostgres}
	mongoServer    = &sharedServer{start: testinfra.StartMongo}
)

// require returns the address from env, or from the shared container.
func require(t *testing.T, env string, srv *sharedServer) string {
	t.Helper()

	SkipIfShort(t)
	if conn := os.Getenv(env); conn != "" {
		return conn
	}
	conn, err := srv.get()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", env, err)
	}
	return conn
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase returns a PostgreSQL connection string for integration
// tests. CSVASSET_TEST_PG wins; otherwise a shared container is started.
// The test is skipped in short mode or when Docker is unavailable.
func RequireDatabase(t *testing.T) string {
	t.Helper()
	return require(t, EnvPostgresConn, postgresServer)
}

// RequireMongo is RequireDatabase for MongoDB, using CSVASSET_TEST_MONGO.
func RequireMongo(t *testing.T) string {
	t.Helper()
	return require(t, EnvMongoURI, mongoServer)
}
