// Package pgstore keeps records in a PostgreSQL table keyed by location,
// with field values in a jsonb column.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/csvasset/internal/logging"
	"github.com/vvka-141/csvasset/internal/retry"
	"github.com/vvka-141/csvasset/internal/store"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Pool settings. An import holds one connection for its commit.
const (
	DefaultMaxConns        = 2
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 5 * time.Minute
	DefaultConnectRetries  = 3
)

// Store is a csvasset.Store backed by PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	table  string
	batch  *store.Batch
	logger csvasset.Logger
}

// Connect opens a pool for connString, retrying transient failures, and
// creates the record table if needed.
func Connect(ctx context.Context, connString, table string, logger csvasset.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if table == "" {
		table = store.DefaultTable
	}
	if err := store.ValidateIdentifier(table); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime

	policy := retry.NewPolicy(retry.NewPostgresClassifier(), retry.NewBackoff(DefaultConnectRetries)).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("Postgres not ready (attempt %d): %v; retrying in %s", attempt+1, err, delay)
		})

	var pool *pgxpool.Pool
	err = policy.Do(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d/%s: %w",
			poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port, poolConfig.ConnConfig.Database, err)
	}

	s := &Store{
		pool:   pool,
		table:  table,
		batch:  store.NewBatch(),
		logger: logger,
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Verbose("Connected to postgres store (table %s)", table)
	return s, nil
}

var (
	_ csvasset.Store   = (*Store)(nil)
	_ csvasset.Counter = (*Store)(nil)
)

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			location text PRIMARY KEY,
			type text NOT NULL,
			fields jsonb NOT NULL DEFAULT '{}'::jsonb,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_type_idx ON %s (type)`, s.table, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_folders (path text PRIMARY KEY)`, s.table),
	}
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) EnsureFolder(ctx context.Context, folder string) error {
	q := fmt.Sprintf(`INSERT INTO %s_folders (path) VALUES ($1) ON CONFLICT DO NOTHING`, s.table)
	if _, err := s.pool.Exec(ctx, q, folder); err != nil {
		return fmt.Errorf("register folder %s: %w", folder, err)
	}
	return nil
}

func (s *Store) LoadIfExists(ctx context.Context, location string) (*csvasset.Record, error) {
	if rec, ok := s.batch.Get(location); ok {
		return rec, nil
	}

	var typeID, raw string
	q := fmt.Sprintf(`SELECT type, fields::text FROM %s WHERE location = $1`, s.table)
	err := s.pool.QueryRow(ctx, q, location).Scan(&typeID, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}

	fields, err := store.DecodeFields([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	rec := csvasset.NewRecord(csvasset.TypeID(typeID))
	rec.Location = location
	rec.Fields = fields
	s.batch.Track(rec)
	return rec, nil
}

func (s *Store) CreateBlank(typeID csvasset.TypeID) *csvasset.Record {
	return csvasset.NewRecord(typeID)
}

func (s *Store) RegisterNew(_ context.Context, rec *csvasset.Record, location string) error {
	return s.batch.Add(rec, location)
}

func (s *Store) MarkDirty(rec *csvasset.Record) {
	s.batch.MarkDirty(rec)
}

// CommitBatch sends every pending upsert as one pgx batch inside a transaction.
func (s *Store) CommitBatch(ctx context.Context) error {
	pending := s.batch.Pending()
	if len(pending) == 0 {
		return nil
	}

	q := fmt.Sprintf(`INSERT INTO %s (location, type, fields, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (location) DO UPDATE SET
			type = EXCLUDED.type,
			fields = EXCLUDED.fields,
			updated_at = now()`, s.table)

	batch := &pgx.Batch{}
	for _, p := range pending {
		data, err := store.EncodeFields(p.Record.Fields)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Record.Location, err)
		}
		batch.Queue(q, p.Record.Location, string(p.Record.Type), string(data))
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for _, p := range pending {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("upsert %s: %w", p.Record.Location, err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return err
	}

	for _, p := range pending {
		s.batch.Committed(p.Record)
	}
	s.logger.Verbose("Upserted %d row(s) into %s", len(pending), s.table)
	return nil
}

// RefreshIndex updates planner statistics for the record table.
func (s *Store) RefreshIndex(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`ANALYZE %s`, s.table)); err != nil {
		return fmt.Errorf("analyze %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Count returns the number of stored records of typeID, or of all types
// when typeID is empty.
func (s *Store) Count(ctx context.Context, typeID csvasset.TypeID) (int, error) {
	var n int
	var err error
	if typeID == "" {
		err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&n)
	} else {
		err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s WHERE type = $1`, s.table), string(typeID)).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
