// Package sqlitestore keeps records in a single SQLite table keyed by
// location, with the field values stored as a JSON document.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vvka-141/csvasset/internal/logging"
	"github.com/vvka-141/csvasset/internal/store"
	"github.com/vvka-141/csvasset/pkg/csvasset"
)

// Store is a csvasset.Store backed by SQLite.
type Store struct {
	conn   *sql.DB
	table  string
	batch  *store.Batch
	logger csvasset.Logger
}

// DSN builds the modernc.org/sqlite data source for path: WAL journaling
// and a busy timeout, applied as connection pragmas.
func DSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Open opens (or creates) the SQLite file at dbPath and migrates it.
func Open(ctx context.Context, dbPath, table string, logger csvasset.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if table == "" {
		table = store.DefaultTable
	}
	if err := store.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time.
	conn.SetMaxOpenConns(1)

	s := &Store{
		conn:   conn,
		table:  table,
		batch:  store.NewBatch(),
		logger: logger,
	}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Verbose("Opened sqlite store %s (table %s)", dbPath, table)
	return s, nil
}

var (
	_ csvasset.Store   = (*Store)(nil)
	_ csvasset.Counter = (*Store)(nil)
)

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			location TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			fields TEXT NOT NULL DEFAULT '{}',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_type_idx ON %s(type)`, s.table, s.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_folders (
			path TEXT PRIMARY KEY
		)`, s.table),
	}
	for _, m := range migrations {
		if _, err := s.conn.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) EnsureFolder(ctx context.Context, folder string) error {
	q := fmt.Sprintf(`INSERT OR IGNORE INTO %s_folders (path) VALUES (?)`, s.table)
	if _, err := s.conn.ExecContext(ctx, q, folder); err != nil {
		return fmt.Errorf("register folder %s: %w", folder, err)
	}
	return nil
}

func (s *Store) LoadIfExists(ctx context.Context, location string) (*csvasset.Record, error) {
	if rec, ok := s.batch.Get(location); ok {
		return rec, nil
	}

	var typeID, raw string
	q := fmt.Sprintf(`SELECT type, fields FROM %s WHERE location = ?`, s.table)
	err := s.conn.QueryRowContext(ctx, q, location).Scan(&typeID, &raw)
	if errors.Is(err, sql.ErrNoRows) {
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

// CommitBatch upserts every pending record in one transaction.
func (s *Store) CommitBatch(ctx context.Context) error {
	pending := s.batch.Pending()
	if len(pending) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := fmt.Sprintf(`INSERT INTO %s (location, type, fields, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(location) DO UPDATE SET
			type = excluded.type,
			fields = excluded.fields,
			updated_at = CURRENT_TIMESTAMP`, s.table)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pending {
		data, err := store.EncodeFields(p.Record.Fields)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Record.Location, err)
		}
		if _, err := stmt.ExecContext(ctx, p.Record.Location, string(p.Record.Type), string(data)); err != nil {
			return fmt.Errorf("upsert %s: %w", p.Record.Location, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	for _, p := range pending {
		s.batch.Committed(p.Record)
	}
	s.logger.Verbose("Upserted %d row(s) into %s", len(pending), s.table)
	return nil
}

// RefreshIndex rebuilds the table's indexes.
func (s *Store) RefreshIndex(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, fmt.Sprintf(`REINDEX %s`, s.table)); err != nil {
		return fmt.Errorf("reindex %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Count returns the number of stored records of typeID, or of all types
// when typeID is empty.
func (s *Store) Count(ctx context.Context, typeID csvasset.TypeID) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)
	args := []any{}
	if typeID != "" {
		q += ` WHERE type = ?`
		args = append(args, string(typeID))
	}
	var n int
	if err := s.conn.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
