package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// SQLiteFileName is the database file created inside the data directory.
const SQLiteFileName = "kennel.db"

var sqlOpen = sql.Open

// dialect captures the few statements that differ between drivers.
type dialect struct {
	driver string
	create string
	get    string
	upsert string
	remove string
	keys   string
	// single limits the pool to one connection; SQLite allows one writer.
	single bool
}

var sqliteDialect = dialect{
	driver: "sqlite",
	create: `CREATE TABLE IF NOT EXISTS kennel_state (
		item_key TEXT PRIMARY KEY,
		item_value BLOB NOT NULL
	)`,
	get: `SELECT item_value FROM kennel_state WHERE item_key = ?`,
	upsert: `INSERT INTO kennel_state (item_key, item_value) VALUES (?, ?)
		ON CONFLICT (item_key) DO UPDATE SET item_value = excluded.item_value`,
	remove: `DELETE FROM kennel_state WHERE item_key = ?`,
	keys:   `SELECT item_key FROM kennel_state ORDER BY item_key`,
	single: true,
}

var postgresDialect = dialect{
	driver: "pgx",
	create: `CREATE TABLE IF NOT EXISTS kennel_state (
		item_key TEXT PRIMARY KEY,
		item_value BYTEA NOT NULL
	)`,
	get: `SELECT item_value FROM kennel_state WHERE item_key = $1`,
	upsert: `INSERT INTO kennel_state (item_key, item_value) VALUES ($1, $2)
		ON CONFLICT (item_key) DO UPDATE SET item_value = EXCLUDED.item_value`,
	remove: `DELETE FROM kennel_state WHERE item_key = $1`,
	keys:   `SELECT item_key FROM kennel_state ORDER BY item_key`,
}

// SQL keeps every key as one row of the kennel_state table. The same code
// serves SQLite (modernc) and Postgres (pgx); only the dialect differs.
type SQL struct {
	mu      sync.Mutex
	db      *sql.DB
	dialect dialect
	closed  bool
}

// OpenSQLite opens (creating if needed) dataDir/kennel.db.
func OpenSQLite(ctx context.Context, dataDir string) (*SQL, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return openSQL(ctx, sqliteDialect, filepath.Join(dataDir, SQLiteFileName))
}

// OpenPostgres connects to dsn and ensures the state table exists.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	if dsn == "" {
		return nil, types.ErrDSNEmpty
	}
	return openSQL(ctx, postgresDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQL, error) {
	db, err := sqlOpen(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.single {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, d.create); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &SQL{db: db, dialect: d}, nil
}

// DB exposes the underlying handle for integration tests.
func (s *SQL) DB() *sql.DB { return s.db }

func (s *SQL) live() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrStorageClosed
	}
	return nil
}

func (s *SQL) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.live(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) SetItem(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	if err := s.live(); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQL) RemoveItem(ctx context.Context, key string) error {
	if err := s.live(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.remove, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Keys(ctx context.Context) ([]string, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.keys)
	if err != nil {
		return nil, fmt.Errorf("select keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
