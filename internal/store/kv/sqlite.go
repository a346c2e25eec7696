package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Sqlite is a Store backed by a single SQLite table.
type Sqlite struct {
	DB *sql.DB
}

// OpenSqlite opens (or creates) the database file at path and ensures the schema.
func OpenSqlite(ctx context.Context, path string) (*Sqlite, error) {
	if path == "" {
		return nil, errors.New("open sqlite kv: path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite kv %q: %w", path, err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite kv: verify connection to %q: %w", path, err)
	}

	s := &Sqlite{DB: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sqlite) initSchema(ctx context.Context) error {
	const q = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init sqlite kv schema: %w", err)
	}
	return nil
}

func (s *Sqlite) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite kv get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Sqlite) Set(ctx context.Context, key, value string) error {
	const q = `
	INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("sqlite kv set %q: %w", key, err)
	}
	return nil
}

func (s *Sqlite) Close() error {
	return s.DB.Close()
}
