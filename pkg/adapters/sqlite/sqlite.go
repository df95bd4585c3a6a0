// Package sqlite implements core.Storage on a single SQLite table using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/aretw0/canon/pkg/core"
)

// Storage keeps every document as one row of the documents table.
type Storage struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path. ":memory:" is accepted for tests.
func Open(path string) (*Storage, error) {
	if path == "" {
		path = "canon.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)
	return &Storage{db: db, path: path}, nil
}

// Initialize creates the documents table.
func (s *Storage) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		data BLOB NOT NULL
	)`); err != nil {
		return fmt.Errorf("create documents table: %w: %w", core.ErrIO, err)
	}
	return nil
}

// Read implements core.Storage.
func (s *Storage) Read(ctx context.Context, path string) ([]byte, error) {
	p, err := core.CleanPath(path)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = ?`, p).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", p, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", p, core.ErrIO, err)
	}
	return data, nil
}

// Write implements core.Storage.
func (s *Storage) Write(ctx context.Context, path string, data []byte) error {
	p, err := core.CleanPath(path)
	if err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (path, data) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data`, p, data)
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", p, core.ErrIO, err)
	}
	return nil
}

// Exists implements core.Storage.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	p, err := core.CleanPath(path)
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE path = ?`, p).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w: %w", p, core.ErrIO, err)
	}
	return true, nil
}

// Delete implements core.Storage.
func (s *Storage) Delete(ctx context.Context, path string) error {
	p, err := core.CleanPath(path)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, p)
	if err != nil {
		return fmt.Errorf("delete %s: %w: %w", p, core.ErrIO, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", p, core.ErrNotFound)
	}
	return nil
}

// List implements core.Storage.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM documents WHERE substr(path, 1, length(?)) = ? ORDER BY path`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w: %w", prefix, core.ErrIO, err)
	}
	defer func() { _ = rows.Close() }()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan: %w: %w", core.ErrIO, err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %q: %w: %w", prefix, core.ErrIO, err)
	}
	return paths, nil
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

var (
	_ core.Storage = (*Storage)(nil)
	_ core.Closer  = (*Storage)(nil)
)

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "sqlite-storage"
}
