// Package postgres implements core.Storage on a Postgres table through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/aretw0/canon/pkg/core"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/canon?sslmode=disable"
	defaultTable  = "canon_documents"
)

// Storage keeps documents as rows of (path, data).
type Storage struct {
	db    *sql.DB
	table string
}

// Open connects with dsn (defaulting to a local database) and pings it.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w: %w", core.ErrIO, err)
	}
	return &Storage{db: db, table: defaultTable}, nil
}

// Initialize ensures the documents table exists.
func (s *Storage) Initialize(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		path TEXT PRIMARY KEY,
		data BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure documents table: %w: %w", core.ErrIO, err)
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
	err = s.db.QueryRowContext(ctx, `SELECT data FROM `+s.table+` WHERE path = $1`, p).Scan(&data)
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
	_, err = s.db.ExecContext(ctx, `INSERT INTO `+s.table+` (path, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, p, data)
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
	var ok bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+s.table+` WHERE path = $1)`, p).Scan(&ok); err != nil {
		return false, fmt.Errorf("stat %s: %w: %w", p, core.ErrIO, err)
	}
	return ok, nil
}

// Delete implements core.Storage.
func (s *Storage) Delete(ctx context.Context, path string) error {
	p, err := core.CleanPath(path)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE path = $1`, p)
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
		`SELECT path FROM `+s.table+` WHERE left(path, length($1)) = $1 ORDER BY path COLLATE "C"`, prefix)
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

// Truncate removes every document. Used by tests that share a database.
func (s *Storage) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE `+s.table); err != nil {
		return fmt.Errorf("truncate: %w: %w", core.ErrIO, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.db.Close()
}

var (
	_ core.Storage = (*Storage)(nil)
	_ core.Closer  = (*Storage)(nil)
)

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "postgres-storage"
}
