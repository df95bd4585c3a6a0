// Package badger implements core.Storage on an embedded BadgerDB.
//
// Keys are the cleaned document paths, values are the raw bytes. Badger keeps
// keys sorted, so List is a prefix iteration.
package badger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/aretw0/canon/pkg/core"
)

// Config holds configuration for a BadgerDB-backed storage.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory disables disk persistence. Useful for tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *slog.Logger

	// GCInterval is how often value log garbage collection runs. Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum discardable fraction before a value log file is rewritten.
	GCDiscardRatio float64
}

// DefaultConfig returns the configuration used for persistent worlds.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Storage is a core.Storage backed by BadgerDB.
type Storage struct {
	db     *badger.DB
	cfg    Config
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// Open opens the database described by cfg and starts the GC loop if configured.
func Open(cfg Config) (*Storage, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Storage{
		db:     db,
		cfg:    cfg,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop()
	} else {
		close(s.doneCh)
	}
	return s, nil
}

func (s *Storage) gcLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	ratio := s.cfg.GCDiscardRatio
	if ratio <= 0 {
		ratio = 0.5
	}
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			// Keep collecting until badger reports there is nothing left to rewrite.
			for s.db.RunValueLogGC(ratio) == nil {
			}
		}
	}
}

// Initialize implements core.Storage. The database is ready once opened.
func (s *Storage) Initialize(ctx context.Context) error { return nil }

// Read implements core.Storage.
func (s *Storage) Read(ctx context.Context, path string) ([]byte, error) {
	p, err := core.CleanPath(path)
	if err != nil {
		return nil, err
	}
	var value []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(p))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", p, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", p, core.ErrIO, err)
	}
	return value, nil
}

// Write implements core.Storage.
func (s *Storage) Write(ctx context.Context, path string, data []byte) error {
	p, err := core.CleanPath(path)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(p), append([]byte(nil), data...))
	}); err != nil {
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
	err = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(p))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
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
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(p)); err != nil {
			return err
		}
		return txn.Delete([]byte(p))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s: %w", p, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w: %w", p, core.ErrIO, err)
	}
	return nil
}

// List implements core.Storage.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	paths := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			paths = append(paths, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w: %w", prefix, core.ErrIO, err)
	}
	return paths, nil
}

// Backup streams a full backup of the database to w.
func (s *Storage) Backup(w io.Writer) error {
	if _, err := s.db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup: %w: %w", core.ErrIO, err)
	}
	return nil
}

// Close stops the GC loop and closes the database.
func (s *Storage) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		err = s.db.Close()
	})
	return err
}

var (
	_ core.Storage = (*Storage)(nil)
	_ core.Closer  = (*Storage)(nil)
)

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "badger-storage"
}
