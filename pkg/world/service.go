// Package world implements the world canon store: named documents, the
// domain registry, the open-questions ledger, metadata tracking and
// point-in-time snapshots, all on top of a core.Storage.
//
// The service holds no cached state. Every operation re-reads the documents
// it needs from storage and every write is a full overwrite.
package world

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/git"
)

// Logical paths of the tracked documents.
const (
	MetaPath               = "meta.yaml"
	SettingPath            = "setting.yaml"
	ThesisPath             = "thesis.yaml"
	DevicesPath            = "devices.yaml"
	SystemArchitecturePath = "system-architecture.yaml"
	QuestionsPath          = "open-questions.yaml"
	DomainsDir             = "domains"
	RegistryPath           = DomainsDir + "/_registry.yaml"
	VersionsDir            = "versions"
)

const defaultCaptureConcurrency = 8

// Service is the entry point for every world operation.
//
// Ordinary edits hold the read side of a store-wide lock, so they still race
// each other (last writer wins). Snapshot create and restore hold the write
// side: a snapshot never interleaves with an edit made through the same
// Service. Writers in other processes are not covered.
type Service struct {
	store   core.Storage
	archive core.Storage
	logger  *slog.Logger
	now     func() time.Time
	workers int

	mu sync.RWMutex

	created  atomic.Int64
	restored atomic.Int64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSnapshotStorage keeps snapshot records in a storage separate from the
// live documents. Defaults to the live storage.
func WithSnapshotStorage(archive core.Storage) Option {
	return func(s *Service) {
		if archive != nil {
			s.archive = archive
		}
	}
}

// WithCaptureConcurrency bounds how many domain documents are read in
// parallel while capturing or loading the world.
func WithCaptureConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Service over store.
func New(store core.Storage, opts ...Option) *Service {
	s := &Service{
		store:   store,
		archive: store,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		workers: defaultCaptureConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Storage returns the live document storage.
func (s *Service) Storage() core.Storage {
	return s.store
}

// SnapshotStorage returns the storage holding snapshot records.
func (s *Service) SnapshotStorage() core.Storage {
	return s.archive
}

// Watch observes changes to live documents when the storage supports it.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := s.store.(core.Watchable)
	if !ok {
		return nil, errWatchUnsupported
	}
	return w.Watch(ctx, pattern)
}

// Close releases the storages that hold resources.
func (s *Service) Close() error {
	var first error
	for _, st := range s.storages() {
		if c, ok := st.(core.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (s *Service) storages() []core.Storage {
	if s.archive == s.store {
		return []core.Storage{s.store}
	}
	return []core.Storage{s.store, s.archive}
}

func (s *Service) today() string {
	return s.now().UTC().Format("2006-01-02")
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// withReason attaches a conventional commit message for storages that
// record history.
func withReason(ctx context.Context, ctype, scope, subject, body string) context.Context {
	if core.ChangeReason(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, core.ChangeReasonKey, git.FormatCommitMessage(ctype, scope, subject, body))
}
