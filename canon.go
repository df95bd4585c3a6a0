package canon

import (
	"log/slog"
	"time"

	"github.com/aretw0/canon/internal/platform"
	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/world"
)

// --- Types ---

// Service is the world service returned by New.
type Service = world.Service

// Document is a parsed YAML document.
type Document = core.Document

// --- Configuration ---

// Option defines a functional option for configuring a world.
type Option = platform.Option

// WithAutoInit enables automatic initialization of the world (creates directory and git init).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git versioning of the fs adapter.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the world directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly rejects every write and delete with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the temp-dir sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithLogger sets the logger for the storage and the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithClock overrides the time source used for dates and timestamps.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithStorage injects a ready storage adapter.
func WithStorage(storage core.Storage) Option {
	return platform.WithStorage(storage)
}

// WithSnapshotStorage keeps snapshot records in a separate storage.
func WithSnapshotStorage(archive core.Storage) Option {
	return platform.WithSnapshotStorage(archive)
}

// WithCaptureConcurrency bounds parallel domain reads during snapshot capture.
func WithCaptureConcurrency(n int) Option {
	return platform.WithCaptureConcurrency(n)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden directory name (e.g. ".canon").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithWatcherErrorHandler registers a callback for failures inside the fs watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithDSN sets the postgres connection string.
func WithDSN(dsn string) Option {
	return platform.WithDSN(dsn)
}

// WithInMemory runs the badger adapter without touching disk.
func WithInMemory(enabled bool) Option {
	return platform.WithInMemory(enabled)
}

// WithBucket sets the s3 bucket.
func WithBucket(bucket string) Option {
	return platform.WithBucket(bucket)
}

// WithPrefix sets the s3 key prefix.
func WithPrefix(prefix string) Option {
	return platform.WithPrefix(prefix)
}

// WithRegion sets the s3 region.
func WithRegion(region string) Option {
	return platform.WithRegion(region)
}

// WithEndpoint points the s3 adapter at an S3-compatible service.
func WithEndpoint(endpoint string) Option {
	return platform.WithEndpoint(endpoint)
}

// --- Factory ---

// New opens a world and returns its service.
func New(uri string, opts ...Option) (*world.Service, error) {
	return platform.New(uri, opts...)
}

// Init builds and initializes the configured storage without a service.
func Init(uri string, opts ...Option) (core.Storage, error) {
	return platform.Init(uri, opts...)
}

// --- Safety & Utils ---

// ResolveWorldPath returns the directory a file-backed world really lives in.
func ResolveWorldPath(userPath string, forceTemp bool) string {
	return platform.ResolveWorldPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindWorldRoot walks upwards looking for canon.yaml, .canon or meta.yaml.
func FindWorldRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
