package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/canon/pkg/core"
)

// options holds the internal configuration for a canon world.
type options struct {
	storage core.Storage
	archive core.Storage
	logger  *slog.Logger
	clock   func() time.Time
	adapter string
	workers int
	config  map[string]interface{}
}

// Option defines a functional option for configuring a canon world.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAutoInit enables automatic initialization of the world (creates directory and git init).
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning enables or disables git versioning of the fs adapter.
// When unset, versioning is detected from the directory (.git present or fresh world).
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["gitless"] = !enabled
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist ensures the world directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithLogger sets the logger for the storage adapter and the world service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the time source used for dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithStorage injects a ready storage (e.g. a test fake).
// If provided, the adapter named by WithAdapter is skipped.
func WithStorage(storage core.Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithSnapshotStorage keeps snapshot records in a separate storage.
func WithSnapshotStorage(archive core.Storage) Option {
	return func(o *options) {
		o.archive = archive
	}
}

// WithCaptureConcurrency bounds the number of domain documents read in parallel
// while capturing a snapshot.
func WithCaptureConcurrency(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithAdapter selects the storage adapter by name: fs, memory, sqlite, badger, postgres or s3.
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the hidden directory name used by the fs adapter.
// Defaults to ".canon".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithWatcherErrorHandler registers a callback for failures inside the fs watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Write and Delete return ErrReadOnly.
// 2. Initialization (Mkdir, Git Init) is skipped.
// 3. Dev Safety Lock (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true), file-backed worlds are re-rooted into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithDSN sets the connection string of the postgres adapter.
// When unset, the URI passed to New or Init is used.
func WithDSN(dsn string) Option {
	return func(o *options) {
		o.config["dsn"] = dsn
	}
}

// WithInMemory runs the badger adapter without touching disk.
func WithInMemory(enabled bool) Option {
	return func(o *options) {
		o.config["in_memory"] = enabled
	}
}

// WithBucket sets the bucket of the s3 adapter.
// When unset, the URI passed to New or Init is used.
func WithBucket(bucket string) Option {
	return func(o *options) {
		o.config["bucket"] = bucket
	}
}

// WithPrefix stores every s3 key under the given prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.config["prefix"] = prefix
	}
}

// WithRegion sets the AWS region of the s3 adapter.
func WithRegion(region string) Option {
	return func(o *options) {
		o.config["region"] = region
	}
}

// WithEndpoint points the s3 adapter at an S3-compatible service (MinIO, localstack).
// Custom endpoints use path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.config["endpoint"] = endpoint
	}
}
