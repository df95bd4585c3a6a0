package core

import "context"

// Storage is the port every backend implements. Paths are slash-separated
// logical paths (e.g. "domains/_registry.yaml") already validated by
// CleanPath. Implementations hold no cache: every Read goes to the backend
// and every Write is a full overwrite.
type Storage interface {
	// Initialize ensures the backend is ready (directories, schema, bucket).
	Initialize(ctx context.Context) error

	// Read returns the raw bytes at path, or an error wrapping ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write replaces the bytes at path, creating intermediate levels as needed.
	Write(ctx context.Context, path string, data []byte) error

	// Exists reports whether a value is stored at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes the value at path, or returns an error wrapping ErrNotFound.
	Delete(ctx context.Context, path string) error

	// List returns the sorted paths stored under prefix ("" lists everything).
	List(ctx context.Context, prefix string) ([]string, error)
}

// Watchable is implemented by storages that can report external changes.
type Watchable interface {
	// Watch emits events for paths matching the doublestar pattern until ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Closer is implemented by storages holding connections or file handles.
type Closer interface {
	Close() error
}

// Tagger is implemented by storages that can mark a point in their own
// history (e.g. a git tag) when a snapshot is sealed.
type Tagger interface {
	Tag(ctx context.Context, name, message string) error
}
