package fs

import (
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"
)

type counters struct {
	writes  atomic.Int64
	deletes atomic.Int64
	commits atomic.Int64
	// uncommitted counts changes stored on disk whose commit failed.
	uncommitted atomic.Int64
}

// RepositoryState is the snapshot returned by State. Counters cover the
// lifetime of the process, not the world.
type RepositoryState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	Versioned     bool       `json:"versioned"`
	ReadOnly      bool       `json:"read_only"`
	Writes        int64      `json:"writes"`
	Deletes       int64      `json:"deletes"`
	Commits       int64      `json:"commits"`
	Uncommitted   int64      `json:"uncommitted"`
	WatcherActive bool       `json:"watcher_active"`
	LastEvent     *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	st := RepositoryState{
		Path:        r.Path,
		SystemDir:   r.config.SystemDir,
		Versioned:   !r.config.Gitless && !r.config.ReadOnly,
		ReadOnly:    r.config.ReadOnly,
		Writes:      r.stats.writes.Load(),
		Deletes:     r.stats.deletes.Load(),
		Commits:     r.stats.commits.Load(),
		Uncommitted: r.stats.uncommitted.Load(),
	}

	r.mu.RLock()
	st.WatcherActive = r.watcherActive
	if r.lastEvent != nil {
		last := *r.lastEvent
		st.LastEvent = &last
	}
	r.mu.RUnlock()

	return st
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	if r.config.Gitless {
		return "fs-storage"
	}
	return "fs-repository"
}

var (
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	r.watcherActive = active
	r.mu.Unlock()
}

func (r *Repository) recordEvent(at time.Time) {
	r.mu.Lock()
	r.lastEvent = &at
	r.mu.Unlock()
}
