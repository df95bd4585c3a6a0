package world

import (
	"fmt"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	StorageType         string `json:"storage_type"`
	SnapshotStorageType string `json:"snapshot_storage_type"`
	SnapshotsCreated    int64  `json:"snapshots_created"`
	SnapshotsRestored   int64  `json:"snapshots_restored"`
	CaptureConcurrency  int    `json:"capture_concurrency"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	return ServiceState{
		StorageType:         componentType(s.store),
		SnapshotStorageType: componentType(s.archive),
		SnapshotsCreated:    s.created.Load(),
		SnapshotsRestored:   s.restored.Load(),
		CaptureConcurrency:  s.workers,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "world-service"
}

func componentType(v any) string {
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fmt.Sprintf("%T", v)
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
