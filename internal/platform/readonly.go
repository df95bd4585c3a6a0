package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/introspection"

	"github.com/aretw0/canon/pkg/core"
)

// readOnlyStorage rejects mutations on adapters without a native read-only mode.
type readOnlyStorage struct {
	core.Storage
}

func (s readOnlyStorage) Write(ctx context.Context, path string, data []byte) error {
	return fmt.Errorf("write %s: %w", path, core.ErrReadOnly)
}

func (s readOnlyStorage) Delete(ctx context.Context, path string) error {
	return fmt.Errorf("delete %s: %w", path, core.ErrReadOnly)
}

func (s readOnlyStorage) Close() error {
	if c, ok := s.Storage.(core.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s readOnlyStorage) ComponentType() string {
	if comp, ok := s.Storage.(introspection.Component); ok {
		return comp.ComponentType() + " (read-only)"
	}
	return "read-only-storage"
}
