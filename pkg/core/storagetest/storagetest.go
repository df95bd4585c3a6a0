// Package storagetest provides the behavioural contract every core.Storage
// adapter must satisfy.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/core"
)

// Factory returns a fresh, initialised storage for one subtest.
type Factory func(t *testing.T) core.Storage

// Run executes the storage contract against storages produced by newStorage.
func Run(t *testing.T, newStorage Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("Read Missing Returns ErrNotFound", func(t *testing.T) {
		s := newStorage(t)
		_, err := s.Read(ctx, "meta.yaml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
	})

	t.Run("Write Then Read", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Write(ctx, "meta.yaml", []byte("version: 0.1.0\n")))

		data, err := s.Read(ctx, "meta.yaml")
		require.NoError(t, err)
		assert.Equal(t, "version: 0.1.0\n", string(data))
	})

	t.Run("Write Overwrites", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Write(ctx, "setting.yaml", []byte("year: 2030\n")))
		require.NoError(t, s.Write(ctx, "setting.yaml", []byte("year: 2031\n")))

		data, err := s.Read(ctx, "setting.yaml")
		require.NoError(t, err)
		assert.Equal(t, "year: 2031\n", string(data))
	})

	t.Run("Nested Paths", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Write(ctx, "domains/identity.yaml", []byte("id: identity\n")))

		ok, err := s.Exists(ctx, "domains/identity.yaml")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Exists", func(t *testing.T) {
		s := newStorage(t)
		ok, err := s.Exists(ctx, "thesis.yaml")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Write(ctx, "thesis.yaml", []byte("title: t\n")))
		ok, err = s.Exists(ctx, "thesis.yaml")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Write(ctx, "domains/foo.yaml", []byte("id: foo\n")))
		require.NoError(t, s.Delete(ctx, "domains/foo.yaml"))

		_, err := s.Read(ctx, "domains/foo.yaml")
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

		err = s.Delete(ctx, "domains/foo.yaml")
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
	})

	t.Run("List By Prefix Sorted", func(t *testing.T) {
		s := newStorage(t)
		for _, p := range []string{
			"versions/v0.2.0/snapshot.json",
			"meta.yaml",
			"versions/v0.1.0/snapshot.json",
			"domains/_registry.yaml",
		} {
			require.NoError(t, s.Write(ctx, p, []byte("{}")))
		}

		got, err := s.List(ctx, "versions/")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"versions/v0.1.0/snapshot.json",
			"versions/v0.2.0/snapshot.json",
		}, got)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("List Empty", func(t *testing.T) {
		s := newStorage(t)
		got, err := s.List(ctx, "versions/")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
