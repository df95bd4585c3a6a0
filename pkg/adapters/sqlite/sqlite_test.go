package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/adapters/sqlite"
	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/core/storagetest"
)

func open(t *testing.T, path string) *sqlite.Storage {
	t.Helper()
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func TestStorage_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) core.Storage {
		return open(t, ":memory:")
	})
}

func TestStorage_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world", "canon.db")
	ctx := context.Background()

	s := open(t, path)
	require.NoError(t, s.Write(ctx, "meta.yaml", []byte("version: 0.3.0\n")))
	require.NoError(t, s.Close())

	reopened := open(t, path)
	data, err := reopened.Read(ctx, "meta.yaml")
	require.NoError(t, err)
	assert.Equal(t, "version: 0.3.0\n", string(data))
}

func TestStorage_ListPrefixIsLiteral(t *testing.T) {
	s := open(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "versions/v1/snapshot.json", []byte("{}")))
	require.NoError(t, s.Write(ctx, "versions_old/x.json", []byte("{}")))

	// "_" and "%" must not behave as LIKE wildcards.
	got, err := s.List(ctx, "versions_")
	require.NoError(t, err)
	assert.Equal(t, []string{"versions_old/x.json"}, got)
}
