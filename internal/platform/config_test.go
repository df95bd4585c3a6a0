package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/internal/platform"
	"github.com/aretw0/canon/pkg/adapters/memory"
	"github.com/aretw0/canon/pkg/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, platform.ConfigFileName), []byte(body), 0644))
	return dir
}

func TestLoadConfig_Missing(t *testing.T) {
	cfg, err := platform.LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Options())
	assert.Nil(t, cfg.Snapshots)
}

func TestLoadConfig_Full(t *testing.T) {
	dir := writeConfig(t, `
adapter: sqlite
uri: world.db
versioning: false
read_only: true
capture_concurrency: 4
listen: ":9090"
s3:
  bucket: canon
  prefix: worlds/aurora
snapshots:
  adapter: memory
`)
	cfg, err := platform.LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Adapter)
	assert.Equal(t, "world.db", cfg.URI)
	require.NotNil(t, cfg.Versioning)
	assert.False(t, *cfg.Versioning)
	assert.True(t, cfg.ReadOnly)
	assert.Equal(t, 4, cfg.CaptureConcurrency)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "canon", cfg.S3.Bucket)
	assert.Equal(t, "worlds/aurora", cfg.S3.Prefix)
	require.NotNil(t, cfg.Snapshots)
	assert.Equal(t, "memory", cfg.Snapshots.Adapter)

	// adapter, versioning, read_only, capture_concurrency, bucket, prefix
	assert.Len(t, cfg.Options(), 6)

	archive, err := cfg.OpenArchive()
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, archive)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "adapter: [unterminated"},
		{"unknown adapter", "adapter: etcd"},
		{"snapshot adapter missing", "snapshots:\n  uri: elsewhere\n"},
		{"negative concurrency", "capture_concurrency: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := platform.LoadConfig(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestConfig_FlagsOverrideFile(t *testing.T) {
	cfg, err := platform.LoadConfig(writeConfig(t, "adapter: sqlite\n"))
	require.NoError(t, err)

	opts := append(cfg.Options(), platform.WithAdapter("memory"))
	storage, err := platform.Init("", opts...)
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, storage)

	require.NoError(t, storage.Write(context.Background(), "meta.yaml", []byte("v: 1\n")))
}
