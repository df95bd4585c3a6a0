package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/core"
)

func TestRepository_Watch(t *testing.T) {
	repo := newGitless(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, os.MkdirAll(filepath.Join(repo.Path, "domains"), 0755))

	events, err := repo.Watch(ctx, "domains/**")
	require.NoError(t, err)

	// Outside the pattern: must not be reported.
	require.NoError(t, repo.Write(ctx, "meta.yaml", []byte("version: 0.1.0\n")))
	require.NoError(t, repo.Write(ctx, "domains/foo.yaml", []byte("id: foo\n")))

	select {
	case e, ok := <-events:
		require.True(t, ok, "channel closed early")
		assert.Equal(t, "domains/foo.yaml", e.Path)
		assert.Contains(t, []core.EventType{core.EventCreate, core.EventModify}, e.Type)
	case <-ctx.Done():
		t.Fatal("timed out waiting for watch event")
	}

	cancel()
	for range events {
		// drain until the watcher closes the channel
	}
}

func TestRepository_WatchReportsRewriteAsModify(t *testing.T) {
	repo := newGitless(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, repo.Write(ctx, "domains/foo.yaml", []byte("id: foo\n")))
	events, err := repo.Watch(ctx, "domains/**")
	require.NoError(t, err)

	require.NoError(t, repo.Write(ctx, "domains/foo.yaml", []byte("id: foo\nname: Foo\n")))
	select {
	case e, ok := <-events:
		require.True(t, ok, "channel closed early")
		assert.Equal(t, core.Event{Type: core.EventModify, Path: "domains/foo.yaml", Timestamp: e.Timestamp}, e)
	case <-ctx.Done():
		t.Fatal("timed out waiting for watch event")
	}

	require.NoError(t, repo.Write(ctx, "domains/bar.yaml", []byte("id: bar\n")))
	for {
		select {
		case e := <-events:
			if e.Path != "domains/bar.yaml" {
				continue
			}
			assert.Equal(t, core.EventCreate, e.Type)
			cancel()
			for range events {
			}
			return
		case <-ctx.Done():
			t.Fatal("timed out waiting for create event")
		}
	}
}

func TestRepository_WatchInvalidPattern(t *testing.T) {
	repo := newGitless(t)
	_, err := repo.Watch(context.Background(), "[")
	assert.ErrorIs(t, err, core.ErrValidation)
}
