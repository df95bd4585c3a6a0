package world_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/adapters/memory"
	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/format"
	"github.com/aretw0/canon/pkg/world"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

const today = "2025-03-14"

// faultyStorage wraps a storage and fails writes or deletes on chosen paths.
type faultyStorage struct {
	core.Storage

	mu         sync.Mutex
	failWrite  map[string]bool
	failDelete map[string]bool
	writes     []string
}

func newFaulty(inner core.Storage) *faultyStorage {
	return &faultyStorage{Storage: inner, failWrite: map[string]bool{}, failDelete: map[string]bool{}}
}

func (f *faultyStorage) FailWrite(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrite[p] = true
}

func (f *faultyStorage) FailDelete(p string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete[p] = true
}

func (f *faultyStorage) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func (f *faultyStorage) Write(ctx context.Context, p string, data []byte) error {
	f.mu.Lock()
	fail := f.failWrite[p]
	f.writes = append(f.writes, p)
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("disk full: %w", core.ErrIO)
	}
	return f.Storage.Write(ctx, p, data)
}

func (f *faultyStorage) Delete(ctx context.Context, p string) error {
	f.mu.Lock()
	fail := f.failDelete[p]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("permission denied: %w", core.ErrIO)
	}
	return f.Storage.Delete(ctx, p)
}

func put(t *testing.T, s core.Storage, p string, doc core.Document) {
	t.Helper()
	data, err := format.EncodeDocument(doc)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), p, data))
}

func get(t *testing.T, s core.Storage, p string) core.Document {
	t.Helper()
	data, err := s.Read(context.Background(), p)
	require.NoError(t, err)
	doc, err := format.DecodeDocument(data)
	require.NoError(t, err)
	return doc
}

// dump returns every stored path with its raw content.
func dump(t *testing.T, s core.Storage) map[string]string {
	t.Helper()
	ctx := context.Background()
	paths, err := s.List(ctx, "")
	require.NoError(t, err)
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		data, err := s.Read(ctx, p)
		require.NoError(t, err)
		out[p] = string(data)
	}
	return out
}

// seedWorld writes a small but complete world.
func seedWorld(t *testing.T, s core.Storage) {
	t.Helper()
	put(t, s, world.MetaPath, core.Document{
		"version":       "0.0.1",
		"last_modified": "2024-01-01",
		"description":   "Aurora canon",
		"changelog":     []any{},
	})
	put(t, s, world.SettingPath, core.Document{"year": 2030, "city": "Lisbon"})
	put(t, s, world.ThesisPath, core.Document{"claim": "ambient computing"})
	put(t, s, world.DevicesPath, core.Document{"devices": []any{"ring", "glasses"}})
	put(t, s, world.SystemArchitecturePath, core.Document{"layers": []any{"edge", "cloud"}})
	put(t, s, world.QuestionsPath, core.Document{"questions": []any{
		map[string]any{"id": "OQ-1", "name": "Power", "status": "open", "domain": "devices", "question": "Battery?"},
	}})
	put(t, s, world.RegistryPath, core.Document{"domains": []any{
		map[string]any{"id": "identity", "name": "Identity", "file": "identity.yaml", "order": 1},
		map[string]any{"id": "memory", "name": "Memory", "file": "memory.yaml", "order": 4},
	}})
	put(t, s, "domains/identity.yaml", core.Document{
		"id": "identity", "name": "Identity", "description": "Who you are", "status": "draft", "version": "0.2.0",
	})
	put(t, s, "domains/memory.yaml", core.Document{"id": "memory", "name": "Memory"})
}

func newService(t *testing.T, opts ...world.Option) (*world.Service, *faultyStorage) {
	t.Helper()
	store := newFaulty(memory.New())
	seedWorld(t, store.Storage)
	opts = append([]world.Option{world.WithClock(func() time.Time { return fixedNow })}, opts...)
	return world.New(store, opts...), store
}

func changelog(t *testing.T, meta core.Document) []map[string]any {
	t.Helper()
	raw, ok := meta["changelog"].([]any)
	require.True(t, ok, "changelog should be a list, got %T", meta["changelog"])
	out := make([]map[string]any, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		require.True(t, ok)
		out = append(out, m)
	}
	return out
}
