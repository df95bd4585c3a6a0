package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	canonlifecycle "github.com/aretw0/canon/pkg/adapters/lifecycle"
	"github.com/aretw0/canon/pkg/core"
)

func TestSource_ForwardsAndCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 1)
	src := canonlifecycle.NewSource(in)
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventModify, Path: "domains/magic.yaml", Timestamp: time.Now().Unix()}

	select {
	case e := <-src.Events():
		assert.Contains(t, e.String(), "domains/magic.yaml")
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func drain(t *testing.T, src lifecycle.Source) []string {
	t.Helper()
	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-src.Events():
			if !ok {
				return got
			}
			got = append(got, e.String())
		case <-timeout:
			t.Fatal("events channel not closed")
			return got
		}
	}
}

func TestSource_Coalesces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 8)
	src := canonlifecycle.NewSource(in, canonlifecycle.WithCoalesce(time.Hour))
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventCreate, Path: "domains/magic.yaml"}
	in <- core.Event{Type: core.EventModify, Path: "domains/magic.yaml"}
	in <- core.Event{Type: core.EventModify, Path: "registry.yaml"}
	in <- core.Event{Type: core.EventModify, Path: "registry.yaml"}
	in <- core.Event{Type: core.EventCreate, Path: "domains/scratch.yaml"}
	in <- core.Event{Type: core.EventDelete, Path: "domains/scratch.yaml"}
	close(in)

	// Closing upstream flushes the pending window.
	assert.Equal(t, []string{
		"CREATE domains/magic.yaml",
		"MODIFY registry.yaml",
	}, drain(t, src))
}

func TestSource_CoalesceWindowElapses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 4)
	src := canonlifecycle.NewSource(in, canonlifecycle.WithCoalesce(20*time.Millisecond))
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventModify, Path: "meta.yaml"}
	in <- core.Event{Type: core.EventModify, Path: "meta.yaml"}

	select {
	case e := <-src.Events():
		assert.Equal(t, "MODIFY meta.yaml", e.String())
	case <-time.After(2 * time.Second):
		t.Fatal("coalesced event not emitted")
	}
}

func TestSource_Filter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 3)
	src := canonlifecycle.NewSource(in, canonlifecycle.WithFilter(func(e core.Event) bool {
		return e.Type != core.EventDelete
	}))
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventDelete, Path: "questions/q1.yaml"}
	in <- core.Event{Type: core.EventModify, Path: "questions/q2.yaml"}
	close(in)

	assert.Equal(t, []string{"MODIFY questions/q2.yaml"}, drain(t, src))
}
