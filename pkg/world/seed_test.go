package world_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/adapters/memory"
	"github.com/aretw0/canon/pkg/world"
)

func TestSeed_EmptyWorld(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := world.New(store, world.WithClock(func() time.Time { return fixedNow }))

	created, err := svc.Seed(ctx, "A fresh canon")
	require.NoError(t, err)
	assert.Len(t, created, 7)

	meta := get(t, store, world.MetaPath)
	assert.Equal(t, world.InitialVersion, meta["version"])
	assert.Equal(t, today, meta["last_modified"])
	assert.Equal(t, "A fresh canon", meta["description"])

	domains, err := svc.ListDomains(ctx)
	require.NoError(t, err)
	assert.Empty(t, domains)

	questions, err := svc.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, questions)

	q, err := svc.CreateQuestion(ctx, world.QuestionInput{Name: "First", Question: "Why?"})
	require.NoError(t, err)
	assert.Equal(t, "OQ-1", q["id"])
}

func TestSeed_KeepsExistingDocuments(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	before := dump(t, store.Storage)

	created, err := svc.Seed(ctx, "ignored")
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, before, dump(t, store.Storage))
}
