package world_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/adapters/memory"
	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/world"
)

func TestNamedDocuments(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	thesis, err := svc.GetNamed(ctx, "thesis")
	require.NoError(t, err)
	assert.Equal(t, "ambient computing", thesis["claim"])

	arch, err := svc.GetNamed(ctx, "architecture")
	require.NoError(t, err)
	assert.Equal(t, []any{"edge", "cloud"}, arch["layers"])

	_, err = svc.PutNamed(ctx, "devices", core.Document{"devices": []any{"pin"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"pin"}, get(t, store.Storage, world.DevicesPath)["devices"])
	assert.Equal(t, today, get(t, store.Storage, world.MetaPath)["last_modified"])

	_, err = svc.GetNamed(ctx, "unknown")
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t, []string{"devices", "setting", "system-architecture", "thesis"}, world.Names())
}

func TestGetNamed_MissingAndMalformed(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Write(context.Background(), world.ThesisPath, []byte("claim: [unterminated\n")))
	svc := world.New(store)

	_, err := svc.GetNamed(context.Background(), "setting")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.GetNamed(context.Background(), "thesis")
	assert.ErrorIs(t, err, core.ErrIO)
}

func TestPutDocument_RejectsSnapshotPaths(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, p := range []string{"versions/v0.1.0/snapshot.json", "../meta.yaml", ""} {
		_, err := svc.PutDocument(ctx, p, core.Document{})
		assert.ErrorIs(t, err, core.ErrValidation, p)
	}

	_, err := svc.PutDocument(ctx, "notes/ideas.yaml", core.Document{"idea": "x"})
	require.NoError(t, err)
	doc, err := svc.ReadDocument(ctx, "notes/ideas.yaml")
	require.NoError(t, err)
	assert.Equal(t, "x", doc["idea"])
}

func TestTouchFailureIsNotSurfaced(t *testing.T) {
	svc, store := newService(t)
	store.FailWrite(world.MetaPath)

	_, err := svc.PutNamed(context.Background(), "setting", core.Document{"year": 2031})
	require.NoError(t, err)
	assert.Equal(t, 2031, get(t, store.Storage, world.SettingPath)["year"])
	assert.Equal(t, "2024-01-01", get(t, store.Storage, world.MetaPath)["last_modified"])
}

func TestUpdateMetaDescription(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	meta, err := svc.UpdateMetaDescription(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Aurora canon", meta["description"])
	assert.Equal(t, today, meta["last_modified"])

	meta, err = svc.UpdateMetaDescription(ctx, "Borealis canon")
	require.NoError(t, err)
	assert.Equal(t, "Borealis canon", meta["description"])
	assert.Equal(t, "0.0.1", meta["version"], "only the description is writable")

	_, err = world.New(memory.New()).UpdateMetaDescription(ctx, "x")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLoad(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	require.NoError(t, store.Storage.Delete(ctx, world.ThesisPath))
	require.NoError(t, store.Storage.Delete(ctx, "domains/memory.yaml"))

	st, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Aurora canon", st.Meta["description"])
	assert.Nil(t, st.Thesis)
	assert.Contains(t, st.Domains, "identity")
	assert.NotContains(t, st.Domains, "memory")
	require.Len(t, st.OpenQuestions, 1)
	assert.Equal(t, "OQ-1", st.OpenQuestions[0]["id"])
}

func TestLoad_EmptyWorld(t *testing.T) {
	st, err := world.New(memory.New()).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st.Meta)
	assert.NotNil(t, st.Domains)
	assert.NotNil(t, st.OpenQuestions)
}

func TestCreateQuestion_LeadingDigitsAreParsed(t *testing.T) {
	store := memory.New()
	put(t, store, world.QuestionsPath, core.Document{"questions": []any{
		map[string]any{"id": "OQ-12abc"},
		map[string]any{"id": "OQ-3"},
	}})
	q, err := world.New(store).CreateQuestion(context.Background(), world.QuestionInput{Name: "n", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "OQ-13", q["id"])
}
