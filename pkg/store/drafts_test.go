package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/scribble/pkg/core"
	"github.com/aretw0/scribble/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrafts_CommitOverwritesOrigin(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage(core.NewSynced("origin", "old", attrs(core.AttrTitle, "Doc")))
	s := store.New(storage)
	require.NoError(t, s.Load(ctx))

	draft, err := s.CreateDraft(ctx, "origin")
	require.NoError(t, err)
	assert.NotEqual(t, "origin", draft.ID)
	assert.Equal(t, "old", draft.Text())
	origin, isDraft := draft.DraftOf()
	assert.True(t, isDraft)
	assert.Equal(t, "origin", origin)

	require.NoError(t, s.UpdateBody(draft.ID, "new"))
	require.NoError(t, s.SetAttribute(draft.ID, core.AttrTitle, "Doc v2"))

	committed, err := s.CommitDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "origin", committed.ID)
	assert.Equal(t, "new", committed.Text())
	assert.False(t, committed.IsDraft())

	_, ok := s.Get(draft.ID)
	assert.False(t, ok, "draft is removed")
	got, _ := s.ByTitle("Doc v2")
	assert.Equal(t, "origin", got.ID)

	saved, err := storage.GetScribble(ctx, "origin")
	require.NoError(t, err)
	assert.Equal(t, "new", saved.Text())
	assert.NotContains(t, saved.Attributes, core.AttrDraftOf)
}

func TestDrafts_CommitPromotesNewDraft(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage()
	s := store.New(storage)

	draft := s.CreateNewDraft(attrs(core.AttrContentType, "text/markdown"))
	origin, isDraft := draft.DraftOf()
	require.True(t, isDraft)
	assert.Empty(t, origin)
	assert.Equal(t, "", draft.Text())

	require.NoError(t, s.UpdateBody(draft.ID, "# fresh"))
	committed, err := s.CommitDraft(ctx, draft.ID)
	require.NoError(t, err)
	assert.NotEqual(t, draft.ID, committed.ID)
	assert.True(t, core.IsID(committed.ID))
	assert.False(t, committed.IsDraft())
	assert.Equal(t, "text/markdown", committed.ContentType())
	assert.True(t, storage.has(committed.ID))
	assert.Len(t, s.List(), 1)
}

func TestDrafts_CommitWithMissingOrigin(t *testing.T) {
	ctx := context.Background()
	s := store.New(nil)
	require.NoError(t, s.Upsert(core.NewSynced("origin", "x", nil)))

	draft, err := s.CreateDraft(ctx, "origin")
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, "origin"))

	_, err = s.CommitDraft(ctx, draft.ID)
	assert.ErrorIs(t, err, core.ErrOriginMissing)

	still, ok := s.Get(draft.ID)
	require.True(t, ok, "draft stays in place")
	assert.True(t, still.IsDraft())
}

func TestDrafts_CommitSaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage(core.NewSynced("origin", "old", nil))
	s := store.New(storage)
	require.NoError(t, s.Load(ctx))

	draft, err := s.CreateDraft(ctx, "origin")
	require.NoError(t, err)
	require.NoError(t, s.UpdateBody(draft.ID, "new"))

	storage.failSav = errors.New("disk full")
	_, err = s.CommitDraft(ctx, draft.ID)
	require.Error(t, err)

	origin, _ := s.Get("origin")
	assert.Equal(t, "old", origin.Text())
	_, ok := s.Get(draft.ID)
	assert.True(t, ok)
}

func TestDrafts_CommitNonDraft(t *testing.T) {
	s := store.New(nil)
	require.NoError(t, s.Upsert(core.NewSynced("plain", "x", nil)))
	_, err := s.CommitDraft(context.Background(), "plain")
	assert.ErrorIs(t, err, core.ErrNotDraft)

	_, err = s.CommitDraft(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDrafts_List(t *testing.T) {
	ctx := context.Background()
	s := store.New(nil)
	require.NoError(t, s.Upsert(core.NewSynced("o", "x", nil)))
	_, err := s.CreateDraft(ctx, "o")
	require.NoError(t, err)
	s.CreateNewDraft(nil)

	assert.Len(t, s.Drafts("o"), 1)
	assert.Len(t, s.Drafts(""), 2)
}

func TestDrafts_RemoveDoesNotPersistDraft(t *testing.T) {
	ctx := context.Background()
	storage := newMemStorage(core.NewSynced("o", "x", nil))
	s := store.New(storage)
	require.NoError(t, s.Load(ctx))

	draft, err := s.CreateDraft(ctx, "o")
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, draft.ID))
	assert.True(t, storage.has("o"))
}
