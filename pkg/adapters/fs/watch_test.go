package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scribble/pkg/adapters/fs"
	"github.com/aretw0/scribble/pkg/core"
)

func nextEvent(t *testing.T, ctx context.Context, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed")
		return ev
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
	return core.Event{}
}

func setupWatch(t *testing.T, pattern string) (*fs.Repository, string, context.Context, <-chan core.Event) {
	t.Helper()
	repo, root := setupRepo(t, func(c *fs.Config) { c.Debounce = 20 * time.Millisecond })
	_, err := repo.GetAllMetadata(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	events, err := repo.Watch(ctx, pattern)
	require.NoError(t, err)
	return repo, root, ctx, events
}

func TestWatch_Lifecycle(t *testing.T) {
	_, root, ctx, events := setupWatch(t, "")

	target := filepath.Join(root, "doc.md")
	require.NoError(t, os.WriteFile(target, []byte("---\ntitle: Doc\n---\nHello"), 0644))
	ev := nextEvent(t, ctx, events)
	assert.Equal(t, core.EventCreate, ev.Type)
	assert.Equal(t, "doc", ev.ID)

	require.NoError(t, os.WriteFile(target, []byte("---\ntitle: Doc\n---\nChanged"), 0644))
	ev = nextEvent(t, ctx, events)
	assert.Equal(t, core.EventModify, ev.Type)
	assert.Equal(t, "doc", ev.ID)

	require.NoError(t, os.Remove(target))
	ev = nextEvent(t, ctx, events)
	assert.Equal(t, core.EventDelete, ev.Type)
	assert.Equal(t, "doc", ev.ID)
}

func TestWatch_SavedFileIsModify(t *testing.T) {
	repo, _, ctx, events := setupWatch(t, "")

	require.NoError(t, repo.Save(ctx, core.NewSynced("mine", "body", nil)))
	ev := nextEvent(t, ctx, events)
	assert.Equal(t, core.EventModify, ev.Type, "the repository already knows files it wrote")
	assert.Equal(t, "mine", ev.ID)
}

func TestWatch_PatternAndSubdirectories(t *testing.T) {
	_, root, ctx, events := setupWatch(t, "notes/**/*.md")

	require.NoError(t, os.WriteFile(filepath.Join(root, "outside.md"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "notes", "deep"), 0755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes", "deep", "in.md"), []byte("y"), 0644))

	ev := nextEvent(t, ctx, events)
	assert.Equal(t, core.EventCreate, ev.Type)
	assert.Equal(t, "notes/deep/in", ev.ID)
}

func TestWatch_IgnoresTempAndSystemFiles(t *testing.T) {
	_, root, ctx, events := setupWatch(t, "")

	require.NoError(t, os.WriteFile(filepath.Join(root, fs.TempFilePrefix+"1"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".scribble"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".scribble", "x.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.md"), []byte("x"), 0644))

	ev := nextEvent(t, ctx, events)
	assert.Equal(t, "real", ev.ID)
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	events, err := repo.Watch(ctx, "**/*.md")
	require.NoError(t, err)
	assert.True(t, repo.State().(fs.RepositoryState).WatcherActive)

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Eventually(t, func() bool {
		return !repo.State().(fs.RepositoryState).WatcherActive
	}, time.Second, 10*time.Millisecond)
}

func TestWatch_InvalidPattern(t *testing.T) {
	repo, _ := setupRepo(t)
	_, err := repo.Watch(context.Background(), "[")
	assert.Error(t, err)
}
