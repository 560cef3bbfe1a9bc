package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scribblelifecycle "github.com/aretw0/scribble/pkg/adapters/lifecycle"
	"github.com/aretw0/scribble/pkg/core"
)

func TestSource_ForwardsAndCloses(t *testing.T) {
	in := make(chan core.Event, 2)
	in <- core.NewEvent(core.EventCreate, "a")
	in <- core.NewEvent(core.EventDelete, "b")
	close(in)

	src := scribblelifecycle.NewSource(in)
	require.NoError(t, src.Start(context.Background()))

	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-src.Events():
			if !ok {
				assert.Equal(t, []string{"CREATE a", "DELETE b"}, got)
				return
			}
			got = append(got, ev.String())
		case <-timeout:
			t.Fatal("source did not close")
		}
	}
}

func TestSource_StopsOnCancel(t *testing.T) {
	in := make(chan core.Event)
	ctx, cancel := context.WithCancel(context.Background())
	src := scribblelifecycle.NewSource(in)
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not close after cancel")
	}
}

func collect(t *testing.T, src *scribblelifecycle.Source) []string {
	t.Helper()
	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-src.Events():
			if !ok {
				return got
			}
			got = append(got, ev.String())
		case <-timeout:
			t.Fatal("source did not close")
		}
	}
}

func TestSource_Filters(t *testing.T) {
	in := make(chan core.Event, 4)
	in <- core.NewEvent(core.EventCreate, "notes/a")
	in <- core.NewEvent(core.EventModify, "notes/a")
	in <- core.NewEvent(core.EventDelete, "notes/b")
	in <- core.NewEvent(core.EventDelete, "other")
	close(in)

	src := scribblelifecycle.NewSource(in,
		scribblelifecycle.WithTypes(core.EventCreate, core.EventDelete),
		scribblelifecycle.WithFilter(func(ev core.Event) bool { return ev.ID != "other" }),
	)
	require.NoError(t, src.Start(context.Background()))

	assert.Equal(t, []string{"CREATE notes/a", "DELETE notes/b"}, collect(t, src))
	forwarded, filtered := src.Counts()
	assert.Equal(t, int64(2), forwarded)
	assert.Equal(t, int64(2), filtered)
}

func TestSource_StartTwice(t *testing.T) {
	in := make(chan core.Event)
	close(in)
	src := scribblelifecycle.NewSource(in)
	require.NoError(t, src.Start(context.Background()))
	assert.ErrorIs(t, src.Start(context.Background()), scribblelifecycle.ErrStarted)
	assert.Empty(t, collect(t, src))
}
