package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/scribble/pkg/core"
)

// Follow keeps the store in step with external changes reported by the
// storage. It returns once the watch is established; changes are applied in
// the background until ctx is cancelled.
func (s *Store) Follow(ctx context.Context, pattern string) error {
	w, ok := s.storage.(core.Watchable)
	if !ok {
		return ErrNotWatchable
	}
	events, err := w.Watch(ctx, pattern)
	if err != nil {
		return fmt.Errorf("follow: %w", err)
	}

	s.mu.Lock()
	s.following = true
	s.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer func() {
			s.mu.Lock()
			s.following = false
			s.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				s.applyExternal(ctx, ev)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("follow worker failed", "error", err)
	}))
	return nil
}

func (s *Store) applyExternal(ctx context.Context, ev core.Event) {
	s.logger.Debug("external change", "event", ev.String())

	if ev.Type == core.EventDelete {
		s.mu.Lock()
		sc, ok := s.entities[ev.ID]
		if !ok || sc.Status == core.StatusCore {
			s.mu.Unlock()
			return
		}
		out := s.del(ev.ID)
		s.mu.Unlock()
		s.bus.publish(out)
		return
	}

	fetched, err := s.storage.GetScribble(ctx, ev.ID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("external change not applied", "id", ev.ID, "error", err)
		}
		return
	}
	s.mu.Lock()
	if cur, ok := s.entities[ev.ID]; ok && cur.Status == core.StatusCore {
		s.mu.Unlock()
		return
	}
	out := s.put(s.newScribble(ev.ID, fetched.Text(), fetched.Attributes, core.StatusSynced))
	s.mu.Unlock()
	s.bus.publish(out)
}
