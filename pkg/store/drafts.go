package store

import (
	"context"
	"fmt"

	"github.com/aretw0/scribble/pkg/core"
)

// CreateDraft copies the scribble originID into a new draft. The origin body
// is fetched first when it is not synced.
func (s *Store) CreateDraft(ctx context.Context, originID string) (core.Scribble, error) {
	origin, err := s.Fetch(ctx, originID)
	if err != nil {
		return core.Scribble{}, fmt.Errorf("create draft: %w", err)
	}
	attrs := origin.Attributes.Clone()
	attrs[core.AttrDraftOf] = originID
	draft := s.newScribble(core.NewID(), origin.Text(), attrs, core.StatusSynced)

	s.mu.Lock()
	ev := s.put(draft)
	s.mu.Unlock()
	s.bus.publish(ev)
	return draft.Clone(), nil
}

// CreateNewDraft creates a draft that has no origin yet.
func (s *Store) CreateNewDraft(attrs core.Attributes) core.Scribble {
	a := attrs.Clone()
	a[core.AttrDraftOf] = ""
	draft := s.newScribble(core.NewID(), "", a, core.StatusSynced)

	s.mu.Lock()
	ev := s.put(draft)
	s.mu.Unlock()
	s.bus.publish(ev)
	return draft.Clone()
}

// CommitDraft applies a draft. A draft without origin is promoted to a new
// scribble with a fresh id; otherwise the origin takes the draft's body and
// attributes. The draft marker is dropped and the draft itself removed.
//
// When the storage is writable the result is saved before memory changes, so
// a failed save leaves both draft and origin as they were. The store lock is
// not held during the save. A draft whose origin was removed fails with
// core.ErrOriginMissing and stays in place.
func (s *Store) CommitDraft(ctx context.Context, draftID string) (core.Scribble, error) {
	s.persist.Lock()
	defer s.persist.Unlock()

	s.mu.RLock()
	draft, ok := s.entities[draftID]
	var originFound bool
	originID, isDraft := draft.DraftOf()
	if ok && isDraft && originID != "" {
		_, originFound = s.entities[originID]
	}
	s.mu.RUnlock()

	switch {
	case !ok:
		return core.Scribble{}, fmt.Errorf("commit %s: %w", draftID, core.ErrNotFound)
	case !isDraft:
		return core.Scribble{}, fmt.Errorf("commit %s: %w", draftID, core.ErrNotDraft)
	case originID != "" && !originFound:
		return core.Scribble{}, fmt.Errorf("commit %s onto %s: %w", draftID, originID, core.ErrOriginMissing)
	}

	attrs := draft.Attributes.Clone()
	delete(attrs, core.AttrDraftOf)

	targetID := originID
	if originID == "" {
		targetID = core.NewID()
	}
	committed := s.newScribble(targetID, draft.Text(), attrs, core.StatusSynced)

	if w, ok := s.storage.(core.Writable); ok {
		if err := w.Save(ctx, committed); err != nil {
			return core.Scribble{}, fmt.Errorf("commit %s: %w", draftID, err)
		}
	}

	s.mu.Lock()
	events := []core.Event{s.put(committed)}
	if _, ok := s.entities[draftID]; ok {
		events = append(events, s.del(draftID))
	}
	s.mu.Unlock()

	s.logger.Debug("draft committed", "draft", draftID, "id", targetID)
	s.bus.publish(events...)
	return committed.Clone(), nil
}

// Drafts lists the drafts of originID, or every draft when originID is empty.
func (s *Store) Drafts(originID string) []core.Scribble {
	var out []core.Scribble
	for _, sc := range s.List() {
		origin, ok := sc.DraftOf()
		if ok && (originID == "" || origin == originID) {
			out = append(out, sc)
		}
	}
	return out
}
