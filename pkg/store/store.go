// Package store holds the in-memory scribble repository: the entity set, the
// title index, the load status and the draft workflow. Storage collaborators
// feed it through core.Storage and optionally persist its changes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/aretw0/scribble/pkg/core"
)

// ErrNotWatchable is returned by Follow when the storage cannot report changes.
var ErrNotWatchable = errors.New("storage does not support watching")

// LoadStatus tracks the metadata load.
type LoadStatus string

const (
	LoadIdle      LoadStatus = "idle"
	LoadLoading   LoadStatus = "loading"
	LoadSucceeded LoadStatus = "succeeded"
	LoadFailed    LoadStatus = "failed"
)

// Store is the scribble repository. It is safe for concurrent use.
type Store struct {
	storage core.Storage
	logger  *slog.Logger

	// persist serializes commands that write to storage. mu is never held
	// across storage I/O.
	persist sync.Mutex

	mu       sync.RWMutex
	entities map[string]core.Scribble
	titles   map[string]map[string]struct{}
	status   LoadStatus
	loadErr  error

	following bool

	fetches singleflight.Group
	bus     *broker
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Attribute schema diagnostics go here.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store backed by storage. A nil storage gives a purely
// in-memory store.
func New(storage core.Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		logger:   slog.New(slog.DiscardHandler),
		entities: make(map[string]core.Scribble),
		titles:   make(map[string]map[string]struct{}),
		status:   LoadIdle,
		bus:      newBroker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load pulls the metadata of every scribble from storage. Core scribbles are
// never replaced by storage entries.
func (s *Store) Load(ctx context.Context) error {
	if s.storage == nil {
		s.mu.Lock()
		s.status = LoadSucceeded
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.status = LoadLoading
	s.loadErr = nil
	s.mu.Unlock()

	all, err := s.storage.GetAllMetadata(ctx)

	s.mu.Lock()
	if err != nil {
		s.status = LoadFailed
		s.loadErr = err
		s.mu.Unlock()
		s.logger.Error("metadata load failed", "error", err)
		return fmt.Errorf("load: %w", err)
	}
	var events []core.Event
	for _, sc := range all {
		if sc.ID == "" {
			continue
		}
		if cur, ok := s.entities[sc.ID]; ok && cur.Status == core.StatusCore {
			continue
		}
		events = append(events, s.put(s.recompute(sc)))
	}
	s.status = LoadSucceeded
	s.mu.Unlock()

	s.logger.Debug("metadata loaded", "count", len(all))
	s.bus.publish(events...)
	return nil
}

// SetCore installs scribbles that ship with the application.
func (s *Store) SetCore(scribbles ...core.Scribble) {
	s.mu.Lock()
	events := make([]core.Event, 0, len(scribbles))
	for _, sc := range scribbles {
		if sc.ID == "" {
			continue
		}
		events = append(events, s.put(s.recompute(sc.WithBody(sc.Text(), core.StatusCore))))
	}
	s.mu.Unlock()
	s.bus.publish(events...)
}

// Get returns a copy of the scribble with id.
func (s *Store) Get(id string) (core.Scribble, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.entities[id]
	if !ok {
		return core.Scribble{}, false
	}
	return sc.Clone(), true
}

// ByTitle returns the scribble titled title. When several share the title,
// the one with the greatest id wins.
func (s *Store) ByTitle(title string) (core.Scribble, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best := ""
	for id := range s.titles[title] {
		if id > best {
			best = id
		}
	}
	if best == "" {
		return core.Scribble{}, false
	}
	return s.entities[best].Clone(), true
}

// IDsByTitle lists every id carrying title, sorted.
func (s *Store) IDsByTitle(title string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.titles[title]))
	for id := range s.titles[title] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ByTitlePrefix returns scribbles whose title starts with prefix, ordered by
// title and then id.
func (s *Store) ByTitlePrefix(prefix string) []core.Scribble {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Scribble
	for title, ids := range s.titles {
		if !strings.HasPrefix(title, prefix) {
			continue
		}
		for id := range ids {
			out = append(out, s.entities[id].Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title() != out[j].Title() {
			return out[i].Title() < out[j].Title()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// List returns every scribble ordered by id.
func (s *Store) List() []core.Scribble {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Scribble, 0, len(s.entities))
	for _, sc := range s.entities {
		out = append(out, sc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Status reports the metadata load status and its last error.
func (s *Store) Status() (LoadStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.loadErr
}

// Upsert inserts or replaces a scribble in memory. Computed attributes are
// re-derived from the attributes.
func (s *Store) Upsert(sc core.Scribble) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	s.mu.Lock()
	ev := s.put(s.recompute(sc.Clone()))
	s.mu.Unlock()
	s.bus.publish(ev)
	return nil
}

// SetAttribute sets one attribute of an existing scribble.
func (s *Store) SetAttribute(id, key, value string) error {
	return s.update(id, func(sc core.Scribble) core.Scribble {
		sc.Attributes[key] = value
		return sc
	})
}

// RemoveAttribute deletes one attribute of an existing scribble.
func (s *Store) RemoveAttribute(id, key string) error {
	return s.update(id, func(sc core.Scribble) core.Scribble {
		delete(sc.Attributes, key)
		return sc
	})
}

// UpdateBody replaces the body. A scribble without a synced body becomes
// synced.
func (s *Store) UpdateBody(id, body string) error {
	return s.update(id, func(sc core.Scribble) core.Scribble {
		status := sc.Status
		if !status.HasBody() {
			status = core.StatusSynced
		}
		return sc.WithBody(body, status)
	})
}

func (s *Store) update(id string, fn func(core.Scribble) core.Scribble) error {
	s.mu.Lock()
	sc, ok := s.entities[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	ev := s.put(s.recompute(fn(sc.Clone())))
	s.mu.Unlock()
	s.bus.publish(ev)
	return nil
}

// Remove deletes a scribble. Unless it is a draft or a core scribble, the
// deletion is persisted first when the storage is writable. Readers are not
// blocked while storage is written.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.persist.Lock()
	defer s.persist.Unlock()

	s.mu.RLock()
	sc, ok := s.entities[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("remove %s: %w", id, core.ErrNotFound)
	}
	if w, ok := s.storage.(core.Writable); ok && !sc.IsDraft() && sc.Status != core.StatusCore {
		if err := w.Delete(ctx, id); err != nil && !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("remove %s: %w", id, err)
		}
	}

	s.mu.Lock()
	if _, ok := s.entities[id]; !ok {
		s.mu.Unlock()
		return nil
	}
	ev := s.del(id)
	s.mu.Unlock()
	s.bus.publish(ev)
	return nil
}

// Fetch makes sure the body of id is synced, pulling it from storage when
// needed. While the pull is in flight the scribble is body-pending; a failed
// pull leaves it failed with the error message recorded.
func (s *Store) Fetch(ctx context.Context, id string) (core.Scribble, error) {
	s.mu.Lock()
	sc, ok := s.entities[id]
	if !ok {
		s.mu.Unlock()
		return core.Scribble{}, fmt.Errorf("fetch %s: %w", id, core.ErrNotFound)
	}
	if sc.IsSynced() {
		s.mu.Unlock()
		return sc.Clone(), nil
	}
	if s.storage == nil {
		err := errors.New("no storage configured")
		s.entities[id] = sc.WithStatus(core.StatusFailed, err.Error())
		s.mu.Unlock()
		return core.Scribble{}, fmt.Errorf("fetch %s: %w", id, err)
	}
	if sc.Status != core.StatusBodyPending {
		s.entities[id] = sc.WithStatus(core.StatusBodyPending, "")
	}
	s.mu.Unlock()

	ch := s.fetches.DoChan(id, func() (any, error) {
		return s.storage.GetScribble(context.WithoutCancel(ctx), id)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return core.Scribble{}, ctx.Err()
	}

	s.mu.Lock()
	cur, ok := s.entities[id]
	if !ok {
		s.mu.Unlock()
		return core.Scribble{}, fmt.Errorf("fetch %s: %w", id, core.ErrNotFound)
	}
	if cur.Status != core.StatusBodyPending {
		// Settled by a concurrent caller or a local edit.
		s.mu.Unlock()
		if cur.Status == core.StatusFailed {
			return core.Scribble{}, fmt.Errorf("fetch %s: %s", id, cur.Error)
		}
		return cur.Clone(), nil
	}
	if res.Err != nil {
		s.entities[id] = cur.WithStatus(core.StatusFailed, res.Err.Error())
		s.mu.Unlock()
		s.logger.Warn("fetch failed", "id", id, "error", res.Err)
		return core.Scribble{}, fmt.Errorf("fetch %s: %w", id, res.Err)
	}
	fetched := res.Val.(core.Scribble)
	synced := s.newScribble(id, fetched.Text(), fetched.Attributes, core.StatusSynced)
	ev := s.put(synced)
	s.mu.Unlock()

	s.bus.publish(ev)
	return synced.Clone(), nil
}

// put stores sc and maintains the title index. Callers hold mu.
func (s *Store) put(sc core.Scribble) core.Event {
	typ := core.EventCreate
	if old, ok := s.entities[sc.ID]; ok {
		typ = core.EventModify
		s.unindex(old)
	}
	s.entities[sc.ID] = sc
	if title := sc.Title(); title != "" {
		ids, ok := s.titles[title]
		if !ok {
			ids = make(map[string]struct{})
			s.titles[title] = ids
		}
		ids[sc.ID] = struct{}{}
	}
	return core.NewEvent(typ, sc.ID)
}

// del removes id. Callers hold mu.
func (s *Store) del(id string) core.Event {
	if old, ok := s.entities[id]; ok {
		s.unindex(old)
		delete(s.entities, id)
	}
	return core.NewEvent(core.EventDelete, id)
}

func (s *Store) unindex(sc core.Scribble) {
	title := sc.Title()
	ids, ok := s.titles[title]
	if !ok {
		return
	}
	delete(ids, sc.ID)
	if len(ids) == 0 {
		delete(s.titles, title)
	}
}

func (s *Store) recompute(sc core.Scribble) core.Scribble {
	return core.Recompute(sc, s.logger)
}

func (s *Store) newScribble(id, body string, attrs core.Attributes, status core.Status) core.Scribble {
	return s.recompute(core.Scribble{ID: id, Body: &body, Attributes: attrs.Clone(), Status: status})
}
