package store

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Entities      int        `json:"entities"`
	Titles        int        `json:"titles"`
	Drafts        int        `json:"drafts"`
	LoadStatus    LoadStatus `json:"load_status"`
	LastError     string     `json:"last_error,omitempty"`
	StorageType   string     `json:"storage_type"`
	Following     bool       `json:"following"`
	Subscribers   int        `json:"subscribers"`
	DroppedEvents int        `json:"dropped_events"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drafts := 0
	for _, sc := range s.entities {
		if sc.IsDraft() {
			drafts++
		}
	}

	storageType := "memory"
	if s.storage != nil {
		storageType = "storage"
		if comp, ok := s.storage.(introspection.Component); ok {
			storageType = comp.ComponentType()
		}
	}

	state := StoreState{
		Entities:    len(s.entities),
		Titles:      len(s.titles),
		Drafts:      drafts,
		LoadStatus:  s.status,
		StorageType: storageType,
		Following:   s.following,
	}
	if s.loadErr != nil {
		state.LastError = s.loadErr.Error()
	}
	state.Subscribers, state.DroppedEvents = s.bus.stats()
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
