package core

import "context"

// Storage is the contract a persistence collaborator must satisfy.
// Transport and on-disk layout are the collaborator's concern.
type Storage interface {
	// GetAllMetadata returns every scribble without its body.
	GetAllMetadata(ctx context.Context) ([]Scribble, error)

	// GetScribble returns a single scribble including its body.
	GetScribble(ctx context.Context, id string) (Scribble, error)
}

// Writable is implemented by storages that persist changes.
type Writable interface {
	Save(ctx context.Context, s Scribble) error
	Delete(ctx context.Context, id string) error
}

// Watchable is implemented by storages that report external changes.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
