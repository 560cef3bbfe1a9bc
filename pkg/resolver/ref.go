package resolver

import (
	"github.com/aretw0/scribble/pkg/core"
)

// Ref names a scribble by id or by title.
type Ref struct {
	ID    string
	Title string
}

func (r Ref) String() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Title
}

// ParseRef interprets an element or embed value. Generated ids and ids known
// to the source are ids; anything else is a title.
func (r *Resolver) ParseRef(s string) Ref {
	if core.IsID(s) {
		return Ref{ID: s}
	}
	if _, ok := r.src.Get(s); ok {
		return Ref{ID: s}
	}
	return Ref{Title: s}
}

func (r *Resolver) lookup(ref Ref) (core.Scribble, bool) {
	if ref.ID != "" {
		return r.src.Get(ref.ID)
	}
	if ref.Title != "" {
		return r.src.ByTitle(ref.Title)
	}
	return core.Scribble{}, false
}
