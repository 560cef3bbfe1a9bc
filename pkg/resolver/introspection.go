package resolver

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// CachedRenderer describes one cache entry.
type CachedRenderer struct {
	ID         string    `json:"id"`
	Hash       string    `json:"hash"`
	Kind       Kind      `json:"kind"`
	CompiledAt time.Time `json:"compiled_at"`
}

// ResolverState exposes internal state for observability.
type ResolverState struct {
	Cached         []CachedRenderer `json:"cached"`
	Compiles       int64            `json:"compiles"`
	InFlight       int64            `json:"in_flight"`
	StaleDiscarded int64            `json:"stale_discarded"`
	MaxDepth       int              `json:"max_depth"`
	Watching       bool             `json:"watching"`
	HighlightStyle string           `json:"highlight_style"`
}

// State implements introspection.Introspectable.
func (r *Resolver) State() any {
	r.mu.RLock()
	cached := make([]CachedRenderer, 0, len(r.cache))
	for key, a := range r.cache {
		cached = append(cached, CachedRenderer{
			ID:         key.id,
			Hash:       key.hash[:12],
			Kind:       a.renderer.Kind(),
			CompiledAt: a.compiledAt,
		})
	}
	r.mu.RUnlock()
	sort.Slice(cached, func(i, j int) bool { return cached[i].ID < cached[j].ID })

	return ResolverState{
		Cached:         cached,
		Compiles:       r.compiles.Load(),
		InFlight:       r.inFlight.Load(),
		StaleDiscarded: r.stale.Load(),
		MaxDepth:       r.maxDepth,
		Watching:       r.watching.Load(),
		HighlightStyle: r.highlighter.StyleName(),
	}
}

// ComponentType implements introspection.Component.
func (r *Resolver) ComponentType() string {
	return "resolver"
}

var _ introspection.Introspectable = (*Resolver)(nil)
var _ introspection.Component = (*Resolver)(nil)
