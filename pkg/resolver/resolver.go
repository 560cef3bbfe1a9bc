// Package resolver maps a scribble to the renderer that displays it.
//
// A scribble's element attribute, or a renderer document registered for its
// content type, names another scribble whose body is compiled into a
// renderer. Compiled renderers are cached per (id, body hash); concurrent
// resolutions of one key share a single compile. Every failure, including
// unknown references, compile errors and reference cycles, degrades to an
// ErrorRenderer so one broken document cannot break the page hosting it.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aretw0/scribble/pkg/core"
	"github.com/aretw0/scribble/pkg/render"
)

// Source is the repository the resolver reads scribbles from.
// *store.Store implements it.
type Source interface {
	Get(id string) (core.Scribble, bool)
	ByTitle(title string) (core.Scribble, bool)
	Fetch(ctx context.Context, id string) (core.Scribble, error)
	Subscribe(buffer int) (<-chan core.Event, func())
}

// Compiler turns a renderer document into a Renderer. Compiled renderers
// embed other scribbles through env.
type Compiler interface {
	Compile(ctx context.Context, doc core.Scribble, env Embedder) (Renderer, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, doc core.Scribble, env Embedder) (Renderer, error)

func (f CompilerFunc) Compile(ctx context.Context, doc core.Scribble, env Embedder) (Renderer, error) {
	return f(ctx, doc, env)
}

// Embedder renders another scribble in place.
type Embedder interface {
	Embed(ctx context.Context, ref string) string
}

type cacheKey struct {
	id   string
	hash string
}

type artifact struct {
	renderer   Renderer
	compiledAt time.Time
}

// Resolver resolves and caches renderers.
type Resolver struct {
	src         Source
	compiler    Compiler
	highlighter *render.Highlighter
	logger      *slog.Logger
	maxDepth    int

	mu    sync.RWMutex
	cache map[cacheKey]artifact

	group    singleflight.Group
	compiles atomic.Int64
	inFlight atomic.Int64
	stale    atomic.Int64
	watching atomic.Bool
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCompiler replaces the template compiler.
func WithCompiler(c Compiler) Option {
	return func(r *Resolver) { r.compiler = c }
}

// WithHighlighter sets the highlighter used by the built-in code renderer.
func WithHighlighter(h *render.Highlighter) Option {
	return func(r *Resolver) { r.highlighter = h }
}

// WithMaxDepth bounds nested rendering.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// New creates a resolver reading from src.
func New(src Source, opts ...Option) *Resolver {
	r := &Resolver{
		src:      src,
		logger:   slog.New(slog.DiscardHandler),
		maxDepth: defaultMaxEmbedDepth,
		cache:    make(map[cacheKey]artifact),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.highlighter == nil {
		r.highlighter = render.NewHighlighter(render.DefaultStyle)
	}
	if r.compiler == nil {
		r.compiler = NewTemplateCompiler(r.highlighter)
	}
	return r
}

// Resolve returns the renderer compiled from the scribble ref points to.
// It never fails: problems are reported through an *ErrorRenderer.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) Renderer {
	name := ref.String()
	doc, ok := r.lookup(ref)
	if !ok {
		return failure(name, ReasonUnknown, core.ErrNotFound)
	}
	if onPath(ctx, doc.ID) {
		r.logger.Warn("renderer cycle", "ref", name, "path", pathString(ctx))
		return failure(name, ReasonCycle, fmt.Errorf("path %s", pathString(ctx)))
	}
	if !doc.IsSynced() {
		fetched, err := r.src.Fetch(ctx, doc.ID)
		if err != nil {
			return failure(name, ReasonFetch, err)
		}
		doc = fetched
	}

	key := cacheKey{id: doc.ID, hash: contentHash(doc.Text())}
	if a, ok := r.cached(key); ok {
		return a.renderer
	}

	ch := r.group.DoChan(key.id+"\x00"+key.hash, func() (any, error) {
		// A flight for this key may have finished since the lookup above.
		if a, ok := r.cached(key); ok {
			return a.renderer, nil
		}
		return r.compile(context.WithoutCancel(ctx), key, doc), nil
	})
	select {
	case res := <-ch:
		return res.Val.(Renderer)
	case <-ctx.Done():
		return failure(name, ReasonCanceled, ctx.Err())
	}
}

// compile runs inside the single flight for key. A result whose document
// changed or vanished meanwhile is dropped rather than cached.
func (r *Resolver) compile(ctx context.Context, key cacheKey, doc core.Scribble) Renderer {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	r.compiles.Add(1)

	start := time.Now()
	renderer, err := r.safeCompile(ctx, doc)
	if err != nil {
		r.logger.Warn("compile failed", "id", doc.ID, "error", err)
		renderer = failure(doc.ID, ReasonCompile, err)
	}

	cur, ok := r.src.Get(key.id)
	if !ok || !cur.IsSynced() || contentHash(cur.Text()) != key.hash {
		r.stale.Add(1)
		r.logger.Debug("discarding stale compile", "id", key.id)
		return failure(doc.ID, ReasonStale, errors.New("document changed while compiling"))
	}

	r.mu.Lock()
	r.cache[key] = artifact{renderer: renderer, compiledAt: start}
	r.mu.Unlock()
	r.logger.Debug("compiled renderer", "id", doc.ID, "kind", renderer.Kind(), "took", time.Since(start))
	return renderer
}

func (r *Resolver) safeCompile(ctx context.Context, doc core.Scribble) (renderer Renderer, err error) {
	defer func() {
		if p := recover(); p != nil {
			renderer, err = nil, fmt.Errorf("compiler panic: %v", p)
		}
	}()
	renderer, err = r.compiler.Compile(ctx, doc, r)
	if err == nil && renderer == nil {
		err = errors.New("compiler returned no renderer")
	}
	return renderer, err
}

func (r *Resolver) cached(key cacheKey) (artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.cache[key]
	return a, ok
}

// Evict drops every cached renderer compiled from id.
func (r *Resolver) Evict(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key := range r.cache {
		if key.id == id {
			delete(r.cache, key)
			n++
		}
	}
	return n
}

// Compiles reports how many compiles ran.
func (r *Resolver) Compiles() int64 { return r.compiles.Load() }

func contentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}
