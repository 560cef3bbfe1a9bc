package platform

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/introspection"

	"github.com/aretw0/scribble/pkg/core"
	"github.com/aretw0/scribble/pkg/render"
	"github.com/aretw0/scribble/pkg/resolver"
	"github.com/aretw0/scribble/pkg/store"
)

// Engine wires a storage, the store that caches it and the resolver that
// renders from the store.
type Engine struct {
	Storage  core.Storage
	Store    *store.Store
	Resolver *resolver.Resolver

	logger *slog.Logger
}

// New initializes the storage, loads its metadata and starts keeping the
// resolver cache in step with store mutations until ctx ends.
//
//	eng, err := scribble.New(ctx, "./vault", scribble.WithReadOnly(true))
func New(ctx context.Context, uri string, opts ...Option) (*Engine, error) {
	o := parseOptions(opts)
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	storage, err := initStorage(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	st := store.New(storage, store.WithLogger(logger))
	st.SetCore(o.core...)
	if err := st.Load(ctx); err != nil {
		return nil, err
	}

	rOpts := []resolver.Option{resolver.WithLogger(logger)}
	if n, ok := o.config["max_depth"].(int); ok && n > 0 {
		rOpts = append(rOpts, resolver.WithMaxDepth(n))
	}
	if style, ok := o.config["highlight_style"].(string); ok && style != "" {
		rOpts = append(rOpts, resolver.WithHighlighter(render.NewHighlighter(style)))
	}
	res := resolver.New(st, rOpts...)
	res.Watch(ctx)

	return &Engine{Storage: storage, Store: st, Resolver: res, logger: logger}, nil
}

// Render resolves ref (an id or a title) and writes its output to w.
func (e *Engine) Render(ctx context.Context, w io.Writer, ref string) error {
	return e.Resolver.RenderRef(ctx, w, e.Resolver.ParseRef(ref))
}

// Follow applies external storage changes to the store until ctx ends.
func (e *Engine) Follow(ctx context.Context, pattern string) error {
	return e.Store.Follow(ctx, pattern)
}

// Components lists the introspectable parts of the engine.
func (e *Engine) Components() []introspection.Introspectable {
	out := []introspection.Introspectable{e.Store, e.Resolver}
	if c, ok := e.Storage.(introspection.Introspectable); ok {
		out = append(out, c)
	}
	return out
}
