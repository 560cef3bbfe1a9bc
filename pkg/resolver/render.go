package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/scribble/pkg/core"
)

// RendererFor picks the renderer for host: the scribble named by its element
// attribute, else the renderer document registered for its content type,
// else a built-in handler.
func (r *Resolver) RendererFor(ctx context.Context, host core.Scribble) Renderer {
	if !onPath(ctx, host.ID) {
		ctx = pushPath(ctx, host.ID)
	}
	if element := host.Element(); element != "" {
		return r.Resolve(ctx, r.ParseRef(element))
	}
	if ct := host.ContentType(); ct != "" {
		title := RendererTitlePrefix + ct
		if _, ok := r.src.ByTitle(title); ok {
			return r.Resolve(ctx, Ref{Title: title})
		}
	}
	return r.builtin(host.ContentType())
}

// Render writes host through its renderer. Renderer failures, panics
// included, are replaced by the error renderer output; the returned error
// only reports a failure to write to w.
func (r *Resolver) Render(ctx context.Context, w io.Writer, host core.Scribble) error {
	var buf bytes.Buffer
	r.renderTo(ctx, &buf, host)
	_, err := w.Write(buf.Bytes())
	return err
}

// RenderRef looks up ref and renders it.
func (r *Resolver) RenderRef(ctx context.Context, w io.Writer, ref Ref) error {
	host, ok := r.lookup(ref)
	if !ok {
		return failure(ref.String(), ReasonUnknown, core.ErrNotFound).Render(ctx, w, core.Scribble{})
	}
	return r.Render(ctx, w, host)
}

// Embed renders the scribble named by ref and returns the HTML. It is what
// compiled renderers use to nest other scribbles.
func (r *Resolver) Embed(ctx context.Context, ref string) string {
	var buf bytes.Buffer
	parsed := r.ParseRef(ref)
	host, ok := r.lookup(parsed)
	if !ok {
		_ = failure(ref, ReasonUnknown, core.ErrNotFound).Render(ctx, &buf, core.Scribble{})
		return buf.String()
	}
	r.renderTo(ctx, &buf, host)
	return buf.String()
}

func (r *Resolver) renderTo(ctx context.Context, buf *bytes.Buffer, host core.Scribble) {
	if onPath(ctx, host.ID) {
		r.logger.Warn("render cycle", "id", host.ID, "path", pathString(ctx))
		_ = failure(host.ID, ReasonCycle, fmt.Errorf("path %s", pathString(ctx))).Render(ctx, buf, host)
		return
	}
	if depthOf(ctx) >= r.maxDepth {
		_ = failure(host.ID, ReasonDepth, fmt.Errorf("nesting deeper than %d", r.maxDepth)).Render(ctx, buf, host)
		return
	}
	if !host.IsSynced() {
		fetched, err := r.src.Fetch(ctx, host.ID)
		if err != nil {
			_ = failure(host.ID, ReasonFetch, err).Render(ctx, buf, host)
			return
		}
		host = fetched
	}

	ctx = pushPath(ctx, host.ID)
	renderer := r.RendererFor(ctx, host)

	var out bytes.Buffer
	if err := r.safeRender(ctx, renderer, &out, host); err != nil {
		r.logger.Warn("render failed", "id", host.ID, "kind", renderer.Kind(), "error", err)
		var re *ResolutionError
		if !errors.As(err, &re) {
			re = &ResolutionError{Ref: host.ID, Reason: ReasonRender, Err: err}
		}
		_ = (&ErrorRenderer{Err: re}).Render(ctx, buf, host)
		return
	}
	buf.Write(out.Bytes())
}

func (r *Resolver) safeRender(ctx context.Context, renderer Renderer, w io.Writer, host core.Scribble) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("renderer panic: %v", p)
		}
	}()
	return renderer.Render(ctx, w, host)
}
