package resolver

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/aretw0/scribble/pkg/core"
	"github.com/aretw0/scribble/pkg/render"
)

// Kind tags the closed set of renderer variants.
type Kind string

const (
	KindMarkdown  Kind = "markdown"
	KindPlain     Kind = "plain"
	KindHighlight Kind = "highlight"
	KindCompiled  Kind = "compiled"
	KindError     Kind = "error"
)

// Content types with a meaning to the resolver.
const (
	ContentTypeMarkdown  = "text/markdown"
	ContentTypePlain     = "text/plain"
	ContentTypeTemplate  = "application/vnd.scribble.template"
	RendererTitlePrefix  = "$:core/renderer/"
	templateSourceLexer  = "go-html-template"
	defaultMaxEmbedDepth = 32
)

// Renderer turns a host scribble into HTML.
type Renderer interface {
	Kind() Kind
	Render(ctx context.Context, w io.Writer, host core.Scribble) error
}

type markdownRenderer struct{}

func (markdownRenderer) Kind() Kind { return KindMarkdown }

func (markdownRenderer) Render(_ context.Context, w io.Writer, host core.Scribble) error {
	return render.Markdown(w, host.Text())
}

type plainRenderer struct{}

func (plainRenderer) Kind() Kind { return KindPlain }

func (plainRenderer) Render(_ context.Context, w io.Writer, host core.Scribble) error {
	return render.Plain(w, host.Text())
}

type highlightRenderer struct {
	h        *render.Highlighter
	language string
}

func (highlightRenderer) Kind() Kind { return KindHighlight }

func (r highlightRenderer) Render(_ context.Context, w io.Writer, host core.Scribble) error {
	lang := r.language
	if lang == "" {
		lang = host.ContentType()
	}
	return r.h.Highlight(w, lang, host.Text())
}

// ErrorRenderer stands in for a renderer that could not be resolved. It shows
// the diagnostic instead of the content.
type ErrorRenderer struct {
	Err *ResolutionError
}

func (*ErrorRenderer) Kind() Kind { return KindError }

func (e *ErrorRenderer) Render(_ context.Context, w io.Writer, _ core.Scribble) error {
	_, err := fmt.Fprintf(w, "<div class=\"scribble-error\" data-reason=\"%s\">%s</div>\n",
		html.EscapeString(string(e.Err.Reason)), html.EscapeString(e.Err.Error()))
	return err
}

var (
	markdownTypes = map[string]bool{ContentTypeMarkdown: true, "text/x-markdown": true}
	plainTypes    = map[string]bool{ContentTypePlain: true, "": true}
)

// builtin picks the built-in handler for a content type.
func (r *Resolver) builtin(contentType string) Renderer {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case markdownTypes[ct]:
		return markdownRenderer{}
	case plainTypes[ct]:
		return plainRenderer{}
	case ct == ContentTypeTemplate:
		return highlightRenderer{h: r.highlighter, language: templateSourceLexer}
	case render.HasLexer(ct):
		return highlightRenderer{h: r.highlighter}
	}
	return plainRenderer{}
}
