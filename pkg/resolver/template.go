package resolver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"

	"github.com/aretw0/scribble/pkg/core"
	"github.com/aretw0/scribble/pkg/render"
)

// TemplateCompiler compiles renderer documents written as html/template
// source. Besides the host fields, templates can call:
//
//	markdown TEXT        render TEXT as markdown
//	highlight LANG TEXT  syntax-highlight TEXT
//	embed REF            render another scribble by id or title
//	attr KEY             host attribute value
type TemplateCompiler struct {
	highlighter *render.Highlighter
}

// NewTemplateCompiler creates a compiler using h for the highlight function.
func NewTemplateCompiler(h *render.Highlighter) *TemplateCompiler {
	if h == nil {
		h = render.NewHighlighter(render.DefaultStyle)
	}
	return &TemplateCompiler{highlighter: h}
}

// Compile parses the body of doc. Only documents of the template content
// type are accepted.
func (c *TemplateCompiler) Compile(_ context.Context, doc core.Scribble, env Embedder) (Renderer, error) {
	if ct := doc.ContentType(); ct != ContentTypeTemplate {
		return nil, fmt.Errorf("content-type %q is not compilable", ct)
	}
	tmpl, err := template.New(doc.ID).
		Option("missingkey=zero").
		Funcs(c.funcs(context.Background(), env, core.Scribble{})).
		Parse(doc.Text())
	if err != nil {
		return nil, err
	}
	return &templateRenderer{id: doc.ID, base: tmpl, compiler: c, env: env}, nil
}

func (c *TemplateCompiler) funcs(ctx context.Context, env Embedder, host core.Scribble) template.FuncMap {
	return template.FuncMap{
		"markdown": func(text string) (template.HTML, error) {
			var b bytes.Buffer
			if err := render.Markdown(&b, text); err != nil {
				return "", err
			}
			return template.HTML(b.String()), nil
		},
		"highlight": func(lang, text string) (template.HTML, error) {
			var b bytes.Buffer
			if err := c.highlighter.Highlight(&b, lang, text); err != nil {
				return "", err
			}
			return template.HTML(b.String()), nil
		},
		"embed": func(ref string) template.HTML {
			if env == nil {
				return ""
			}
			return template.HTML(env.Embed(ctx, ref))
		},
		"attr": func(key string) string {
			return host.Attributes[key]
		},
	}
}

// templateRenderer is a compiled renderer document. The parsed base template
// is never executed; each render runs a clone bound to the current host.
type templateRenderer struct {
	id       string
	base     *template.Template
	compiler *TemplateCompiler
	env      Embedder
}

func (*templateRenderer) Kind() Kind { return KindCompiled }

func (t *templateRenderer) Render(ctx context.Context, w io.Writer, host core.Scribble) error {
	tmpl, err := t.base.Clone()
	if err != nil {
		return err
	}
	tmpl.Funcs(t.compiler.funcs(ctx, t.env, host))
	return tmpl.Execute(w, newHostView(host))
}

// hostView is the data a template sees.
type hostView struct {
	ID          string
	Title       string
	ContentType string
	Body        string
	Attributes  map[string]string
	Tags        []string
	List        []string
}

func newHostView(s core.Scribble) hostView {
	return hostView{
		ID:          s.ID,
		Title:       s.Title(),
		ContentType: s.ContentType(),
		Body:        s.Text(),
		Attributes:  s.Attributes.Clone(),
		Tags:        append([]string{}, s.Computed.Tags...),
		List:        append([]string{}, s.Computed.List...),
	}
}
