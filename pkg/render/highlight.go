package render

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Highlighter renders source code as inline-styled HTML.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter creates a highlighter for a chroma style name. Unknown names
// fall back to the chroma default style.
func NewHighlighter(styleName string) *Highlighter {
	if styleName == "" {
		styleName = DefaultStyle
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4)),
	}
}

// StyleName reports the style in use.
func (h *Highlighter) StyleName() string { return h.style.Name }

// Highlight writes source highlighted for language. The language may be a
// lexer name, alias, file name or MIME type.
func (h *Highlighter) Highlight(w io.Writer, language, source string) error {
	lexer := chroma.Coalesce(LexerFor(language))
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return Plain(w, source)
	}
	return h.formatter.Format(w, h.style, iterator)
}

var defaultHighlighter = NewHighlighter(DefaultStyle)

// Highlight uses the default highlighter.
func Highlight(w io.Writer, language, source string) error {
	return defaultHighlighter.Highlight(w, language, source)
}

// HasLexer reports whether language maps to a specific lexer.
func HasLexer(language string) bool {
	return LexerFor(language) != lexers.Fallback
}

// LexerFor picks a lexer for a language hint, never returning nil.
func LexerFor(language string) chroma.Lexer {
	language = strings.TrimSpace(language)
	if language == "" {
		return lexers.Fallback
	}
	if l := lexers.Get(language); l != nil {
		return l
	}
	if l := lexers.MatchMimeType(language); l != nil {
		return l
	}
	if i := strings.LastIndexAny(language, "/-+."); i >= 0 && i < len(language)-1 {
		if l := lexers.Get(language[i+1:]); l != nil {
			return l
		}
	}
	return lexers.Fallback
}
