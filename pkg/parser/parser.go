// Package parser turns document text into block trees.
//
// The grammar is line oriented. Each physical line becomes one raw block:
// an ATX heading, an empty paragraph for a blank line, or a paragraph holding
// the inline content of the line. Adjacent line paragraphs are joined later
// by ast.Normalize.
package parser

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/scribble/pkg/ast"
	"github.com/aretw0/scribble/pkg/grammar"
)

// Rule names registered in the grammar table.
const (
	RuleDocument      = "Document"
	RuleBlockContent  = "BlockContent"
	RuleAtxHeading    = "AtxHeading"
	RuleBlankLine     = "BlankLine"
	RuleParagraph     = "Paragraph"
	RuleInline        = "Inline"
	RuleBreak         = "Break"
	RuleTrailingSpace = "TrailingSpace"
	RuleEscape        = "Escape"
	RuleDelimiter     = "Delimiter"
	RuleText          = "Text"
	RuleLineEnd       = "LineEnd"
)

var closingSequence = regexp.MustCompile(`(^|[ \t]+)#+$`)

var document = sync.OnceValue(func() grammar.Parser[[]*ast.Node] {
	return grammar.Ref[[]*ast.Node](NewGrammar(), RuleDocument)
})

// ParseRaw parses text into the raw, unnormalized block sequence.
// A failure is returned as *grammar.Failure.
func ParseRaw(text string) ([]*ast.Node, error) {
	blocks, err := grammar.Run(document(), normalizeNewlines(text))
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []*ast.Node{}
	}
	return blocks, nil
}

// Parse parses text and normalizes the result.
func Parse(text string) ([]*ast.Node, error) {
	raw, err := ParseRaw(text)
	if err != nil {
		return nil, err
	}
	return ast.Normalize(raw), nil
}

// MustParse is like Parse but panics on failure.
func MustParse(text string) []*ast.Node {
	blocks, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return blocks
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// NewGrammar builds the rule table. Parsers obtained from it are safe for
// concurrent use.
func NewGrammar() *grammar.Table {
	t := grammar.NewTable(
		RuleDocument, RuleBlockContent, RuleAtxHeading, RuleBlankLine, RuleParagraph,
		RuleInline, RuleBreak, RuleTrailingSpace, RuleEscape, RuleDelimiter, RuleText,
		RuleLineEnd,
	)

	node := func(name string) grammar.Parser[*ast.Node] { return grammar.Ref[*ast.Node](t, name) }
	lineEnd := grammar.Ref[struct{}](t, RuleLineEnd)

	grammar.Define(t, RuleDocument, func() grammar.Parser[[]*ast.Node] {
		return grammar.Many(node(RuleBlockContent))
	})

	// Headings are tried before paragraphs.
	grammar.Define(t, RuleBlockContent, func() grammar.Parser[*ast.Node] {
		return grammar.Alt(node(RuleAtxHeading), node(RuleBlankLine), node(RuleParagraph))
	})

	grammar.Define(t, RuleAtxHeading, func() grammar.Parser[*ast.Node] {
		marker := grammar.Regexp(`#{1,6}`)
		body := grammar.Left(grammar.Right(grammar.Regexp(`[ \t]+`), grammar.Regexp(`[^\n]*`)), lineEnd)
		inline := grammar.Many(node(RuleInline))
		return grammar.Label(func(c *grammar.Context, pos int) (*ast.Node, int, bool) {
			m, next, ok := marker(c, pos)
			if !ok {
				return nil, pos, false
			}
			content, next, ok := body(c, next)
			if !ok {
				return nil, pos, false
			}
			return heading(len(m), content, inline), next, true
		}, "heading")
	})

	grammar.Define(t, RuleBlankLine, func() grammar.Parser[*ast.Node] {
		return grammar.Map(grammar.Regexp(`[ \t]*\n|[ \t]+$`), func(string) *ast.Node {
			return ast.Paragraph()
		})
	})

	grammar.Define(t, RuleParagraph, func() grammar.Parser[*ast.Node] {
		line := grammar.Right(grammar.Regexp(`[ \t]*`), grammar.Many1(node(RuleInline)))
		return grammar.Map(grammar.Left(line, lineEnd), func(nodes []*ast.Node) *ast.Node {
			return ast.Paragraph(compact(nodes)...)
		})
	})

	grammar.Define(t, RuleInline, func() grammar.Parser[*ast.Node] {
		return grammar.Alt(
			node(RuleBreak),
			node(RuleTrailingSpace),
			node(RuleEscape),
			node(RuleDelimiter),
			node(RuleText),
		)
	})

	grammar.Define(t, RuleBreak, func() grammar.Parser[*ast.Node] {
		atEnd := grammar.Peek(lineEnd)
		return grammar.Alt(
			grammar.Map(grammar.Left(grammar.String(`\`), atEnd), func(string) *ast.Node {
				return ast.Break(true)
			}),
			grammar.Map(grammar.Left(grammar.Regexp(` {2,}`), atEnd), func(string) *ast.Node {
				return ast.Break(false)
			}),
		)
	})

	// Whitespace too short for a break is dropped at line end.
	grammar.Define(t, RuleTrailingSpace, func() grammar.Parser[*ast.Node] {
		return grammar.Map(grammar.Left(grammar.Regexp(`[ \t]+`), grammar.Peek(lineEnd)), func(string) *ast.Node {
			return nil
		})
	})

	grammar.Define(t, RuleEscape, func() grammar.Parser[*ast.Node] {
		return grammar.Map(grammar.Regexp(`\\[[:punct:]]`), func(s string) *ast.Node {
			return ast.Text(s[1:])
		})
	})

	grammar.Define(t, RuleDelimiter, func() grammar.Parser[*ast.Node] {
		run := grammar.Regexp(`\*+|_+`)
		return func(c *grammar.Context, pos int) (*ast.Node, int, bool) {
			s, next, ok := run(c, pos)
			if !ok {
				return nil, pos, false
			}
			canOpen, canClose := flanking(c.Input, pos, next, s[0])
			return ast.DelimiterRun(s, canOpen, canClose), next, true
		}
	})

	grammar.Define(t, RuleText, func() grammar.Parser[*ast.Node] {
		return grammar.Label(grammar.Map(grammar.Regexp(`[^\\*_\n \t]+|[ \t]+|\\`), ast.Text), "text")
	})

	grammar.Define(t, RuleLineEnd, func() grammar.Parser[struct{}] {
		return grammar.Alt(
			grammar.Map(grammar.String("\n"), func(string) struct{} { return struct{}{} }),
			grammar.EOF(),
		)
	})

	return t
}

func heading(level int, content string, inline grammar.Parser[[]*ast.Node]) *ast.Node {
	content = strings.TrimRight(content, " \t")
	content = strings.TrimRight(closingSequence.ReplaceAllString(content, ""), " \t")

	h := ast.Heading(level)
	if content == "" {
		return h
	}
	nodes, err := grammar.Run(inline, content)
	if err != nil {
		h.Children = []*ast.Node{ast.Text(content)}
		return h
	}
	h.Children = compact(nodes)
	if len(h.Children) > 0 {
		h = ast.RemoveTrailingBreak(h)
	}
	h.Children = ast.CollapseText(ast.BalanceEmphasis(h.Children))
	return h
}

// flanking decides whether the run input[start:end] may open or close
// emphasis. Line boundaries count as whitespace. An underscore run inside a
// word neither opens nor closes.
func flanking(input string, start, end int, marker byte) (canOpen, canClose bool) {
	before, after := ' ', ' '
	if start > 0 {
		before, _ = utf8.DecodeLastRuneInString(input[:start])
	}
	if end < len(input) {
		after, _ = utf8.DecodeRuneInString(input[end:])
	}

	left := !isSpace(after) && (!isPunct(after) || isSpace(before) || isPunct(before))
	right := !isSpace(before) && (!isPunct(before) || isSpace(after) || isPunct(after))
	if marker == '_' {
		return left && (!right || isPunct(before)), right && (!left || isPunct(after))
	}
	return left, right
}

func isSpace(r rune) bool { return unicode.IsSpace(r) }

func isPunct(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }

func compact(nodes []*ast.Node) []*ast.Node {
	out := make([]*ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
