// Package render writes syntax trees and source text as HTML.
package render

import (
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/scribble/pkg/ast"
	"github.com/aretw0/scribble/pkg/parser"
)

// HTML writes normalized blocks as HTML.
func HTML(w io.Writer, blocks []*ast.Node) error {
	var b strings.Builder
	for _, n := range blocks {
		writeNode(&b, n)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// HTMLString is HTML into a string.
func HTMLString(blocks []*ast.Node) string {
	var b strings.Builder
	_ = HTML(&b, blocks)
	return b.String()
}

// Markdown parses source and writes it as HTML.
func Markdown(w io.Writer, source string) error {
	blocks, err := parser.Parse(source)
	if err != nil {
		return err
	}
	return HTML(w, blocks)
}

// Plain writes source as preformatted, escaped text.
func Plain(w io.Writer, source string) error {
	_, err := io.WriteString(w, `<pre class="scribble-plain">`+html.EscapeString(source)+"</pre>\n")
	return err
}

func writeNode(b *strings.Builder, n *ast.Node) {
	switch n.Type {
	case ast.TypeHeading:
		tag := "h" + strconv.Itoa(n.Level)
		b.WriteString("<" + tag + ">")
		writeChildren(b, n)
		b.WriteString("</" + tag + ">\n")
	case ast.TypeParagraph:
		b.WriteString("<p>")
		writeChildren(b, n)
		b.WriteString("</p>\n")
	case ast.TypeEmphasis:
		b.WriteString("<em>")
		writeChildren(b, n)
		b.WriteString("</em>")
	case ast.TypeStrong:
		b.WriteString("<strong>")
		writeChildren(b, n)
		b.WriteString("</strong>")
	case ast.TypeBreak:
		b.WriteString("<br>\n")
	case ast.TypeText, ast.TypeDelimiter:
		b.WriteString(html.EscapeString(n.Value))
	}
}

func writeChildren(b *strings.Builder, n *ast.Node) {
	for _, c := range n.Children {
		writeNode(b, c)
	}
}
