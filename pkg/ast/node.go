// Package ast defines the block/inline syntax tree produced by the parser and
// the normalization passes that turn the raw block sequence into the tree
// consumed by renderers.
package ast

import "strings"

// Type tags a node.
type Type string

const (
	TypeNone      Type = ""
	TypeHeading   Type = "heading"
	TypeParagraph Type = "paragraph"
	TypeText      Type = "text"
	TypeBreak     Type = "break"
	TypeEmphasis  Type = "emphasis"
	TypeStrong    Type = "strong"

	// TypeDelimiter is an emphasis marker run. It only appears in raw trees;
	// normalization turns every delimiter into emphasis or text.
	TypeDelimiter Type = "delimiter"
)

// Node is a block or inline element.
type Node struct {
	Type        Type    `json:"type"`
	Children    []*Node `json:"children,omitempty"`
	Value       string  `json:"value,omitempty"`
	Level       int     `json:"level,omitempty"`
	IsBackslash bool    `json:"isBackslash,omitempty"`

	// final is set on paragraphs that went through normalization. Final
	// paragraphs are never merged again.
	final bool

	// canOpen and canClose tell whether a delimiter run may start or end
	// emphasis, as decided from the characters around it.
	canOpen, canClose bool
}

func Text(value string) *Node { return &Node{Type: TypeText, Value: value} }

func Break(isBackslash bool) *Node { return &Node{Type: TypeBreak, IsBackslash: isBackslash} }

// Delimiter builds a run that may both open and close emphasis.
func Delimiter(run string) *Node { return DelimiterRun(run, true, true) }

// DelimiterRun builds a run with explicit opening and closing abilities.
func DelimiterRun(run string, canOpen, canClose bool) *Node {
	return &Node{Type: TypeDelimiter, Value: run, canOpen: canOpen, canClose: canClose}
}

// CanOpen reports whether a delimiter run may start emphasis.
func (n *Node) CanOpen() bool { return n.canOpen }

// CanClose reports whether a delimiter run may end emphasis.
func (n *Node) CanClose() bool { return n.canClose }

func Paragraph(children ...*Node) *Node { return &Node{Type: TypeParagraph, Children: children} }

func Emphasis(children ...*Node) *Node { return &Node{Type: TypeEmphasis, Children: children} }

func Strong(children ...*Node) *Node { return &Node{Type: TypeStrong, Children: children} }

// Heading builds a heading, clamping level into [1,6].
func Heading(level int, children ...*Node) *Node {
	level = min(max(level, 1), 6)
	return &Node{Type: TypeHeading, Level: level, Children: children}
}

// IsContainer reports whether the node type holds children.
func (n *Node) IsContainer() bool {
	switch n.Type {
	case TypeHeading, TypeParagraph, TypeEmphasis, TypeStrong:
		return true
	}
	return false
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = CloneAll(n.Children)
	}
	return &c
}

// CloneAll deep-copies a node sequence.
func CloneAll(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// PlainText concatenates the literal text below n.
func (n *Node) PlainText() string {
	var b strings.Builder
	n.writePlain(&b)
	return b.String()
}

func (n *Node) writePlain(b *strings.Builder) {
	switch n.Type {
	case TypeText, TypeDelimiter:
		b.WriteString(n.Value)
	case TypeBreak:
		b.WriteString("\n")
	}
	for _, c := range n.Children {
		c.writePlain(b)
	}
}

// Equal reports whether two sequences have the same shape and content.
func Equal(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].equal(b[i]) {
			return false
		}
	}
	return true
}

func (n *Node) equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.Type == o.Type &&
		n.Value == o.Value &&
		n.Level == o.Level &&
		n.IsBackslash == o.IsBackslash &&
		Equal(n.Children, o.Children)
}
