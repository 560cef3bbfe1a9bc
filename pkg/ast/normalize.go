package ast

import "github.com/aretw0/scribble/pkg/core"

// Normalize runs the full pipeline over a raw block sequence: paragraph
// collapsing, paragraph finalization and filtering of removed blocks.
// The input is not modified. Normalize(Normalize(x)) equals Normalize(x).
func Normalize(blocks []*Node) []*Node {
	out := collapseParagraphs(CloneAll(blocks))
	finalizeParagraphs(out)
	return filterRemoved(out)
}

// CollapseParagraphs merges adjacent paragraphs, joining them with a newline
// text node. Empty paragraphs are hard separators and are never merged
// across; paragraphs that were already finalized are never merged either.
func CollapseParagraphs(blocks []*Node) []*Node {
	return collapseParagraphs(CloneAll(blocks))
}

func collapseParagraphs(blocks []*Node) []*Node {
	out := make([]*Node, 0, len(blocks))
	for _, curr := range blocks {
		if len(out) > 0 {
			last := out[len(out)-1]
			if mergeable(last) && mergeable(curr) {
				last.Children = append(last.Children, Text("\n"))
				last.Children = append(last.Children, curr.Children...)
				continue
			}
		}
		out = append(out, curr)
	}
	return out
}

func mergeable(n *Node) bool {
	return n.Type == TypeParagraph && len(n.Children) > 0 && !n.final
}

// FinalizeParagraphs finalizes every paragraph of the sequence: empty ones are
// marked for removal, the rest lose their trailing break, get their emphasis
// balanced and their text runs collapsed.
func FinalizeParagraphs(blocks []*Node) []*Node {
	out := CloneAll(blocks)
	finalizeParagraphs(out)
	return out
}

func finalizeParagraphs(blocks []*Node) {
	for _, block := range blocks {
		if block.Type != TypeParagraph {
			continue
		}
		if len(block.Children) == 0 {
			block.Type = TypeNone
			continue
		}
		removeTrailingBreak(block)
		block.Children = balanceEmphasis(block.Children)
		block.Children = collapseText(block.Children)
		block.final = true
	}
}

// RemoveTrailingBreak drops a break that ends the paragraph. A backslash
// break at paragraph end has no break semantics, so the backslash is kept as
// a literal character. The paragraph must not be empty.
func RemoveTrailingBreak(paragraph *Node) *Node {
	c := paragraph.Clone()
	removeTrailingBreak(c)
	return c
}

func removeTrailingBreak(block *Node) {
	n := len(block.Children)
	if n == 0 {
		panic(core.Invariant("ast.RemoveTrailingBreak", "paragraph has no children"))
	}
	last := block.Children[n-1]
	if last.Type != TypeBreak {
		return
	}
	block.Children = block.Children[:n-1]
	if !last.IsBackslash {
		return
	}
	if n > 1 && block.Children[n-2].Type == TypeText {
		block.Children[n-2].Value += `\`
		return
	}
	block.Children = append(block.Children, Text(`\`))
}

// CollapseText merges consecutive text nodes, recursing into containers.
func CollapseText(nodes []*Node) []*Node {
	return collapseText(CloneAll(nodes))
}

func collapseText(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsContainer() {
			n.Children = collapseText(n.Children)
		}
		if n.Type == TypeText && len(out) > 0 && out[len(out)-1].Type == TypeText {
			out[len(out)-1].Value += n.Value
			continue
		}
		out = append(out, n)
	}
	return out
}

func filterRemoved(blocks []*Node) []*Node {
	out := make([]*Node, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != TypeNone {
			out = append(out, b)
		}
	}
	return out
}

// Filter removes blocks whose type was cleared by FinalizeParagraphs.
func Filter(blocks []*Node) []*Node {
	return filterRemoved(CloneAll(blocks))
}
