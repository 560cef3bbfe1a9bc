package ast

import "strings"

type opener struct {
	pos      int // index of the placeholder in the output
	marker   byte
	count    int
	length   int // length of the run as lexed
	canClose bool
}

// BalanceEmphasis pairs delimiter runs into emphasis and strong nodes.
// Only runs that can close look back for an opener; the nearest open run of
// the same marker wins. When both runs have at least two markers left they
// form strong emphasis, otherwise emphasis, and the rest of a run is tried
// again. Runs that can open are kept for later closers; unmatched delimiters
// are demoted to text.
func BalanceEmphasis(nodes []*Node) []*Node {
	return balanceEmphasis(CloneAll(nodes))
}

func balanceEmphasis(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	var stack []opener

	for _, n := range nodes {
		if n.Type != TypeDelimiter || n.Value == "" {
			out = append(out, n)
			continue
		}
		marker, count := n.Value[0], len(n.Value)

		for n.canClose && count > 0 {
			k := findOpener(stack, marker, len(n.Value), n.canOpen)
			if k < 0 {
				break
			}

			o := &stack[k]
			use := 1
			if o.count >= 2 && count >= 2 {
				use = 2
			}

			inner := append([]*Node(nil), out[o.pos+1:]...)
			// Openers above k are enclosed by the new node and stay unmatched.
			for _, enclosed := range stack[k+1:] {
				demote(out[enclosed.pos])
			}
			stack = stack[:k+1]
			out = out[:o.pos+1]

			wrapped := Emphasis(inner...)
			if use == 2 {
				wrapped = Strong(inner...)
			}

			o.count -= use
			count -= use
			if o.count == 0 {
				out = out[:o.pos]
				stack = stack[:k]
			} else {
				out[o.pos].Value = strings.Repeat(string(marker), o.count)
			}
			out = append(out, wrapped)
		}

		if count == 0 {
			continue
		}
		rest := DelimiterRun(strings.Repeat(string(marker), count), n.canOpen, n.canClose)
		if n.canOpen {
			stack = append(stack, opener{
				pos:      len(out),
				marker:   marker,
				count:    count,
				length:   len(n.Value),
				canClose: n.canClose,
			})
		} else {
			demote(rest)
		}
		out = append(out, rest)
	}

	for _, o := range stack {
		demote(out[o.pos])
	}
	return out
}

// findOpener returns the index of the nearest opener a closer of the given
// marker and length may pair with, or -1. When either run could go both
// ways, lengths summing to a multiple of three only pair if both are
// multiples of three.
func findOpener(stack []opener, marker byte, length int, closerCanOpen bool) int {
	for k := len(stack) - 1; k >= 0; k-- {
		o := stack[k]
		if o.marker != marker {
			continue
		}
		if (closerCanOpen || o.canClose) && (o.length+length)%3 == 0 &&
			(o.length%3 != 0 || length%3 != 0) {
			continue
		}
		return k
	}
	return -1
}

func demote(n *Node) {
	n.Type = TypeText
}
