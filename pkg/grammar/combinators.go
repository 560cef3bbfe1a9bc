package grammar

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/scribble/pkg/core"
)

// String matches the literal s.
func String(s string) Parser[string] {
	label := strconv.Quote(s)
	return func(c *Context, pos int) (string, int, bool) {
		if strings.HasPrefix(c.Input[pos:], s) {
			return s, pos + len(s), true
		}
		c.Fail(pos, label)
		return "", pos, false
	}
}

// Regexp matches pattern anchored at the current position.
func Regexp(pattern string) Parser[string] {
	re := regexp.MustCompile(`^(?:` + pattern + `)`)
	label := "/" + pattern + "/"
	return func(c *Context, pos int) (string, int, bool) {
		loc := re.FindStringIndex(c.Input[pos:])
		if loc == nil {
			c.Fail(pos, label)
			return "", pos, false
		}
		return c.Input[pos : pos+loc[1]], pos + loc[1], true
	}
}

// EOF matches the end of input.
func EOF() Parser[struct{}] {
	return func(c *Context, pos int) (struct{}, int, bool) {
		if pos == len(c.Input) {
			return struct{}{}, pos, true
		}
		c.Fail(pos, "end of input")
		return struct{}{}, pos, false
	}
}

// Succeed matches nothing and yields v.
func Succeed[T any](v T) Parser[T] {
	return func(_ *Context, pos int) (T, int, bool) {
		return v, pos, true
	}
}

// Alt tries each parser in order; the first one that matches wins.
// There is no longest-match and no backtracking into a committed choice.
func Alt[T any](ps ...Parser[T]) Parser[T] {
	return func(c *Context, pos int) (T, int, bool) {
		for _, p := range ps {
			if v, next, ok := p(c, pos); ok {
				return v, next, true
			}
		}
		var zero T
		return zero, pos, false
	}
}

// Seq runs parsers one after another and collects their values.
func Seq[T any](ps ...Parser[T]) Parser[[]T] {
	return func(c *Context, pos int) ([]T, int, bool) {
		out := make([]T, 0, len(ps))
		cur := pos
		for _, p := range ps {
			v, next, ok := p(c, cur)
			if !ok {
				return nil, pos, false
			}
			out = append(out, v)
			cur = next
		}
		return out, cur, true
	}
}

// Left runs a then b and keeps the value of a.
func Left[A, B any](a Parser[A], b Parser[B]) Parser[A] {
	return func(c *Context, pos int) (A, int, bool) {
		va, next, ok := a(c, pos)
		if !ok {
			return va, pos, false
		}
		if _, next, ok = b(c, next); !ok {
			var zero A
			return zero, pos, false
		}
		return va, next, true
	}
}

// Right runs a then b and keeps the value of b.
func Right[A, B any](a Parser[A], b Parser[B]) Parser[B] {
	return func(c *Context, pos int) (B, int, bool) {
		var zero B
		_, next, ok := a(c, pos)
		if !ok {
			return zero, pos, false
		}
		vb, next, ok := b(c, next)
		if !ok {
			return zero, pos, false
		}
		return vb, next, true
	}
}

// Map transforms the value of p.
func Map[A, B any](p Parser[A], fn func(A) B) Parser[B] {
	return func(c *Context, pos int) (B, int, bool) {
		v, next, ok := p(c, pos)
		if !ok {
			var zero B
			return zero, pos, false
		}
		return fn(v), next, true
	}
}

// Many matches p zero or more times. A repetition that matches without
// consuming input would never terminate and is an invariant violation.
func Many[T any](p Parser[T]) Parser[[]T] {
	return func(c *Context, pos int) ([]T, int, bool) {
		var out []T
		cur := pos
		for {
			v, next, ok := p(c, cur)
			if !ok {
				return out, cur, true
			}
			if next == cur {
				panic(core.Invariant("grammar.Many", "repeated parser matched empty input at %d", cur))
			}
			out = append(out, v)
			cur = next
		}
	}
}

// Many1 matches p one or more times.
func Many1[T any](p Parser[T]) Parser[[]T] {
	many := Many(p)
	return func(c *Context, pos int) ([]T, int, bool) {
		out, next, _ := many(c, pos)
		if len(out) == 0 {
			return nil, pos, false
		}
		return out, next, true
	}
}

// Opt matches p or yields def without consuming input.
func Opt[T any](p Parser[T], def T) Parser[T] {
	return Alt(p, Succeed(def))
}

// Not succeeds without consuming input when p does not match at pos.
func Not[T any](p Parser[T], label string) Parser[struct{}] {
	return func(c *Context, pos int) (struct{}, int, bool) {
		furthest, expected := c.snapshot()
		_, _, ok := p(c, pos)
		c.restore(furthest, expected)
		if ok {
			c.Fail(pos, label)
			return struct{}{}, pos, false
		}
		return struct{}{}, pos, true
	}
}

// Peek succeeds without consuming input when p matches at pos.
func Peek[T any](p Parser[T]) Parser[T] {
	return func(c *Context, pos int) (T, int, bool) {
		v, _, ok := p(c, pos)
		return v, pos, ok
	}
}

// Label replaces the expectations of p with a single descriptive name.
func Label[T any](p Parser[T], name string) Parser[T] {
	return func(c *Context, pos int) (T, int, bool) {
		furthest, expected := c.snapshot()
		v, next, ok := p(c, pos)
		if !ok {
			c.restore(furthest, expected)
			c.Fail(pos, name)
		}
		return v, next, ok
	}
}

// Lazy defers building p until it is first run.
func Lazy[T any](build func() Parser[T]) Parser[T] {
	var p Parser[T]
	var once sync.Once
	return func(c *Context, pos int) (T, int, bool) {
		once.Do(func() { p = build() })
		return p(c, pos)
	}
}
