// Package grammar provides parser combinators and a rule table for building
// recursive-descent grammars whose rules refer to each other by name.
//
// Parsers are plain functions over an immutable input and a position, so a
// grammar built once can be shared by concurrent parses. Each parse gets its
// own Context, which only records the furthest failure seen.
package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// Parser consumes input at pos. On success it returns the value and the
// position after the match; on failure it records what it expected in c.
type Parser[T any] func(c *Context, pos int) (T, int, bool)

// Context is the per-parse state.
type Context struct {
	Input    string
	furthest int
	expected map[string]struct{}
}

// NewContext creates the state for parsing input.
func NewContext(input string) *Context {
	return &Context{Input: input, furthest: -1}
}

// Fail records that label was expected at pos. Only the furthest position is
// kept; expectations at the same position are merged.
func (c *Context) Fail(pos int, label string) {
	switch {
	case pos > c.furthest:
		c.furthest = pos
		c.expected = map[string]struct{}{label: {}}
	case pos == c.furthest:
		c.expected[label] = struct{}{}
	}
}

// Failure returns the furthest failure recorded so far.
func (c *Context) Failure() *Failure {
	expected := make([]string, 0, len(c.expected))
	for label := range c.expected {
		expected = append(expected, label)
	}
	sort.Strings(expected)
	pos := c.furthest
	if pos < 0 {
		pos = 0
	}
	return &Failure{Input: c.Input, Pos: pos, Expected: expected}
}

func (c *Context) snapshot() (int, map[string]struct{}) {
	expected := make(map[string]struct{}, len(c.expected))
	for k := range c.expected {
		expected[k] = struct{}{}
	}
	return c.furthest, expected
}

func (c *Context) restore(furthest int, expected map[string]struct{}) {
	c.furthest = furthest
	c.expected = expected
}

// Failure is a parse failure: the furthest position reached and the set of
// alternatives that were attempted there.
type Failure struct {
	Input    string   `json:"-"`
	Pos      int      `json:"pos"`
	Expected []string `json:"expected"`
}

// Position converts the byte offset into a 1-based line and column.
func (f *Failure) Position() (line, column int) {
	prefix := f.Input
	if f.Pos <= len(prefix) {
		prefix = prefix[:f.Pos]
	}
	line = strings.Count(prefix, "\n") + 1
	column = f.Pos - strings.LastIndex(prefix, "\n")
	return line, column
}

func (f *Failure) Error() string {
	line, col := f.Position()
	return fmt.Sprintf("parse failure at line %d, column %d: expected %s", line, col, strings.Join(f.Expected, " or "))
}

// Run parses the whole input with p. Input left over after a successful
// match is reported as a failure expecting end of input.
func Run[T any](p Parser[T], input string) (T, error) {
	c := NewContext(input)
	v, next, ok := p(c, 0)
	if ok && next == len(input) {
		return v, nil
	}
	if ok {
		c.Fail(next, "end of input")
	}
	var zero T
	return zero, c.Failure()
}
