package grammar

import (
	"sort"
	"sync"

	"github.com/aretw0/scribble/pkg/core"
)

// slot holds one named rule. The body is built on first use.
type slot struct {
	name  string
	build func() any
	once  sync.Once
	rule  any
}

// Table is a registry of named, mutually recursive rules. Rule identifiers
// are declared first and bodies are bound afterwards; references resolve
// their rule on first use, so a body may refer to rules defined later.
type Table struct {
	mu    sync.RWMutex
	index map[string]int
	slots []*slot
}

// NewTable creates a table with the given rule names declared.
func NewTable(names ...string) *Table {
	t := &Table{index: make(map[string]int)}
	t.Declare(names...)
	return t
}

// Declare adds rule identifiers. Declaring an existing name is a no-op.
func (t *Table) Declare(names ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, name := range names {
		if _, ok := t.index[name]; ok {
			continue
		}
		t.index[name] = len(t.slots)
		t.slots = append(t.slots, &slot{name: name})
	}
}

// Rules lists the declared rule names in sorted order.
func (t *Table) Rules() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.slots))
	for _, s := range t.slots {
		names = append(names, s.name)
	}
	sort.Strings(names)
	return names
}

func (t *Table) lookup(name string) (*slot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.slots[i], true
}

// Define binds the body of a declared rule. The builder runs once, the first
// time the rule is used.
func Define[T any](t *Table, name string, build func() Parser[T]) {
	s, ok := t.lookup(name)
	if !ok {
		panic(core.Invariant("grammar.Define", "rule %q was not declared", name))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s.build != nil {
		panic(core.Invariant("grammar.Define", "rule %q is already defined", name))
	}
	s.build = func() any { return build() }
}

// Ref returns a parser that runs the named rule. The rule is looked up when
// the parser is first invoked, not when Ref is called.
func Ref[T any](t *Table, name string) Parser[T] {
	var resolved Parser[T]
	var once sync.Once
	return func(c *Context, pos int) (T, int, bool) {
		once.Do(func() { resolved = resolve[T](t, name) })
		return resolved(c, pos)
	}
}

func resolve[T any](t *Table, name string) Parser[T] {
	s, ok := t.lookup(name)
	if !ok {
		panic(core.Invariant("grammar.Ref", "rule %q was not declared", name))
	}
	t.mu.RLock()
	build := s.build
	t.mu.RUnlock()
	if build == nil {
		panic(core.Invariant("grammar.Ref", "rule %q has no body", name))
	}
	s.once.Do(func() { s.rule = build() })
	p, ok := s.rule.(Parser[T])
	if !ok {
		panic(core.Invariant("grammar.Ref", "rule %q does not produce the requested type", name))
	}
	return p
}
