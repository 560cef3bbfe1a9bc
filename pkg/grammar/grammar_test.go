package grammar_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/scribble/pkg/core"
	"github.com/aretw0/scribble/pkg/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlt_FirstMatchCommits(t *testing.T) {
	p := grammar.Alt(grammar.String("ab"), grammar.String("abc"))

	v, err := grammar.Run(grammar.Left(p, grammar.Regexp(`.*`)), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ab", v, "ordered alternation must not prefer the longer match")
}

func TestRun_ReportsFurthestFailure(t *testing.T) {
	p := grammar.Seq(grammar.String("a"), grammar.Alt(grammar.String("b"), grammar.String("c")))

	_, err := grammar.Run(p, "ax")
	require.Error(t, err)

	var failure *grammar.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 1, failure.Pos)
	assert.Equal(t, []string{`"b"`, `"c"`}, failure.Expected)

	line, col := failure.Position()
	assert.Equal(t, 1, line)
	assert.Equal(t, 2, col)
	assert.Contains(t, err.Error(), "line 1, column 2")
}

func TestRun_LeftoverInput(t *testing.T) {
	_, err := grammar.Run(grammar.String("a"), "a\nb")
	var failure *grammar.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 1, failure.Pos)
	assert.Contains(t, failure.Expected, "end of input")
}

func TestMany_EmptyMatchIsInvariantViolation(t *testing.T) {
	p := grammar.Many(grammar.Regexp(`a*`))
	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*core.InvariantViolation)
		assert.True(t, ok)
	}()
	_, _ = grammar.Run(p, "b")
}

func TestNot_Lookahead(t *testing.T) {
	word := grammar.Right(grammar.Not(grammar.String("#"), "not heading"), grammar.Regexp(`[a-z#]+`))

	v, err := grammar.Run(word, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	_, err = grammar.Run(word, "#abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not heading")
}

func TestLabel_ReplacesExpectations(t *testing.T) {
	digit := grammar.Label(grammar.Regexp(`[0-9]`), "digit")
	_, err := grammar.Run(digit, "x")
	var failure *grammar.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, []string{"digit"}, failure.Expected)
}

// Balanced parentheses exercise forward and mutual references through the table.
func newParenTable() *grammar.Table {
	t := grammar.NewTable("Group", "Item", "Items")

	grammar.Define(t, "Items", func() grammar.Parser[int] {
		return grammar.Map(grammar.Many(grammar.Ref[int](t, "Item")), func(depths []int) int {
			deepest := 0
			for _, d := range depths {
				deepest = max(deepest, d)
			}
			return deepest
		})
	})
	grammar.Define(t, "Item", func() grammar.Parser[int] {
		return grammar.Alt(grammar.Ref[int](t, "Group"), grammar.Map(grammar.Regexp(`[a-z]+`), func(string) int { return 0 }))
	})
	grammar.Define(t, "Group", func() grammar.Parser[int] {
		inner := grammar.Right(grammar.String("("), grammar.Left(grammar.Ref[int](t, "Items"), grammar.String(")")))
		return grammar.Map(inner, func(d int) int { return d + 1 })
	})
	return t
}

func TestTable_MutualRecursion(t *testing.T) {
	table := newParenTable()
	items := grammar.Ref[int](table, "Items")

	depth, err := grammar.Run(items, "a(b(c)d)(e)")
	require.NoError(t, err)
	assert.Equal(t, 2, depth)

	_, err = grammar.Run(items, "a(b")
	require.Error(t, err)

	assert.Equal(t, []string{"Group", "Item", "Items"}, table.Rules())
}

func TestTable_ConcurrentFirstUse(t *testing.T) {
	table := newParenTable()
	items := grammar.Ref[int](table, "Items")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			input := strings.Repeat("(", n%5) + "x" + strings.Repeat(")", n%5)
			depth, err := grammar.Run(items, input)
			assert.NoError(t, err)
			assert.Equal(t, n%5, depth)
		}(i)
	}
	wg.Wait()
}

func TestTable_UnboundReferencePanicsOnUse(t *testing.T) {
	table := grammar.NewTable("Declared")
	ref := grammar.Ref[string](table, "Missing")
	unbound := grammar.Ref[string](table, "Declared")

	assert.Panics(t, func() { _, _ = grammar.Run(ref, "x") })
	assert.Panics(t, func() { _, _ = grammar.Run(unbound, "x") })
	assert.Panics(t, func() {
		grammar.Define(table, "Undeclared", func() grammar.Parser[string] { return grammar.String("x") })
	})
}

func TestTable_TypeMismatchPanics(t *testing.T) {
	table := grammar.NewTable("Word")
	grammar.Define(table, "Word", func() grammar.Parser[string] { return grammar.String("w") })

	assert.Panics(t, func() { _, _ = grammar.Run(grammar.Ref[int](table, "Word"), "w") })
}
