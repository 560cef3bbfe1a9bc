package parser_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/scribble/pkg/ast"
	"github.com/aretw0/scribble/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_HeadingLevels(t *testing.T) {
	for level := 1; level <= 6; level++ {
		t.Run(fmt.Sprintf("Level %d", level), func(t *testing.T) {
			blocks, err := parser.Parse(strings.Repeat("#", level) + " Hello world  ")
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			assert.Equal(t, ast.TypeHeading, blocks[0].Type)
			assert.Equal(t, level, blocks[0].Level)
			assert.Equal(t, "Hello world", blocks[0].PlainText())
		})
	}
}

func TestParse_NotAHeading(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Seven Markers", "####### too deep"},
		{"No Separator", "#hashtag"},
		{"Marker Only", "#"},
		{"Escaped Marker", `\# literal`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := parser.Parse(tt.input)
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			assert.Equal(t, ast.TypeParagraph, blocks[0].Type)
		})
	}
}

func TestParse_HeadingClosingSequence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"## Title ##", "Title"},
		{"## Title #####   ", "Title"},
		{"## Title#", "Title#"},
		{`## Title \#`, "Title #"},
		{"### ###", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			blocks, err := parser.Parse(tt.input)
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			assert.Equal(t, ast.TypeHeading, blocks[0].Type)
			assert.Equal(t, tt.want, blocks[0].PlainText())
		})
	}
}

func TestParse_HeadingInline(t *testing.T) {
	blocks, err := parser.Parse("# A **bold** move")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	want := []*ast.Node{ast.Text("A "), ast.Strong(ast.Text("bold")), ast.Text(" move")}
	assert.True(t, ast.Equal(want, blocks[0].Children), dump(t, blocks))
}

func TestParse_Breaks(t *testing.T) {
	t.Run("Space Break", func(t *testing.T) {
		raw, err := parser.ParseRaw("a  \nb")
		require.NoError(t, err)
		require.Len(t, raw, 2)
		assert.True(t, ast.Equal(raw[0].Children, []*ast.Node{ast.Text("a"), ast.Break(false)}))
	})

	t.Run("Backslash Break", func(t *testing.T) {
		raw, err := parser.ParseRaw("a\\\nb")
		require.NoError(t, err)
		require.Len(t, raw, 2)
		assert.True(t, ast.Equal(raw[0].Children, []*ast.Node{ast.Text("a"), ast.Break(true)}))
	})

	t.Run("Single Trailing Space Dropped", func(t *testing.T) {
		raw, err := parser.ParseRaw("a \nb")
		require.NoError(t, err)
		assert.True(t, ast.Equal(raw[0].Children, []*ast.Node{ast.Text("a")}))
	})

	t.Run("Breaks Inside Paragraph Survive", func(t *testing.T) {
		blocks, err := parser.Parse("a  \nb\\\nc")
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		want := []*ast.Node{
			ast.Text("a"), ast.Break(false), ast.Text("\nb"), ast.Break(true), ast.Text("\nc"),
		}
		assert.True(t, ast.Equal(want, blocks[0].Children), dump(t, blocks))
	})
}

func TestParse_TrailingBackslashIsLiteral(t *testing.T) {
	for _, input := range []string{`foo\`, "foo\\\n", "foo\\\n\nbar"} {
		t.Run(input, func(t *testing.T) {
			blocks, err := parser.Parse(input)
			require.NoError(t, err)
			require.NotEmpty(t, blocks)
			assert.True(t, ast.Equal(blocks[0].Children, []*ast.Node{ast.Text(`foo\`)}), dump(t, blocks))
		})
	}
}

func TestParse_Paragraphs(t *testing.T) {
	blocks, err := parser.Parse("line one\nline two\n\n\n   indented\n# Head\nafter")
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	assert.Equal(t, ast.TypeParagraph, blocks[0].Type)
	assert.Equal(t, "line one\nline two", blocks[0].PlainText())
	assert.Equal(t, "indented", blocks[1].PlainText())
	assert.Equal(t, ast.TypeHeading, blocks[2].Type)
	assert.Equal(t, "after", blocks[3].PlainText())
}

func TestParse_Emphasis(t *testing.T) {
	tests := []struct {
		input string
		want  []*ast.Node
	}{
		{
			input: "some *soft* and __hard__",
			want: []*ast.Node{
				ast.Text("some "), ast.Emphasis(ast.Text("soft")),
				ast.Text(" and "), ast.Strong(ast.Text("hard")),
			},
		},
		{
			input: "*a **b** c*",
			want:  []*ast.Node{ast.Emphasis(ast.Text("a "), ast.Strong(ast.Text("b")), ast.Text(" c"))},
		},
		{
			input: "**a *b* c**",
			want:  []*ast.Node{ast.Strong(ast.Text("a "), ast.Emphasis(ast.Text("b")), ast.Text(" c"))},
		},
		{
			input: "_a __b__ c_",
			want:  []*ast.Node{ast.Emphasis(ast.Text("a "), ast.Strong(ast.Text("b")), ast.Text(" c"))},
		},
		{
			input: "*foo**bar**baz*",
			want:  []*ast.Node{ast.Emphasis(ast.Text("foo"), ast.Strong(ast.Text("bar")), ast.Text("baz"))},
		},
		{
			input: "***a** b*",
			want:  []*ast.Node{ast.Emphasis(ast.Strong(ast.Text("a")), ast.Text(" b"))},
		},
		{
			input: "a * b * c",
			want:  []*ast.Node{ast.Text("a * b * c")},
		},
		{
			input: "snake_case_name",
			want:  []*ast.Node{ast.Text("snake_case_name")},
		},
		{
			input: "**un*closed",
			want:  []*ast.Node{ast.Text("**un*closed")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			blocks, err := parser.Parse(tt.input)
			require.NoError(t, err)
			require.Len(t, blocks, 1)
			assert.True(t, ast.Equal(tt.want, blocks[0].Children), dump(t, blocks))
		})
	}
}

func TestParseRaw_DelimiterFlanking(t *testing.T) {
	raw, err := parser.ParseRaw("*a* b * c")
	require.NoError(t, err)
	require.Len(t, raw, 1)

	var runs []*ast.Node
	for _, n := range raw[0].Children {
		if n.Type == ast.TypeDelimiter {
			runs = append(runs, n)
		}
	}
	require.Len(t, runs, 3)
	assert.True(t, runs[0].CanOpen())
	assert.False(t, runs[0].CanClose())
	assert.False(t, runs[1].CanOpen())
	assert.True(t, runs[1].CanClose())
	assert.False(t, runs[2].CanOpen())
	assert.False(t, runs[2].CanClose())
}

func TestParse_Escapes(t *testing.T) {
	blocks, err := parser.Parse(`\*not emphasis\* and a\b`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.True(t, ast.Equal(blocks[0].Children, []*ast.Node{ast.Text(`*not emphasis* and a\b`)}), dump(t, blocks))
}

func TestParse_LineEndings(t *testing.T) {
	unix, err := parser.Parse("# T\na\nb\n\nc")
	require.NoError(t, err)
	windows, err := parser.Parse("# T\r\na\r\nb\r\n\r\nc")
	require.NoError(t, err)
	assert.True(t, ast.Equal(unix, windows))
}

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n", "   "} {
		blocks, err := parser.Parse(input)
		require.NoError(t, err)
		assert.Empty(t, blocks)
		assert.NotNil(t, blocks)
	}
}

func TestParse_Idempotent(t *testing.T) {
	blocks, err := parser.Parse("# *T*\n\na  \n**b**\\\n\nc_")
	require.NoError(t, err)
	assert.True(t, ast.Equal(blocks, ast.Normalize(blocks)))
}

func TestParse_Concurrent(t *testing.T) {
	const input = "# Title\n\nbody with *emphasis*"
	want := parser.MustParse(input)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := parser.Parse(input)
			assert.NoError(t, err)
			assert.True(t, ast.Equal(want, got))
		}()
	}
	wg.Wait()
}

func TestNewGrammar_Rules(t *testing.T) {
	rules := parser.NewGrammar().Rules()
	for _, name := range []string{parser.RuleAtxHeading, parser.RuleParagraph, parser.RuleInline, parser.RuleBreak} {
		assert.Contains(t, rules, name)
	}
}

func dump(t *testing.T, nodes []*ast.Node) string {
	t.Helper()
	b, err := json.Marshal(nodes)
	require.NoError(t, err)
	return string(b)
}
