package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
	"github.com/Sumatoshi-tech/foliage/pkg/parser"
)

func newParser(t *testing.T) *parser.Parser {
	t.Helper()

	p, err := parser.New()
	require.NoError(t, err)

	return p
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	p := newParser(t)

	for _, src := range []string{"", "   \n\n", "# just a comment\n"} {
		tree, err := p.ParseString(context.Background(), src, "")
		require.NoError(t, err)
		assert.Nil(t, tree, "source %q", src)
	}
}

func TestParse_Statements(t *testing.T) {
	t.Parallel()

	p := newParser(t)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"if", "if true; 1; end", "(block (if (true) (lit 1) nil))"},
		{"if else", "if x; 1; else 2; end", "(block (if (lvar x) (lit 1) (lit 2)))"},
		{"elsif", "if a; 1; elsif b; 2; end", "(block (if (lvar a) (lit 1) (if (lvar b) (lit 2) nil)))"},
		{"unless swaps branches", "unless x; 1; end", "(block (if (lvar x) nil (lit 1)))"},
		{"unless modifier", "1 unless true", "(block (if (true) nil (lit 1)))"},
		{"if modifier", "1 if false", "(block (if (false) (lit 1) nil))"},
		{"ternary", "x = 1; x > 0 ? 1 : 2", "(block (lasgn x (lit 1)) (if (call > (lvar x) (lit 0)) (lit 1) (lit 2)))"},
		{"comparison", "a=2;if a > 4; 1; end", "(block (lasgn a (lit 2)) (if (call > (lvar a) (lit 4)) (lit 1) nil))"},
		{"while", "x = true; while x; x = false; end", "(block (lasgn x (true)) (while (lvar x) (lasgn x (false))))"},
		{"until", "until false; break; end", "(block (until (false) (break)))"},
		{"while modifier", "x += 1 while x < 3", "(block (while (call < (lvar x) (lit 3)) (lasgn x (call + (lvar x) (lit 1)))))"},
		{"and or", "a && b || c", "(block (or (and (lvar a) (lvar b)) (lvar c)))"},
		{"keyword and", "a and b", "(block (and (lvar a) (lvar b)))"},
		{"not", "!a", "(block (not (lvar a)))"},
		{"or assign", "a ||= 1", "(block (lasgn a (or (lvar a) (lit 1))))"},
		{"string", `puts "hi"`, `(block (call puts nil (str "hi")))`},
		{"array", "[1, 2, 3]", "(block (array (lit 1) (lit 2) (lit 3)))"},
		{"parentheses", "(x && true) ? 1 : 2", "(block (if (and (lvar x) (true)) (lit 1) (lit 2)))"},
		{"method call", "[1].include?(1)", "(block (call include? (array (lit 1)) (lit 1)))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree, err := p.ParseString(context.Background(), tt.src, "")
			require.NoError(t, err)
			require.NotNil(t, tree)
			assert.Equal(t, tt.want, tree.String())
		})
	}
}

func TestParse_BlockAndCase(t *testing.T) {
	t.Parallel()

	p := newParser(t)

	tree, err := p.ParseString(context.Background(), "[1,2].each { |x| case x; when 1, 3; 2; end }", "")
	require.NoError(t, err)
	require.NotNil(t, tree)

	iter := tree.Child(0)
	require.Equal(t, node.TypeIter, iter.Type)
	assert.Equal(t, "(call each (array (lit 1) (lit 2)))", iter.Child(0).String())
	assert.Equal(t, "(args (lvar x))", iter.Child(1).String())
	assert.Equal(t, "(case (lvar x) (when (array (lit 1) (lit 3)) (lit 2)) nil)", iter.Child(2).String())

	tree, err = p.ParseString(context.Background(), "case x\nwhen 1 then :a\nelse :b\nend", "")
	require.NoError(t, err)
	assert.Equal(t, "(block (case (lvar x) (when (array (lit 1)) (sym :a)) (sym :b)))", tree.String())
}

func TestParse_DoBlock(t *testing.T) {
	t.Parallel()

	p := newParser(t)

	tree, err := p.ParseString(context.Background(), "[true,false].each do |b|\n  1 unless b\nend", "")
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Equal(t, "(block (iter (call each (array (true) (false))) (args (lvar b)) (if (lvar b) nil (lit 1))))", tree.String())
}

func TestParse_Positions(t *testing.T) {
	t.Parallel()

	p := newParser(t)

	tree, err := p.ParseString(context.Background(), " \n 1 unless true", "demo.rb")
	require.NoError(t, err)

	cond := tree.Child(0).Child(0)
	assert.Equal(t, node.TypeTrue, cond.Type)
	assert.Equal(t, uint(2), cond.Line())
	assert.Equal(t, "demo.rb", cond.File())

	tree, err = p.ParseString(context.Background(), "if true; 1; end", "")
	require.NoError(t, err)
	assert.Equal(t, node.DefaultFile, tree.Child(0).File())
	assert.Equal(t, uint(1), tree.Child(0).Line())
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	p := newParser(t)

	_, err := p.ParseString(context.Background(), "if true; 1;", "")
	require.ErrorIs(t, err, parser.ErrSyntax)

	_, err = p.ParseString(context.Background(), "def f; end", "")
	require.ErrorIs(t, err, parser.ErrUnsupported)

	_, err = p.ParseString(context.Background(), `"#{x}"`, "")
	require.ErrorIs(t, err, parser.ErrUnsupported)
}
