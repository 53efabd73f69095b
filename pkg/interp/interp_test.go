package interp_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/foliage/pkg/interp"
	"github.com/Sumatoshi-tech/foliage/pkg/node"
	"github.com/Sumatoshi-tech/foliage/pkg/parser"
)

func run(t *testing.T, src string, env interp.Env) (interp.Value, error) {
	t.Helper()

	p, err := parser.New()
	require.NoError(t, err)

	tree, err := p.ParseString(context.Background(), src, "")
	require.NoError(t, err)

	prog, err := interp.Compile(tree)
	require.NoError(t, err)

	return prog.Run(context.Background(), env)
}

func TestRun_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", "1 + 2 * 3", "7"},
		{"floor division", "a = -7; a / 2", "-4"},
		{"float", "1.5 * 2", "3.0"},
		{"exact power", "3 ** 39", "4052555153018976267"},
		{"negative power", "2 ** -1", "0.5"},
		{"comparison", "a = 2; a > 4", "false"},
		{"and returns operand", "nil && 1", "nil"},
		{"or returns operand", "false || :x", ":x"},
		{"not", "!nil", "true"},
		{"if else", "if 1 > 2; :a; else :b; end", ":b"},
		{"unless", "1 unless true", "nil"},
		{"while break value", "i = 0; while true; i += 1; break i * 10 if i == 3; end", "30"},
		{"until", "i = 0; until i == 4; i += 1; end; i", "4"},
		{"each sums", "sum = 0; [1, 2, 3].each { |x| sum += x }; sum", "6"},
		{"map", "[1, 2].map { |x| x * 2 }", "[2, 4]"},
		{"select", "[1, 2, 3, 4].select { |x| x.even? }", "[2, 4]"},
		{"next in block", "[1, 2, 3].map { |x| next 0 if x == 2; x }", "[1, 0, 3]"},
		{"break from block", "[1, 2, 3].each { |x| break x if x == 2 }", "2"},
		{"times", "n = 0; 3.times { |i| n += i }; n", "3"},
		{"case value", "case 3; when 1, 3; :hit; else :miss; end", ":hit"},
		{"case class", "case \"s\"; when Integer; 1; when String; 2; end", "2"},
		{"case no match", "case 5; when 1; 1; end", "nil"},
		{"string ops", `"ab" + "c"`, `"abc"`},
		{"index", "[1, 2, 3][-1]", "3"},
		{"include", "[1, 2].include?(2)", "true"},
		{"return", "return 5; 6", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := run(t, tt.src, interp.Env{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Inspect())
		})
	}
}

func TestRun_Output(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	_, err := run(t, "puts 1, \"two\"\nprint :a, 2\np([nil, 1.0])\nputs([3, 4])\nputs", interp.Env{Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, "1\ntwo\na2[nil, 1.0]\n3\n4\n\n", out.String())
}

func TestRun_Globals(t *testing.T) {
	t.Parallel()

	globals := interp.NewScope(nil)
	globals.Define("x", interp.Int(5))

	v, err := run(t, "y = x * 2", interp.Env{Globals: globals})
	require.NoError(t, err)
	assert.Equal(t, interp.Int(10), v)

	y, ok := globals.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, interp.Int(10), y)
}

func TestRun_TempsStayOutOfGlobals(t *testing.T) {
	t.Parallel()

	globals := interp.NewScope(nil)

	v, err := run(t, interp.TempPrefix+"1 = 2\ny = "+interp.TempPrefix+"1 + 1", interp.Env{Globals: globals})
	require.NoError(t, err)
	assert.Equal(t, interp.Int(3), v)
	assert.Equal(t, []string{"y"}, globals.Names())
}

func TestRun_BlockScope(t *testing.T) {
	t.Parallel()

	globals := interp.NewScope(nil)

	_, err := run(t, "outer = 0; [1].each { |x| inner = x; outer = x }", interp.Env{Globals: globals})
	require.NoError(t, err)

	vars := globals.Vars()
	assert.Contains(t, vars, "outer")
	assert.NotContains(t, vars, "inner")
	assert.NotContains(t, vars, "x")
}

func TestRun_Faults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		class string
		line  uint
	}{
		{"raise", "1\nraise \"boom\"", "RuntimeError", 2},
		{"undefined local", "missing", "NameError", 1},
		{"no method", "1.frobnicate", "NoMethodError", 1},
		{"zero division", "x = 0\n\n1 / x", "ZeroDivisionError", 3},
		{"type error", `1 + "a"`, "TypeError", 1},
		{"constant", "Nope", "NameError", 1},
		{"overflow", "big = 9223372036854775807\nbig + 1", "RangeError", 2},
		{"repeat count", `"ab" * 1.5`, "ArgumentError", 1},
		{"power overflow", "x = 1\nif 2 ** 64 > 0 then x end", "RangeError", 2},
		{"power overflow odd", "3 ** 40", "RangeError", 1},
		{"literal out of range", "a = 1\n\np 99999999999999999999", "RangeError", 3},
		{"min divided by minus one", "min = -9223372036854775807 - 1\nmin / -1", "RangeError", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, tt.src, interp.Env{})
			require.Error(t, err)

			var rtErr *interp.RuntimeError
			require.ErrorAs(t, err, &rtErr)
			assert.Equal(t, tt.class, rtErr.Class)
			assert.Equal(t, tt.line, rtErr.Line)
			assert.Equal(t, node.DefaultFile, rtErr.File)
		})
	}
}

func TestRun_FaultSuggestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"local", "count = 1\ncoutn", "count"},
		{"builtin", "putz 1", "puts"},
		{"nothing close", "frobnicate", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := run(t, tt.src, interp.Env{})

			var rtErr *interp.RuntimeError
			require.ErrorAs(t, err, &rtErr)
			assert.Equal(t, tt.want, rtErr.Suggestion)

			if tt.want != "" {
				assert.Contains(t, rtErr.Error(), "Did you mean?  "+tt.want)
			}
		})
	}
}

func TestRun_Hooks(t *testing.T) {
	t.Parallel()

	pos := node.NewPositions("", 1, 1, 1)
	tree := node.New(node.TypeIf, "", pos,
		node.New(node.TypeHook, "7", pos, node.New(node.TypeTrue, "", pos)),
		node.New(node.TypeLit, "1", pos),
		nil,
	)

	prog, err := interp.Compile(tree)
	require.NoError(t, err)

	var seen []interp.Value

	resolver := func(id int) (interp.HookFunc, bool) {
		if id != 7 {
			return nil, false
		}

		return func(v interp.Value) (interp.Value, error) {
			seen = append(seen, v)

			return v, nil
		}, true
	}

	v, err := prog.Run(context.Background(), interp.Env{Hooks: resolver})
	require.NoError(t, err)
	assert.Equal(t, interp.Int(1), v)
	assert.Equal(t, []interp.Value{interp.Bool(true)}, seen)

	_, err = prog.Run(context.Background(), interp.Env{})
	require.ErrorIs(t, err, interp.ErrUnknownHook)

	_, err = prog.Run(context.Background(), interp.Env{Hooks: func(int) (interp.HookFunc, bool) { return nil, false }})
	require.ErrorIs(t, err, interp.ErrUnknownHook)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	p, err := parser.New()
	require.NoError(t, err)

	tree, err := p.ParseString(context.Background(), "while true; end", "")
	require.NoError(t, err)

	prog, err := interp.Compile(tree)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = prog.Run(ctx, interp.Env{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompile(t *testing.T) {
	t.Parallel()

	prog, err := interp.Compile(nil)
	require.NoError(t, err)

	v, err := prog.Run(context.Background(), interp.Env{})
	require.NoError(t, err)
	assert.Equal(t, interp.Nil, v)

	_, err = interp.Compile(node.New(node.TypeArgs, "", nil))
	require.ErrorIs(t, err, interp.ErrCompile)

	_, err = interp.Compile(node.New(node.TypeHook, "x", nil, nil))
	require.ErrorIs(t, err, interp.ErrCompile)
}

func TestCaseEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, interp.CaseEqual(interp.Class("Integer"), interp.Int(1)))
	assert.True(t, interp.CaseEqual(interp.Class("Numeric"), interp.Float(1)))
	assert.False(t, interp.CaseEqual(interp.Class("String"), interp.Int(1)))
	assert.True(t, interp.CaseEqual(interp.Int(3), interp.Float(3)))
	assert.False(t, interp.CaseEqual(interp.Sym("a"), interp.Str("a")))
	assert.True(t, interp.Equal(interp.Array([]interp.Value{interp.Nil}), interp.Array([]interp.Value{interp.Nil})))
}
