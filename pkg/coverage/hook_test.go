package coverage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/foliage/pkg/coverage"
	"github.com/Sumatoshi-tech/foliage/pkg/interp"
	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

func gtCondition() *node.Node {
	pos := node.NewPositions("demo.rb", 3, 1, 3)

	return node.New(node.TypeCall, ">", pos,
		node.New(node.TypeLVar, "a", pos.Copy()),
		node.New(node.TypeLit, "4", pos.Copy()),
	)
}

func TestConditionHook_States(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []interp.Value
		want   []string
	}{
		{"neither", nil, []string{
			"demo.rb:3: Branch condition (a > 4) was never true.",
			"demo.rb:3: Branch condition (a > 4) was never false.",
		}},
		{"true only", []interp.Value{interp.Bool(true), interp.Int(0)}, []string{
			"demo.rb:3: Branch condition (a > 4) was never false.",
		}},
		{"false only", []interp.Value{interp.Nil, interp.Bool(false)}, []string{
			"demo.rb:3: Branch condition (a > 4) was never true.",
		}},
		{"both", []interp.Value{interp.Bool(false), interp.Str("")}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := coverage.NewConditionHook(gtCondition())

			for _, v := range tt.values {
				got, err := h.Hook(v)
				require.NoError(t, err)
				assert.Equal(t, v, got)
			}

			assert.Equal(t, tt.want, h.Report())
			assert.Equal(t, len(tt.want) == 0, h.Covered())
		})
	}
}

func TestCaseHook_Monotonic(t *testing.T) {
	t.Parallel()

	h := coverage.NewCaseHook(node.New(node.TypeLit, "3", node.NewPositions("", 1, 1, 1)))
	assert.Equal(t, []string{"-:1: case operand never matched 3."}, h.Report())

	_, err := h.Hook(interp.Bool(true))
	require.NoError(t, err)

	_, err = h.Hook(interp.Bool(false))
	require.NoError(t, err)

	assert.Empty(t, h.Report())
	assert.True(t, h.Covered())
}

func TestCaseElseHook_Reached(t *testing.T) {
	t.Parallel()

	h := coverage.NewCaseElseHook(node.NewNil(node.NewPositions("", 2, 1, 2)))
	assert.Equal(t, []string{"-:2: case operand never matched nothing."}, h.Report())

	_, err := h.Hook(interp.Nil)
	require.NoError(t, err)

	assert.Empty(t, h.Report())
}

func TestHook_NoKind(t *testing.T) {
	t.Parallel()

	h := &coverage.Hook{}

	_, err := h.Hook(interp.Bool(true))
	require.ErrorIs(t, err, coverage.ErrNotImplemented)
}

func TestHook_ExprIsCached(t *testing.T) {
	t.Parallel()

	ref := gtCondition()
	h := coverage.NewConditionHook(ref)

	assert.Equal(t, "(a > 4)", h.Expr())

	ref.Token = "<"

	assert.Equal(t, "(a > 4)", h.Expr())

	file, line := h.Position()
	assert.Equal(t, "demo.rb", file)
	assert.Equal(t, uint(3), line)
}

func TestHook_Diagnostics(t *testing.T) {
	t.Parallel()

	h := coverage.NewConditionHook(gtCondition())

	_, err := h.Hook(interp.Bool(true))
	require.NoError(t, err)

	diags := h.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, coverage.Diagnostic{
		File:    "demo.rb",
		Line:    3,
		Kind:    "condition",
		Expr:    "(a > 4)",
		Missing: "false",
		Message: "demo.rb:3: Branch condition (a > 4) was never false.",
	}, diags[0])

	seen, total := h.Outcomes()
	assert.Equal(t, 1, seen)
	assert.Equal(t, 2, total)
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "condition", coverage.KindCondition.String())
	assert.Equal(t, "case", coverage.KindCase.String())
	assert.Equal(t, "case-else", coverage.KindCaseElse.String())
	assert.Equal(t, "unknown", coverage.KindUnknown.String())
}
