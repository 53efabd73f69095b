package coverage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/foliage/pkg/coverage"
	"github.com/Sumatoshi-tech/foliage/pkg/interp"
	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

func newHook() *coverage.Hook {
	return coverage.NewConditionHook(node.New(node.TypeTrue, "", nil))
}

func TestRegistry_RegisterRequiresSession(t *testing.T) {
	t.Parallel()

	reg := coverage.NewRegistry()

	_, err := reg.Register(newHook())
	require.ErrorIs(t, err, coverage.ErrNoActiveSession)

	_, err = reg.Pop()
	require.ErrorIs(t, err, coverage.ErrNoActiveSession)
}

func TestRegistry_Nesting(t *testing.T) {
	t.Parallel()

	reg := coverage.NewRegistry()

	reg.Push()

	outerFirst := newHook()
	_, err := reg.Register(outerFirst)
	require.NoError(t, err)

	reg.Push()
	assert.Equal(t, 2, reg.Depth())

	inner := newHook()
	_, err = reg.Register(inner)
	require.NoError(t, err)

	innerHooks, err := reg.Pop()
	require.NoError(t, err)
	assert.Equal(t, []*coverage.Hook{inner}, innerHooks)

	outerLast := newHook()
	_, err = reg.Register(outerLast)
	require.NoError(t, err)

	outerHooks, err := reg.Pop()
	require.NoError(t, err)
	assert.Equal(t, []*coverage.Hook{outerFirst, outerLast}, outerHooks)
	assert.Equal(t, 0, reg.Depth())
}

func TestRegistry_ResolveExactInstance(t *testing.T) {
	t.Parallel()

	reg := coverage.NewRegistry()
	reg.Push()

	h := newHook()
	id, err := reg.Register(h)
	require.NoError(t, err)
	assert.Equal(t, id, h.ID)

	fn, ok := reg.Resolve(id)
	require.True(t, ok)

	_, err = fn(interp.Bool(true))
	require.NoError(t, err)

	_, err = fn(interp.Bool(false))
	require.NoError(t, err)

	assert.True(t, h.Covered())

	_, ok = reg.Resolve(id + 100)
	assert.False(t, ok)

	_, err = reg.Pop()
	require.NoError(t, err)

	_, ok = reg.Resolve(id)
	assert.False(t, ok, "popped hooks are released")
}

func TestRegistry_UniqueIDs(t *testing.T) {
	t.Parallel()

	reg := coverage.NewRegistry()
	seen := make(map[int]bool)

	for range 3 {
		reg.Push()

		for range 4 {
			id, err := reg.Register(newHook())
			require.NoError(t, err)
			assert.False(t, seen[id])

			seen[id] = true
		}

		_, err := reg.Pop()
		require.NoError(t, err)
	}
}
