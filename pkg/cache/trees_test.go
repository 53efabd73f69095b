package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/foliage/pkg/cache"
	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

func tree(token string) *node.Node {
	pos := node.NewPositions("t.rb", 1, 1, 1)

	return node.New(node.TypeBlock, "", pos, node.New(node.TypeLit, token, pos.Copy()))
}

func TestKeyOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, cache.KeyOf("a.rb", "1"), cache.KeyOf("a.rb", "1"))
	assert.NotEqual(t, cache.KeyOf("a.rb", "1"), cache.KeyOf("b.rb", "1"))
	assert.NotEqual(t, cache.KeyOf("a.rb1", ""), cache.KeyOf("a.rb", "1"))
}

func TestTreeCache_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	c := cache.NewTreeCache(0)
	key := cache.KeyOf("t.rb", "1")

	_, ok := c.Get(key)
	assert.False(t, ok)

	original := tree("1")
	c.Put(key, original, 1)
	original.Child(0).Token = "changed"

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "(block (lit 1))", got.String())

	got.Child(0).Token = "again"

	got, ok = c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "(block (lit 1))", got.String())

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.InDelta(t, 2.0/3.0, stats.HitRate(), 0.001)
}

func TestTreeCache_Eviction(t *testing.T) {
	t.Parallel()

	c := cache.NewTreeCache(10)

	first, second, third := cache.KeyOf("", "a"), cache.KeyOf("", "b"), cache.KeyOf("", "c")

	c.Put(first, tree("1"), 4)
	c.Put(second, tree("2"), 4)
	c.Put(third, tree("3"), 4)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.LessOrEqual(t, stats.CurrentSize, stats.MaxSize)

	_, ok := c.Get(third)
	assert.True(t, ok)
}

func TestTreeCache_SkipsOversizedAndNil(t *testing.T) {
	t.Parallel()

	c := cache.NewTreeCache(10)

	c.Put(cache.KeyOf("", "big"), tree("1"), 11)
	c.Put(cache.KeyOf("", "nil"), nil, 1)

	assert.Zero(t, c.Stats().Entries)
}

func TestTreeCache_Clear(t *testing.T) {
	t.Parallel()

	c := cache.NewTreeCache(0)
	c.Put(cache.KeyOf("", "x"), tree("1"), 1)
	c.Clear()

	stats := c.Stats()
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.CurrentSize)
	assert.Equal(t, int64(cache.DefaultTreeCacheSize), stats.MaxSize)
}

func TestStats_HitRateEmpty(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, cache.Stats{}.HitRate(), 0.001)
}
