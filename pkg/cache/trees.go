// Package cache holds parsed syntax trees so that source loaded repeatedly
// is parsed once.
package cache

import (
	"crypto/sha256"
	"sync"
	"sync/atomic"

	"github.com/Sumatoshi-tech/foliage/pkg/node"
)

// DefaultTreeCacheSize is the default source byte budget of a TreeCache (16 MiB).
const DefaultTreeCacheSize = 16 * 1024 * 1024

const bytesPerKB = 1024.0

// Key identifies a source text under a file tag.
type Key [sha256.Size]byte

// KeyOf hashes the file tag and source text.
func KeyOf(fileTag, source string) Key {
	h := sha256.New()
	h.Write([]byte(fileTag))
	h.Write([]byte{0})
	h.Write([]byte(source))

	var key Key

	copy(key[:], h.Sum(nil))

	return key
}

// TreeCache is an LRU cache of parsed trees bounded by the total size of the
// source they were parsed from. Trees are copied on the way in and out, so
// callers may rewrite what they get.
type TreeCache struct {
	mu          sync.RWMutex
	entries     map[Key]*treeEntry
	head        *treeEntry // Most recently used.
	tail        *treeEntry // Least recently used.
	maxSize     int64
	currentSize int64

	hits   atomic.Int64
	misses atomic.Int64
}

type treeEntry struct {
	key         Key
	tree        *node.Node
	size        int64
	accessCount int64
	prev        *treeEntry
	next        *treeEntry
}

// evictionCost is low for large, rarely used entries.
func (e *treeEntry) evictionCost() float64 {
	sizeKB := float64(e.size) / bytesPerKB
	if sizeKB < 1 {
		sizeKB = 1
	}

	return float64(e.accessCount) / sizeKB
}

// NewTreeCache creates a cache holding trees for at most maxSize bytes of
// source. A non-positive maxSize selects DefaultTreeCacheSize.
func NewTreeCache(maxSize int64) *TreeCache {
	if maxSize <= 0 {
		maxSize = DefaultTreeCacheSize
	}

	return &TreeCache{
		entries: make(map[Key]*treeEntry),
		maxSize: maxSize,
	}
}

// Get returns a copy of the tree cached under key.
func (c *TreeCache) Get(key Key) (*node.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		return nil, false
	}

	c.hits.Add(1)

	entry.accessCount++
	c.moveToFront(entry)

	return entry.tree.DeepCopy(), true
}

// Put caches a copy of tree, parsed from sourceSize bytes, under key.
// Trees whose source exceeds the whole budget are not cached.
func (c *TreeCache) Put(key Key, tree *node.Node, sourceSize int64) {
	if tree == nil || sourceSize > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.accessCount++
		c.moveToFront(entry)

		return
	}

	for c.currentSize+sourceSize > c.maxSize && c.tail != nil {
		c.evictLowestCost()
	}

	entry := &treeEntry{
		key:         key,
		tree:        tree.DeepCopy(),
		size:        sourceSize,
		accessCount: 1,
	}

	c.entries[key] = entry
	c.currentSize += sourceSize
	c.addToFront(entry)
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Entries     int
	CurrentSize int64
	MaxSize     int64
}

// HitRate returns the hit rate (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// Stats returns the current counters.
func (c *TreeCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Entries:     len(c.entries),
		CurrentSize: c.currentSize,
		MaxSize:     c.maxSize,
	}
}

// Clear removes every entry. Counters are kept.
func (c *TreeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*treeEntry)
	c.head = nil
	c.tail = nil
	c.currentSize = 0
}

func (c *TreeCache) moveToFront(entry *treeEntry) {
	if entry == c.head {
		return
	}

	c.removeFromList(entry)
	c.addToFront(entry)
}

func (c *TreeCache) addToFront(entry *treeEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *TreeCache) removeFromList(entry *treeEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
}

// evictionSampleSize bounds how many entries from the LRU end are compared.
const evictionSampleSize = 5

// evictLowestCost removes the cheapest of the least recently used entries.
func (c *TreeCache) evictLowestCost() {
	if c.tail == nil {
		return
	}

	victim := c.tail
	lowestCost := victim.evictionCost()

	entry := c.tail.prev
	for sampled := 1; entry != nil && sampled < evictionSampleSize; sampled++ {
		if cost := entry.evictionCost(); cost < lowestCost {
			lowestCost = cost
			victim = entry
		}

		entry = entry.prev
	}

	c.removeFromList(victim)
	delete(c.entries, victim.key)
	c.currentSize -= victim.size
}
