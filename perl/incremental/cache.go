package incremental

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/dhamidi/perlls/perl/parser"
	"github.com/tidwall/btree"
)

const DefaultCacheMaxSize = 1000

type rangeEntry struct {
	start int
	end   int
	node  *parser.Node
	count int
}

// byRangeOrder sorts outer nodes before the nodes they contain.
func byRangeOrder(a, b rangeEntry) bool {
	if a.start != b.start {
		return a.start < b.start
	}
	return a.end > b.end
}

// SubtreeCache indexes the nodes of the last committed tree.
//
// The range index holds every node keyed by its byte range and is rebuilt
// after each commit. The content index maps a hash of a node's kind and
// token text to the node; it is bounded by MaxSize and evicts in insertion
// order.
type SubtreeCache struct {
	byRange   *btree.BTreeG[rangeEntry]
	byContent map[uint64]*parser.Node
	queue     []uint64
	maxSize   int
	digest    *xxhash.Digest
}

func NewSubtreeCache(maxSize int) *SubtreeCache {
	c := &SubtreeCache{
		maxSize: max(maxSize, 0),
		digest:  xxhash.New(),
	}
	c.reset()
	return c
}

func (c *SubtreeCache) reset() {
	c.byRange = btree.NewBTreeGOptions(byRangeOrder, btree.Options{NoLocks: true})
	c.byContent = make(map[uint64]*parser.Node)
	c.queue = nil
}

// Rebuild replaces the cache contents with the nodes of root. Children are
// indexed before their parent, so a parent wins when both share a range.
func (c *SubtreeCache) Rebuild(root *parser.Node) {
	c.reset()
	if root != nil {
		c.insert(root)
	}
}

func (c *SubtreeCache) insert(n *parser.Node) int {
	count := 1
	for _, child := range n.Children {
		count += c.insert(child)
	}
	c.byRange.Set(rangeEntry{start: n.Location.Start, end: n.Location.End, node: n, count: count})

	key := c.hash(n)
	c.byContent[key] = n
	c.queue = append(c.queue, key)
	c.evict()
	return count
}

func (c *SubtreeCache) hash(n *parser.Node) uint64 {
	var kind [8]byte
	binary.LittleEndian.PutUint64(kind[:], uint64(n.Kind))
	c.digest.Reset()
	c.digest.Write(kind[:])
	if n.Kind.IsToken() {
		c.digest.WriteString(n.Value)
	}
	return c.digest.Sum64()
}

func (c *SubtreeCache) evict() {
	for len(c.byContent) > c.maxSize && len(c.queue) > 0 {
		key := c.queue[0]
		c.queue = c.queue[1:]
		delete(c.byContent, key)
	}
}

// SetMaxSize changes the content index bound, evicting immediately when
// it shrinks.
func (c *SubtreeCache) SetMaxSize(n int) {
	c.maxSize = max(n, 0)
	c.evict()
}

func (c *SubtreeCache) MaxSize() int {
	return c.maxSize
}

func (c *SubtreeCache) RangeLen() int {
	return c.byRange.Len()
}

func (c *SubtreeCache) ContentLen() int {
	return len(c.byContent)
}

// LookupContent returns a cached node with the same kind and token text
// as n.
func (c *SubtreeCache) LookupContent(n *parser.Node) (*parser.Node, bool) {
	cached, ok := c.byContent[c.hash(n)]
	if !ok || cached.Kind != n.Kind || (n.Kind.IsToken() && cached.Value != n.Value) {
		return nil, false
	}
	return cached, true
}

// LookupRange returns the cached node spanning exactly [start, end).
func (c *SubtreeCache) LookupRange(start, end int) (*parser.Node, bool) {
	e, ok := c.byRange.Get(rangeEntry{start: start, end: end})
	if !ok {
		return nil, false
	}
	return e.node, true
}

// scan visits every range entry, outer nodes first.
func (c *SubtreeCache) scan(fn func(e rangeEntry) bool) {
	c.byRange.Scan(fn)
}
