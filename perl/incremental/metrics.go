package incremental

import (
	"fmt"
	"time"
)

// Metrics describes the most recent successful parse of a Document.
type Metrics struct {
	// NodesReused counts the nodes of every cached subtree found to lie
	// outside the edited region, summed at discovery time.
	NodesReused int
	// NodesReparsed is the node count of the committed tree minus
	// NodesReused, floored at zero.
	NodesReparsed int
	// CacheHits and CacheMisses count range-index entries that were and
	// were not found reusable.
	CacheHits   int
	CacheMisses int
	// LastParseTimeMs is the wall time of the whole update in milliseconds.
	LastParseTimeMs float64
	// FastPath is set when the update rewrote a single token in place.
	FastPath bool
}

// ReuseRatio is the fraction of the tree that came from the cache.
func (m Metrics) ReuseRatio() float64 {
	total := m.NodesReused + m.NodesReparsed
	if total == 0 {
		return 0
	}
	return float64(m.NodesReused) / float64(total)
}

func (m Metrics) String() string {
	return fmt.Sprintf("reused=%d reparsed=%d hits=%d misses=%d fast=%t time=%.3fms",
		m.NodesReused, m.NodesReparsed, m.CacheHits, m.CacheMisses, m.FastPath, m.LastParseTimeMs)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}
