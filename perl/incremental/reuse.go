package incremental

import (
	"github.com/dhamidi/perlls/perl/parser"
)

// reusable is a cached subtree that survived an edit. The shift is applied
// only when the subtree is actually spliced.
type reusable struct {
	node  *parser.Node
	shift int
}

func (r reusable) location() parser.Location {
	return parser.Location{Start: r.node.Location.Start + r.shift, End: r.node.Location.End + r.shift}
}

func (r reusable) materialize() *parser.Node {
	if r.shift == 0 {
		return r.node
	}
	return r.node.Shifted(r.shift)
}

// discoverSingle collects cached subtrees lying wholly before or wholly
// after edit. Those after it are shifted by the edit's byte shift.
func discoverSingle(cache *SubtreeCache, edit Edit, m *Metrics) []reusable {
	shift := edit.ByteShift()
	var found []reusable
	cache.scan(func(e rangeEntry) bool {
		switch {
		case e.end <= edit.StartByte:
			found = append(found, reusable{node: e.node})
		case e.start >= edit.OldEndByte:
			found = append(found, reusable{node: e.node, shift: shift})
		default:
			m.CacheMisses++
			return true
		}
		m.CacheHits++
		m.NodesReused += e.count
		return true
	})
	return found
}

// discoverBatch collects cached subtrees that overlap none of edits. Their
// ranges are kept as they were in the original text.
func discoverBatch(cache *SubtreeCache, edits []Edit, m *Metrics) []reusable {
	var found []reusable
	cache.scan(func(e rangeEntry) bool {
		for _, edit := range edits {
			if e.node.Location.Overlaps(edit.StartByte, edit.OldEndByte) {
				m.CacheMisses++
				return true
			}
		}
		found = append(found, reusable{node: e.node})
		m.CacheHits++
		m.NodesReused += e.count
		return true
	})
	return found
}

// splice substitutes candidates into the freshly parsed tree wherever a
// node has the same range and kind. Candidates are tried in order and each
// replaces the first match in pre-order; spliced subtrees are never
// searched again. It returns the resulting root and the number of splices.
func splice(root *parser.Node, candidates []reusable) (*parser.Node, int) {
	spliced := make(map[*parser.Node]bool)
	matched := 0
	for _, r := range candidates {
		loc := r.location()
		if !spliced[root] && root.Location == loc && root.Kind == r.node.Kind {
			root = r.materialize()
			spliced[root] = true
			matched++
			continue
		}
		if replaceIn(root, r, loc, spliced) {
			matched++
		}
	}
	return root, matched
}

func replaceIn(n *parser.Node, r reusable, loc parser.Location, spliced map[*parser.Node]bool) bool {
	if spliced[n] || !descends(n.Kind) {
		return false
	}
	for i, child := range n.Children {
		if spliced[child] {
			continue
		}
		if child.Location == loc && child.Kind == r.node.Kind {
			repl := r.materialize()
			n.Children[i] = repl
			spliced[repl] = true
			return true
		}
		if replaceIn(child, r, loc, spliced) {
			return true
		}
	}
	return false
}
