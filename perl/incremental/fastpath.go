package incremental

import (
	"strconv"

	"github.com/dhamidi/perlls/perl/parser"
)

// maxFastPathSpan is the widest replaced range the fast path considers.
const maxFastPathSpan = 100

// descends reports whether the fast path and the splice step look inside
// nodes of kind k.
func descends(k parser.NodeKind) bool {
	return k == parser.KindProgram || k == parser.KindBlock || k == parser.KindBinary
}

// tokenPath returns the chain of nodes from root down to the deepest node
// containing offset, following only Program, Block and Binary nodes.
func tokenPath(root *parser.Node, offset int) []*parser.Node {
	if root == nil || !root.Location.Contains(offset) {
		return nil
	}
	path := []*parser.Node{root}
	for n := root; descends(n.Kind); {
		var next *parser.Node
		for _, child := range n.Children {
			if child.Location.Contains(offset) {
				next = child
				break
			}
		}
		if next == nil {
			break
		}
		path = append(path, next)
		n = next
	}
	return path
}

// tryFastPath rewrites the single Number, String or Identifier token
// enclosing edit without reparsing. newSrc is the text after the edit.
// It returns nil when the edit is not eligible.
func tryFastPath(root *parser.Node, newSrc string, edit Edit) *parser.Node {
	if edit.OldEndByte-edit.StartByte > maxFastPathSpan {
		return nil
	}
	path := tokenPath(root, edit.StartByte)
	if len(path) == 0 {
		return nil
	}
	tok := path[len(path)-1]
	if !tok.Kind.IsToken() || tok.Location.End < edit.OldEndByte {
		return nil
	}

	shift := edit.ByteShift()
	start, end := tok.Location.Start, tok.Location.End+shift
	if end < start || end > len(newSrc) || !isBoundary(newSrc, start) || !isBoundary(newSrc, end) {
		return nil
	}
	value := newSrc[start:end]
	if tok.Kind == parser.KindNumber {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil
		}
		value = strconv.FormatFloat(v, 'f', -1, 64)
	}

	replacement := &parser.Node{
		Kind:     tok.Kind,
		Location: parser.Location{Start: start, End: end},
		Value:    value,
	}
	return rebuildPath(path, replacement, shift)
}

// rebuildPath copies the ancestors in path with replacement substituted for
// the last element. Ancestor ends move by shift, as does every sibling that
// follows the path. Everything else is shared with the old tree.
func rebuildPath(path []*parser.Node, replacement *parser.Node, shift int) *parser.Node {
	child := replacement
	for i := len(path) - 2; i >= 0; i-- {
		orig, old := path[i], path[i+1]
		copied := &parser.Node{
			Kind:     orig.Kind,
			Location: parser.Location{Start: orig.Location.Start, End: orig.Location.End + shift},
			Value:    orig.Value,
			Children: make([]*parser.Node, len(orig.Children)),
		}
		after := false
		for j, c := range orig.Children {
			switch {
			case c == old:
				copied.Children[j] = child
				after = true
			case after && shift != 0:
				copied.Children[j] = c.Shifted(shift)
			default:
				copied.Children[j] = c
			}
		}
		child = copied
	}
	return child
}
