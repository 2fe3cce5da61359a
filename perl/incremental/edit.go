package incremental

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Edit replaces the bytes [StartByte, OldEndByte) of a text with NewText.
type Edit struct {
	StartByte  int
	OldEndByte int
	NewText    string
}

func NewEdit(start, oldEnd int, newText string) Edit {
	return Edit{StartByte: start, OldEndByte: oldEnd, NewText: newText}
}

// ByteShift is the signed change in text length caused by the edit.
func (e Edit) ByteShift() int {
	return len(e.NewText) - (e.OldEndByte - e.StartByte)
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d)->%q", e.StartByte, e.OldEndByte, e.NewText)
}

// clamp limits the edit's offsets to a text of length n.
func (e Edit) clamp(n int) Edit {
	e.StartByte = min(max(e.StartByte, 0), n)
	e.OldEndByte = min(max(e.OldEndByte, 0), n)
	if e.OldEndByte < e.StartByte {
		e.OldEndByte = e.StartByte
	}
	return e
}

func isBoundary(s string, i int) bool {
	return i == len(s) || (i >= 0 && i < len(s) && utf8.RuneStart(s[i]))
}

// Apply returns src with the edit performed. Offsets past the end of src
// are clamped. An edit whose offsets fall inside a multi-byte UTF-8
// sequence is rejected: src is returned unchanged and ok is false.
func (e Edit) Apply(src string) (result string, ok bool) {
	e = e.clamp(len(src))
	if !isBoundary(src, e.StartByte) || !isBoundary(src, e.OldEndByte) {
		log.Debugf("rejecting edit %v: offsets are not on UTF-8 boundaries", e)
		return src, false
	}
	var b strings.Builder
	b.Grow(len(src) + e.ByteShift())
	b.WriteString(src[:e.StartByte])
	b.WriteString(e.NewText)
	b.WriteString(src[e.OldEndByte:])
	return b.String(), true
}

// EditSet is a batch of edits whose offsets all refer to the same
// original text.
type EditSet struct {
	edits []Edit
}

func NewEditSet(edits ...Edit) *EditSet {
	return &EditSet{edits: slices.Clone(edits)}
}

func (s *EditSet) Add(e Edit) {
	s.edits = append(s.edits, e)
}

func (s *EditSet) Len() int {
	return len(s.edits)
}

// Edits returns the edits in insertion order.
func (s *EditSet) Edits() []Edit {
	return slices.Clone(s.edits)
}

// Sorted returns the edits ordered by descending StartByte, so that
// applying them in order never invalidates the offsets of the rest.
func (s *EditSet) Sorted() []Edit {
	sorted := slices.Clone(s.edits)
	slices.SortStableFunc(sorted, func(a, b Edit) int {
		return b.StartByte - a.StartByte
	})
	return sorted
}

// ApplyTo performs every edit on src, right to left.
func (s *EditSet) ApplyTo(src string) string {
	for _, e := range s.Sorted() {
		src, _ = e.Apply(src)
	}
	return src
}
