package codebase

import (
	"sort"
	"unicode/utf16"
)

// Position is a zero-based line and UTF-16 column, as used by LSP.
type Position struct {
	Line      int
	Character int
}

type Range struct {
	Start Position
	End   Position
}

// PositionConverter translates between LSP positions and byte offsets in
// one version of a text.
type PositionConverter struct {
	text       string
	lineStarts []int
}

func NewPositionConverter(text string) *PositionConverter {
	pc := &PositionConverter{text: text, lineStarts: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			pc.lineStarts = append(pc.lineStarts, i+1)
		}
	}
	return pc
}

// lineEnd is the offset of the line's newline, or the text length.
func (pc *PositionConverter) lineEnd(line int) int {
	if line+1 < len(pc.lineStarts) {
		return pc.lineStarts[line+1] - 1
	}
	return len(pc.text)
}

// ByteOffset converts pos to a byte offset. Positions past the end of a
// line clamp to the line end and lines past the end clamp to the text end.
func (pc *PositionConverter) ByteOffset(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(pc.lineStarts) {
		return len(pc.text)
	}
	start, end := pc.lineStarts[pos.Line], pc.lineEnd(pos.Line)
	units := 0
	for i, r := range pc.text[start:end] {
		if units >= pos.Character {
			return start + i
		}
		units += utf16Len(r)
	}
	return end
}

// Position converts a byte offset to an LSP position.
func (pc *PositionConverter) Position(offset int) Position {
	offset = min(max(offset, 0), len(pc.text))
	line := sort.Search(len(pc.lineStarts), func(i int) bool {
		return pc.lineStarts[i] > offset
	}) - 1
	units := 0
	for _, r := range pc.text[pc.lineStarts[line]:offset] {
		units += utf16Len(r)
	}
	return Position{Line: line, Character: units}
}

// ByteRange converts r to a half-open byte range.
func (pc *PositionConverter) ByteRange(r Range) (start, end int) {
	start, end = pc.ByteOffset(r.Start), pc.ByteOffset(r.End)
	if end < start {
		end = start
	}
	return start, end
}

func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
