package codebase

import "testing"

func TestPositionConverter(t *testing.T) {
	// "€" is 3 bytes and 1 UTF-16 unit, "𝄞" is 4 bytes and 2 units.
	pc := NewPositionConverter("a€b\n𝄞x\n")

	offsets := []struct {
		pos  Position
		want int
	}{
		{Position{0, 0}, 0},
		{Position{0, 1}, 1},
		{Position{0, 2}, 4},
		{Position{0, 3}, 5},
		{Position{0, 99}, 5},
		{Position{1, 0}, 6},
		{Position{1, 1}, 10},
		{Position{1, 2}, 10},
		{Position{1, 3}, 11},
		{Position{2, 0}, 12},
		{Position{5, 0}, 12},
		{Position{-1, 3}, 0},
	}
	for _, tt := range offsets {
		if got := pc.ByteOffset(tt.pos); got != tt.want {
			t.Errorf("ByteOffset(%+v) = %d, want %d", tt.pos, got, tt.want)
		}
	}

	positions := []struct {
		offset int
		want   Position
	}{
		{0, Position{0, 0}},
		{4, Position{0, 2}},
		{5, Position{0, 3}},
		{6, Position{1, 0}},
		{10, Position{1, 2}},
		{12, Position{2, 0}},
		{100, Position{2, 0}},
		{-1, Position{0, 0}},
	}
	for _, tt := range positions {
		if got := pc.Position(tt.offset); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestPositionConverterByteRange(t *testing.T) {
	pc := NewPositionConverter("hello\nworld")
	start, end := pc.ByteRange(Range{Start: Position{1, 1}, End: Position{0, 2}})
	if start != 7 || end != 7 {
		t.Errorf("inverted range = %d..%d, want 7..7", start, end)
	}
	start, end = pc.ByteRange(Range{Start: Position{0, 1}, End: Position{1, 5}})
	if start != 1 || end != 11 {
		t.Errorf("ByteRange = %d..%d, want 1..11", start, end)
	}
}
