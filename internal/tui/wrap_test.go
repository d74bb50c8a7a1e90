package tui

import (
	"strings"
	"testing"
)

func plainCells(s string) []cell {
	runes := []rune(s)
	cells := make([]cell, 0, len(runes))
	for _, r := range runes {
		cells = append(cells, cell{rendered: string(r), width: cellWidth(r), isSpace: r == ' '})
	}
	return cells
}

func TestWrapCellsBreaksAtSpaces(t *testing.T) {
	out := wrapCells(plainCells("one two three"), 8)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2: %q", len(lines), out)
	}
	if lines[0] != "one two" || lines[1] != "three" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestWrapCellsHardBreaksLongWord(t *testing.T) {
	out := wrapCells(plainCells("abcdefghij"), 4)
	for _, line := range strings.Split(out, "\n") {
		if len([]rune(line)) > 4 {
			t.Fatalf("line %q exceeds width 4", line)
		}
	}
}

func TestWrapCellsZeroWidth(t *testing.T) {
	if out := wrapCells(plainCells("abc"), 0); out != "abc" {
		t.Fatalf("zero width output = %q", out)
	}
}

func TestWordBounds(t *testing.T) {
	target := []rune("one two")
	tests := []struct {
		cursor     int
		start, end int
	}{
		{0, 0, 3},
		{2, 0, 3},
		{3, 4, 7}, // on the space, highlight the next word
		{5, 4, 7},
		{6, 4, 7},
	}
	for _, tt := range tests {
		start, end := wordBounds(target, tt.cursor)
		if start != tt.start || end != tt.end {
			t.Fatalf("wordBounds(cursor=%d) = [%d,%d), want [%d,%d)", tt.cursor, start, end, tt.start, tt.end)
		}
	}
}
