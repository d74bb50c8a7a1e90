// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// cell is one prompt rune with its rendered form and display width.
type cell struct {
	rendered string
	width    int
	isSpace  bool
}

func renderCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c.rendered)
	}
	return b.String()
}

func cellWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// wrapCells breaks the cell sequence into lines no wider than width,
// preferring breaks at spaces. The trailing space of a broken line is
// dropped from display.
func wrapCells(cells []cell, width int) string {
	if width <= 0 {
		return renderCells(cells)
	}
	var lines []string
	var line []cell
	lineWidth := 0
	for _, c := range cells {
		for lineWidth+c.width > width && len(line) > 0 {
			brk := breakIndex(line)
			if brk >= 0 {
				lines = append(lines, renderCells(line[:brk]))
				line = append([]cell(nil), line[brk+1:]...)
			} else {
				lines = append(lines, renderCells(line))
				line = nil
			}
			lineWidth = 0
			for _, lc := range line {
				lineWidth += lc.width
			}
		}
		line = append(line, c)
		lineWidth += c.width
	}
	lines = append(lines, renderCells(line))
	return strings.Join(lines, "\n")
}

// breakIndex returns the last space position in line, or -1.
func breakIndex(line []cell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}

// wordBounds returns the [start, end) rune range of the word containing
// or following cursor, for highlighting the word being typed.
func wordBounds(target []rune, cursor int) (int, int) {
	if len(target) == 0 {
		return 0, 0
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(target) {
		cursor = len(target) - 1
	}
	// Skip a space under the cursor forward to the next word.
	start := cursor
	for start < len(target) && target[start] == ' ' {
		start++
	}
	if start == len(target) {
		return len(target), len(target)
	}
	for start > 0 && target[start-1] != ' ' {
		start--
	}
	end := start
	for end < len(target) && target[end] != ' ' {
		end++
	}
	return start, end
}
