package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	fallbackTermWidth = 80
	plotHorizontalPad = 8
	maxSeriesPerChart = 4
)

var seriesMarks = []byte{'*', '+', 'o', 'x'}

// TerminalWidth returns the current terminal width, or a fallback when
// stdout is not a terminal.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallbackTermWidth
}

// PlotWidthFor converts a total terminal width into a usable plot width.
func PlotWidthFor(totalWidth int) int {
	w := totalWidth - plotHorizontalPad
	if w < minPlotWidth {
		w = minPlotWidth
	}
	return w
}

// PlotSeries renders the series as an ASCII chart. Each series is scaled
// to its own min/max so curves with different units share one canvas;
// per-series ranges are printed in the legend.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	if len(series) == 0 {
		return nil
	}
	if len(series) > maxSeriesPerChart {
		series = series[:maxSeriesPerChart]
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(TerminalWidth())
	}

	canvas := make([][]byte, height)
	for i := range canvas {
		canvas[i] = []byte(strings.Repeat(" ", width))
	}

	for si, s := range series {
		plotOne(canvas, s.Values, seriesMarks[si])
	}

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, row := range canvas {
		if _, err := fmt.Fprintf(w, "  %s\n", row); err != nil {
			return err
		}
	}
	for si, s := range series {
		minVal, maxVal := seriesRange(s.Values)
		if _, err := fmt.Fprintf(w, "  %c %s (min %.1f, max %.1f)\n", seriesMarks[si], s.Name, minVal, maxVal); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

func plotOne(canvas [][]byte, values []float64, mark byte) {
	if len(values) == 0 {
		return
	}
	height := len(canvas)
	width := len(canvas[0])
	minVal, maxVal := seriesRange(values)
	span := maxVal - minVal

	for x := 0; x < width; x++ {
		idx := 0
		if width > 1 {
			idx = int(math.Round(float64(x) / float64(width-1) * float64(len(values)-1)))
		}
		v := values[idx]
		pos := 0.5
		if span > 1e-9 {
			pos = (v - minVal) / span
		}
		y := height - 1 - int(math.Round(pos*float64(height-1)))
		if y < 0 {
			y = 0
		}
		if y >= height {
			y = height - 1
		}
		canvas[y][x] = mark
	}
}

func seriesRange(values []float64) (minVal, maxVal float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minVal, maxVal = values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}
