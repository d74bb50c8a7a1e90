// Package metrics derives typing performance metrics from keystroke logs.
package metrics

import (
	"math"
	"unicode/utf8"

	"typegauge/internal/keylog"
)

// Metrics summarizes one typing session. It is recomputed wholesale from
// the full keystroke log, never patched incrementally.
type Metrics struct {
	WPM               float64        `json:"wpm"`
	Accuracy          float64        `json:"accuracy"`
	ErrorRate         float64        `json:"errorRate"`
	TotalKeystrokes   int            `json:"totalKeystrokes"`
	CorrectKeystrokes int            `json:"correctKeystrokes"`
	ErrorKeystrokes   int            `json:"errorKeystrokes"`
	Consistency       float64        `json:"consistency"`
	ProblemKeys       map[string]int `json:"problemKeys"`
}

// Compute aggregates the keystroke log into Metrics. Only keydown events
// carrying a single character count toward the numbers; control keys such
// as Backspace stay in the raw log but are skipped here. The function is
// pure: identical inputs always produce identical output, and the inputs
// are never mutated.
//
// Degenerate inputs fall back to zeros: an empty log yields all-zero
// metrics with an empty ProblemKeys map, and a non-positive duration
// yields a zero WPM rather than an error.
func Compute(keystrokes []keylog.Record, durationMs int64) Metrics {
	m := Metrics{ProblemKeys: map[string]int{}}

	var delays []float64
	for _, ks := range keystrokes {
		if !countsForMetrics(ks) {
			continue
		}
		m.TotalKeystrokes++
		if ks.IsCorrect {
			m.CorrectKeystrokes++
		} else {
			m.ErrorKeystrokes++
			m.ProblemKeys[ks.Key]++
		}
		if ks.InterKeyDelay != nil {
			delays = append(delays, float64(*ks.InterKeyDelay))
		}
	}

	if m.TotalKeystrokes > 0 {
		m.Accuracy = float64(m.CorrectKeystrokes) / float64(m.TotalKeystrokes) * 100
		m.ErrorRate = float64(m.ErrorKeystrokes) / float64(m.TotalKeystrokes)
	}

	minutes := float64(durationMs) / 60000.0
	if minutes > 0 {
		m.WPM = (float64(m.TotalKeystrokes) / 5.0) / minutes
	}

	m.Consistency = populationStdDev(delays)
	return m
}

// countsForMetrics is the canonical filter: keydown with a single-rune key.
func countsForMetrics(ks keylog.Record) bool {
	return ks.ActionType == keylog.ActionKeyDown && utf8.RuneCountInString(ks.Key) == 1
}

func populationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}
