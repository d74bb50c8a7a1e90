// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Words         int
	CapsPct       float64
	PunctPct      float64
	PunctSet      string
	TimeLimitSecs int
	FocusWeak     bool
	WeakTop       int
	WeakFactor    float64
	WeakWindow    int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionSummary is one stored session's derived numbers, used for
// reporting.
type SessionSummary struct {
	SessionID       string
	EndedAt         time.Time
	Status          string
	DurationMs      int64
	WPM             float64
	Accuracy        float64
	ErrorRate       float64
	Consistency     float64
	TotalKeystrokes int
	ErrorKeystrokes int
}

// KeyAggregate aggregates per-key stats across sessions.
type KeyAggregate struct {
	Key        string
	Correct    int
	Incorrect  int
	DelaySumMs int64
	DelayCount int64
}
