// Package keylog captures raw keystroke events as immutable records.
package keylog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionType classifies the physical key event that produced a record.
type ActionType string

const (
	ActionKeyDown  ActionType = "keydown"
	ActionKeyUp    ActionType = "keyup"
	ActionKeyPress ActionType = "keypress"
)

// Valid reports whether a is one of the enumerated action types.
func (a ActionType) Valid() bool {
	switch a {
	case ActionKeyDown, ActionKeyUp, ActionKeyPress:
		return true
	}
	return false
}

// Record is one captured keystroke. Fields are set once at capture time
// and never mutated afterward.
type Record struct {
	ID            string     `json:"id"`
	Timestamp     int64      `json:"timestamp"`
	Key           string     `json:"key"`
	ExpectedKey   *string    `json:"expectedKey"`
	IsCorrect     bool       `json:"isCorrect"`
	Position      int        `json:"position"`
	ActionType    ActionType `json:"actionType"`
	InterKeyDelay *int64     `json:"interKeyDelay"`
}

// Clock supplies capture timestamps in milliseconds. It exists so tests
// can drive the recorder deterministically.
type Clock func() int64

// WallClock is the production clock.
func WallClock() int64 {
	return time.Now().UnixMilli()
}

// Recorder turns raw key events into Records.
type Recorder struct {
	clock Clock
}

// NewRecorder returns a Recorder using the given clock, or the wall
// clock when clock is nil.
func NewRecorder(clock Clock) *Recorder {
	if clock == nil {
		clock = WallClock
	}
	return &Recorder{clock: clock}
}

// Record captures a single key event. expected is nil when the position
// lies beyond the prompt; such keystrokes are never correct. prev is the
// timestamp of the previous recorded keystroke in the session, or nil
// for the first one. A delay that would come out negative due to clock
// skew is clamped to zero.
func (r *Recorder) Record(key string, expected *string, position int, action ActionType, prev *int64) (Record, error) {
	if position < 0 {
		return Record{}, fmt.Errorf("negative keystroke position %d", position)
	}
	if !action.Valid() {
		return Record{}, fmt.Errorf("unknown action type %q", action)
	}

	now := r.clock()
	var delay *int64
	if prev != nil {
		d := now - *prev
		if d < 0 {
			d = 0
		}
		delay = &d
	}

	correct := expected != nil && key == *expected
	var expectedCopy *string
	if expected != nil {
		e := *expected
		expectedCopy = &e
	}

	return Record{
		ID:            uuid.New().String(),
		Timestamp:     now,
		Key:           key,
		ExpectedKey:   expectedCopy,
		IsCorrect:     correct,
		Position:      position,
		ActionType:    action,
		InterKeyDelay: delay,
	}, nil
}

// ExpectedAt returns the expected key at position within prompt, or nil
// when position is past the end. Callers pass the result to Record.
func ExpectedAt(prompt []rune, position int) *string {
	if position < 0 || position >= len(prompt) {
		return nil
	}
	s := string(prompt[position])
	return &s
}
