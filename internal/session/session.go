// Package session owns the typing session lifecycle and the assembled
// session record.
package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"typegauge/internal/envinfo"
	"typegauge/internal/keylog"
	"typegauge/internal/metrics"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Usage errors. These indicate caller bugs and are never absorbed
// internally; silently accepting them would corrupt duration or metrics.
var (
	ErrTerminal         = errors.New("session is in a terminal state")
	ErrAlreadyFinalized = errors.New("session already finalized")
	ErrInProgress       = errors.New("session still in progress")
)

// Metadata holds session identity and timing. EndTime and Duration are
// nil until the session is finalized.
type Metadata struct {
	SessionID      string           `json:"sessionId"`
	StartTime      int64            `json:"startTime"`
	EndTime        *int64           `json:"endTime"`
	Duration       *int64           `json:"duration"`
	TextPrompt     string           `json:"textPrompt"`
	UserTranscript string           `json:"userTranscript"`
	Status         Status           `json:"status"`
	DeviceInfo     envinfo.Snapshot `json:"deviceInfo"`
}

// Data is the exported session record: metadata, the ordered raw
// keystroke log, and the derived metrics. It is assembled once after
// finalize and read-only from then on.
type Data struct {
	Metadata   Metadata        `json:"metadata"`
	Keystrokes []keylog.Record `json:"keystrokes"`
	Metrics    metrics.Metrics `json:"metrics"`
}

// Session is the lifecycle state machine. A Session is created already
// initialized (in-progress); starting over means creating a new one, so
// double-initialize cannot happen on an instance.
type Session struct {
	meta       Metadata
	keystrokes []keylog.Record
	clock      keylog.Clock
}

// New starts a session over the given prompt, generating its id and
// capturing the start time and environment snapshot.
func New(prompt string, device envinfo.Snapshot) *Session {
	return NewWithClock(prompt, device, keylog.WallClock)
}

// NewWithClock is New with an explicit clock for tests.
func NewWithClock(prompt string, device envinfo.Snapshot, clock keylog.Clock) *Session {
	if clock == nil {
		clock = keylog.WallClock
	}
	return &Session{
		meta: Metadata{
			SessionID:  uuid.New().String(),
			StartTime:  clock(),
			TextPrompt: prompt,
			Status:     StatusInProgress,
			DeviceInfo: device,
		},
		clock: clock,
	}
}

// Metadata returns a copy of the session metadata.
func (s *Session) Metadata() Metadata {
	return s.meta
}

// Len returns the number of recorded keystrokes.
func (s *Session) Len() int {
	return len(s.keystrokes)
}

// LastTimestamp returns the timestamp of the most recent keystroke, or
// nil when none have been recorded. Callers pass it to the recorder to
// derive inter-key delays.
func (s *Session) LastTimestamp() *int64 {
	if len(s.keystrokes) == 0 {
		return nil
	}
	ts := s.keystrokes[len(s.keystrokes)-1].Timestamp
	return &ts
}

// Append adds a keystroke to the log, preserving delivery order. It is
// legal only while the session is in progress.
func (s *Session) Append(rec keylog.Record) error {
	if s.meta.Status.Terminal() {
		return fmt.Errorf("append keystroke: %w", ErrTerminal)
	}
	s.keystrokes = append(s.keystrokes, rec)
	return nil
}

// Finalize moves the session to the terminal state named by outcome,
// recording the transcript, end time, and duration. Calling it a second
// time is a logic error and is rejected.
func (s *Session) Finalize(transcript string, outcome Status) error {
	if s.meta.Status.Terminal() {
		return fmt.Errorf("finalize session %s: %w", s.meta.SessionID, ErrAlreadyFinalized)
	}
	if !outcome.Terminal() {
		return fmt.Errorf("finalize session %s: invalid outcome %q", s.meta.SessionID, outcome)
	}
	end := s.clock()
	duration := end - s.meta.StartTime
	s.meta.EndTime = &end
	s.meta.Duration = &duration
	s.meta.UserTranscript = transcript
	s.meta.Status = outcome
	return nil
}

// Assemble packages the finalized session into its exported record,
// running the metrics computation over the full log. It is a usage
// error to assemble a session that is still in progress.
func (s *Session) Assemble() (Data, error) {
	if !s.meta.Status.Terminal() {
		return Data{}, fmt.Errorf("assemble session %s: %w", s.meta.SessionID, ErrInProgress)
	}
	var durationMs int64
	if s.meta.Duration != nil {
		durationMs = *s.meta.Duration
	}
	keystrokes := make([]keylog.Record, len(s.keystrokes))
	copy(keystrokes, s.keystrokes)
	return Data{
		Metadata:   s.meta,
		Keystrokes: keystrokes,
		Metrics:    metrics.Compute(keystrokes, durationMs),
	}, nil
}
