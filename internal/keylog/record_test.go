package keylog

import (
	"testing"
)

func fixedClock(times ...int64) Clock {
	i := 0
	return func() int64 {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func strPtr(s string) *string { return &s }

func TestRecordCorrectness(t *testing.T) {
	rec := NewRecorder(fixedClock(1000))

	tests := []struct {
		name     string
		key      string
		expected *string
		want     bool
	}{
		{"match", "a", strPtr("a"), true},
		{"mismatch", "a", strPtr("b"), false},
		{"beyond prompt", "a", nil, false},
		{"case sensitive", "A", strPtr("a"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := rec.Record(tt.key, tt.expected, 0, ActionKeyDown, nil)
			if err != nil {
				t.Fatalf("record: %v", err)
			}
			if r.IsCorrect != tt.want {
				t.Fatalf("IsCorrect = %v, want %v", r.IsCorrect, tt.want)
			}
		})
	}
}

func TestRecordDelay(t *testing.T) {
	rec := NewRecorder(fixedClock(1000, 1150))

	first, err := rec.Record("a", strPtr("a"), 0, ActionKeyDown, nil)
	if err != nil {
		t.Fatalf("record first: %v", err)
	}
	if first.InterKeyDelay != nil {
		t.Fatalf("first keystroke delay = %v, want nil", *first.InterKeyDelay)
	}

	second, err := rec.Record("b", strPtr("b"), 1, ActionKeyDown, &first.Timestamp)
	if err != nil {
		t.Fatalf("record second: %v", err)
	}
	if second.InterKeyDelay == nil || *second.InterKeyDelay != 150 {
		t.Fatalf("second keystroke delay = %v, want 150", second.InterKeyDelay)
	}
}

func TestRecordClampsNegativeDelay(t *testing.T) {
	// Clock goes backwards between keystrokes.
	rec := NewRecorder(fixedClock(500))
	prev := int64(900)
	r, err := rec.Record("a", strPtr("a"), 0, ActionKeyDown, &prev)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if r.InterKeyDelay == nil || *r.InterKeyDelay != 0 {
		t.Fatalf("delay = %v, want clamped 0", r.InterKeyDelay)
	}
}

func TestRecordRejectsBadInput(t *testing.T) {
	rec := NewRecorder(fixedClock(1000))
	if _, err := rec.Record("a", nil, -1, ActionKeyDown, nil); err == nil {
		t.Fatal("expected error for negative position")
	}
	if _, err := rec.Record("a", nil, 0, ActionType("hold"), nil); err == nil {
		t.Fatal("expected error for unknown action type")
	}
}

func TestRecordUniqueIDs(t *testing.T) {
	rec := NewRecorder(fixedClock(1000))
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		r, err := rec.Record("a", strPtr("a"), i, ActionKeyDown, nil)
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if seen[r.ID] {
			t.Fatalf("duplicate record id %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestExpectedAt(t *testing.T) {
	prompt := []rune("abc")
	if e := ExpectedAt(prompt, 1); e == nil || *e != "b" {
		t.Fatalf("ExpectedAt(1) = %v, want b", e)
	}
	if e := ExpectedAt(prompt, 3); e != nil {
		t.Fatalf("ExpectedAt(3) = %v, want nil", *e)
	}
	if e := ExpectedAt(prompt, -1); e != nil {
		t.Fatalf("ExpectedAt(-1) = %v, want nil", *e)
	}
}
