package session

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"typegauge/internal/envinfo"
	"typegauge/internal/keylog"
)

func TestPipelineOrderAndIdempotence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		promptText := rapid.StringMatching(`[a-z ]{1,40}`).Draw(rt, "prompt")
		typed := rapid.StringMatching(`[a-z ]{0,60}`).Draw(rt, "typed")

		now := int64(0)
		clock := func() int64 {
			now += rapid.Int64Range(0, 500).Draw(rt, "step")
			return now
		}
		s := NewWithClock(promptText, envinfo.Snapshot{}, clock)
		rec := keylog.NewRecorder(clock)

		promptRunes := []rune(promptText)
		for i, r := range []rune(typed) {
			ks, err := rec.Record(string(r), keylog.ExpectedAt(promptRunes, i), i, keylog.ActionKeyDown, s.LastTimestamp())
			if err != nil {
				rt.Fatalf("record: %v", err)
			}
			if err := s.Append(ks); err != nil {
				rt.Fatalf("append: %v", err)
			}
		}
		if err := s.Finalize(typed, StatusCompleted); err != nil {
			rt.Fatalf("finalize: %v", err)
		}

		first, err := s.Assemble()
		if err != nil {
			rt.Fatalf("assemble: %v", err)
		}
		second, err := s.Assemble()
		if err != nil {
			rt.Fatalf("assemble again: %v", err)
		}
		if !reflect.DeepEqual(first.Metrics, second.Metrics) {
			rt.Fatalf("assemble not idempotent: %+v vs %+v", first.Metrics, second.Metrics)
		}

		for i, ks := range first.Keystrokes {
			if ks.Position != i {
				rt.Fatalf("keystroke %d recorded at position %d", i, ks.Position)
			}
			if i == 0 {
				if ks.InterKeyDelay != nil {
					rt.Fatalf("first keystroke has delay %d", *ks.InterKeyDelay)
				}
				continue
			}
			prev := first.Keystrokes[i-1]
			if ks.Timestamp < prev.Timestamp {
				rt.Fatalf("timestamps not monotonic at %d", i)
			}
			if ks.InterKeyDelay == nil || *ks.InterKeyDelay != ks.Timestamp-prev.Timestamp {
				rt.Fatalf("delay mismatch at %d", i)
			}
		}
	})
}
