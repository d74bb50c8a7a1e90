package metrics

import (
	"math"
	"reflect"
	"testing"

	"typegauge/internal/keylog"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func keydown(key, expected string, delay *int64) keylog.Record {
	return keylog.Record{
		ID:            key,
		Key:           key,
		ExpectedKey:   strPtr(expected),
		IsCorrect:     key == expected,
		ActionType:    keylog.ActionKeyDown,
		InterKeyDelay: delay,
	}
}

func TestComputeEmptyLog(t *testing.T) {
	m := Compute(nil, 60000)
	want := Metrics{ProblemKeys: map[string]int{}}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("Compute(nil) = %+v, want all zeros", m)
	}
}

func TestComputeWPM(t *testing.T) {
	// 300 correct keystrokes over 60 seconds: (300/5)/1 = 60 WPM.
	var keystrokes []keylog.Record
	for i := 0; i < 300; i++ {
		keystrokes = append(keystrokes, keydown("a", "a", nil))
	}
	m := Compute(keystrokes, 60000)
	if m.WPM != 60 {
		t.Fatalf("WPM = %v, want 60", m.WPM)
	}
	if m.Accuracy != 100 {
		t.Fatalf("Accuracy = %v, want 100", m.Accuracy)
	}
	if m.ErrorRate != 0 {
		t.Fatalf("ErrorRate = %v, want 0", m.ErrorRate)
	}
}

func TestComputeProblemKeys(t *testing.T) {
	keystrokes := []keylog.Record{
		keydown("k", "c", nil),
		keydown("c", "k", nil),
		keydown("e", "e", nil),
	}
	m := Compute(keystrokes, 10000)
	if m.TotalKeystrokes != 3 || m.ErrorKeystrokes != 2 || m.CorrectKeystrokes != 1 {
		t.Fatalf("counts = %d/%d/%d, want 3/1/2", m.TotalKeystrokes, m.CorrectKeystrokes, m.ErrorKeystrokes)
	}
	want := map[string]int{"k": 1, "c": 1}
	if !reflect.DeepEqual(m.ProblemKeys, want) {
		t.Fatalf("ProblemKeys = %v, want %v", m.ProblemKeys, want)
	}
	if math.Abs(m.Accuracy-100.0/3.0) > 1e-9 {
		t.Fatalf("Accuracy = %v, want ~33.33", m.Accuracy)
	}
}

func TestComputeConsistency(t *testing.T) {
	keystrokes := []keylog.Record{
		keydown("a", "a", nil),
		keydown("b", "b", int64Ptr(100)),
		keydown("c", "c", int64Ptr(200)),
		keydown("d", "d", int64Ptr(300)),
	}
	m := Compute(keystrokes, 10000)
	// Delays 100, 200, 300: mean 200, population variance 6666.67.
	want := math.Sqrt(20000.0 / 3.0)
	if math.Abs(m.Consistency-want) > 1e-9 {
		t.Fatalf("Consistency = %v, want %v", m.Consistency, want)
	}
}

func TestComputeSingleKeystroke(t *testing.T) {
	m := Compute([]keylog.Record{keydown("a", "a", nil)}, 1000)
	if m.Consistency != 0 {
		t.Fatalf("Consistency = %v, want 0 with no delay pairs", m.Consistency)
	}
}

func TestComputeFiltersControlKeys(t *testing.T) {
	keystrokes := []keylog.Record{
		keydown("a", "a", nil),
		{Key: "Backspace", ActionType: keylog.ActionKeyDown},
		{Key: "b", ExpectedKey: strPtr("b"), IsCorrect: true, ActionType: keylog.ActionKeyUp},
		keydown("c", "c", nil),
	}
	m := Compute(keystrokes, 10000)
	if m.TotalKeystrokes != 2 {
		t.Fatalf("TotalKeystrokes = %d, want 2 (Backspace and keyup excluded)", m.TotalKeystrokes)
	}
}

func TestComputeZeroDuration(t *testing.T) {
	keystrokes := []keylog.Record{keydown("a", "a", nil)}
	for _, d := range []int64{0, -500} {
		m := Compute(keystrokes, d)
		if m.WPM != 0 {
			t.Fatalf("WPM with duration %d = %v, want 0", d, m.WPM)
		}
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MovingAverage = %v, want %v", got, want)
	}
}
