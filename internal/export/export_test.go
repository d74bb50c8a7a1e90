package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"typegauge/internal/envinfo"
	"typegauge/internal/keylog"
	"typegauge/internal/session"
)

func assembled(t *testing.T) session.Data {
	t.Helper()
	now := int64(0)
	clock := func() int64 {
		now += 100
		return now
	}
	s := session.NewWithClock("ab", envinfo.Snapshot{OS: "linux/amd64"}, clock)
	rec := keylog.NewRecorder(clock)
	runes := []rune("ab")
	for i, r := range runes {
		ks, err := rec.Record(string(r), keylog.ExpectedAt(runes, i), i, keylog.ActionKeyDown, s.LastTimestamp())
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if err := s.Append(ks); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := s.Finalize("ab", session.StatusCompleted); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	data, err := s.Assemble()
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return data
}

func TestWriteShape(t *testing.T) {
	data := assembled(t)
	var buf bytes.Buffer
	if err := Write(&buf, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	var decoded struct {
		Metadata struct {
			SessionID string `json:"sessionId"`
			EndTime   *int64 `json:"endTime"`
			Duration  *int64 `json:"duration"`
			Status    string `json:"status"`
		} `json:"metadata"`
		Keystrokes []struct {
			InterKeyDelay *int64 `json:"interKeyDelay"`
		} `json:"keystrokes"`
		Metrics struct {
			WPM float64 `json:"wpm"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Metadata.SessionID != data.Metadata.SessionID {
		t.Fatalf("session id %q != %q", decoded.Metadata.SessionID, data.Metadata.SessionID)
	}
	if decoded.Metadata.EndTime == nil || decoded.Metadata.Duration == nil {
		t.Fatal("finalized session must export end time and duration")
	}
	if decoded.Metadata.Status != "completed" {
		t.Fatalf("status = %q, want completed", decoded.Metadata.Status)
	}
	if len(decoded.Keystrokes) != 2 {
		t.Fatalf("keystroke count = %d, want 2", len(decoded.Keystrokes))
	}
	if decoded.Keystrokes[0].InterKeyDelay != nil {
		t.Fatal("first keystroke must export a null interKeyDelay")
	}
	if decoded.Keystrokes[1].InterKeyDelay == nil {
		t.Fatal("second keystroke must export its interKeyDelay")
	}
}

func TestWriteFile(t *testing.T) {
	data := assembled(t)
	path := filepath.Join(t.TempDir(), "out", "session.json")
	if err := WriteFile(path, data); err != nil {
		t.Fatalf("write file: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("exported file is not valid JSON: %v", err)
	}
	for _, field := range []string{"metadata", "keystrokes", "metrics"} {
		if _, ok := decoded[field]; !ok {
			t.Fatalf("export missing %q field", field)
		}
	}
}
