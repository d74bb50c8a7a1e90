package stats

import (
	"context"
	"path/filepath"
	"testing"

	"typegauge/internal/envinfo"
	"typegauge/internal/keylog"
	"typegauge/internal/model"
	"typegauge/internal/session"
	"typegauge/internal/store"
)

func insertSessions(t *testing.T, st *store.Store, n int) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		now := int64(i) * 60000
		clock := func() int64 {
			now += 100
			return now
		}
		s := session.NewWithClock("ab", envinfo.Snapshot{}, clock)
		rec := keylog.NewRecorder(clock)
		runes := []rune("ab")
		for pos, r := range runes {
			ks, err := rec.Record(string(r), keylog.ExpectedAt(runes, pos), pos, keylog.ActionKeyDown, s.LastTimestamp())
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
		if err := st.InsertSession(ctx, data); err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, data.Metadata.SessionID)
	}
	return ids
}

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "typegauge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ids := insertSessions(t, st, 3)

	cfg := model.StatsConfig{
		Last:        2,
		CurveWindow: 2,
	}
	report, err := BuildReport(context.Background(), st, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].SessionID != ids[1] || report.Sessions[1].SessionID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	if len(report.WindowSessionIDs) != 2 {
		t.Fatalf("expected 2 window session ids, got %d", len(report.WindowSessionIDs))
	}
	if len(report.KeyAggsAll) == 0 {
		t.Fatal("expected key aggregates for all sessions")
	}
	if len(report.KeyAggsWindow) == 0 {
		t.Fatal("expected key aggregates for window sessions")
	}
}
