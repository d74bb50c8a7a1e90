// Package store handles SQLite persistence of assembled sessions.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"typegauge/internal/envinfo"
	"typegauge/internal/keylog"
	"typegauge/internal/model"
	"typegauge/internal/session"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL,
			status TEXT NOT NULL,
			prompt TEXT NOT NULL,
			transcript TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			device_info TEXT NOT NULL,
			wpm REAL NOT NULL,
			accuracy REAL NOT NULL,
			error_rate REAL NOT NULL,
			consistency REAL NOT NULL,
			total_keystrokes INTEGER NOT NULL,
			correct_keystrokes INTEGER NOT NULL,
			error_keystrokes INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS keystrokes (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			keystroke_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			key TEXT NOT NULL,
			expected_key TEXT,
			is_correct INTEGER NOT NULL,
			position INTEGER NOT NULL,
			action_type TEXT NOT NULL,
			inter_key_delay INTEGER,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS problem_keys (
			session_id TEXT NOT NULL,
			key TEXT NOT NULL,
			errors INTEGER NOT NULL,
			PRIMARY KEY (session_id, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_keystrokes_expected ON keystrokes(expected_key);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores an assembled session record: metadata and metrics
// in the sessions row, the full raw keystroke log, and the sparse
// problem-key counts.
func (s *Store) InsertSession(ctx context.Context, data session.Data) (err error) {
	meta := data.Metadata
	if !meta.Status.Terminal() {
		return fmt.Errorf("refusing to store session %s with status %q", meta.SessionID, meta.Status)
	}
	device, err := json.Marshal(meta.DeviceInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal device info: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var endedAt, durationMs int64
	if meta.EndTime != nil {
		endedAt = *meta.EndTime
	}
	if meta.Duration != nil {
		durationMs = *meta.Duration
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, started_at, ended_at, status, prompt, transcript, duration_ms, device_info,
			wpm, accuracy, error_rate, consistency, total_keystrokes, correct_keystrokes, error_keystrokes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.SessionID,
		meta.StartTime,
		endedAt,
		string(meta.Status),
		meta.TextPrompt,
		meta.UserTranscript,
		durationMs,
		string(device),
		data.Metrics.WPM,
		data.Metrics.Accuracy,
		data.Metrics.ErrorRate,
		data.Metrics.Consistency,
		data.Metrics.TotalKeystrokes,
		data.Metrics.CorrectKeystrokes,
		data.Metrics.ErrorKeystrokes,
	)
	if err != nil {
		return err
	}

	if len(data.Keystrokes) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO keystrokes (session_id, seq, keystroke_id, ts, key, expected_key, is_correct, position, action_type, inter_key_delay)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for seq, ks := range data.Keystrokes {
			if _, err := stmt.ExecContext(ctx, meta.SessionID, seq, ks.ID, ks.Timestamp, ks.Key,
				ks.ExpectedKey, ks.IsCorrect, ks.Position, string(ks.ActionType), ks.InterKeyDelay); err != nil {
				return err
			}
		}
	}

	for key, errors := range data.Metrics.ProblemKeys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO problem_keys (session_id, key, errors) VALUES (?, ?, ?)`,
			meta.SessionID, key, errors); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSession reconstructs a stored session record by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (session.Data, error) {
	var data session.Data
	meta := session.Metadata{SessionID: sessionID}
	var status, device string
	var endedAt, durationMs int64
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, ended_at, status, prompt, transcript, duration_ms, device_info,
			wpm, accuracy, error_rate, consistency, total_keystrokes, correct_keystrokes, error_keystrokes
		 FROM sessions WHERE session_id = ?`, sessionID).Scan(
		&meta.StartTime, &endedAt, &status, &meta.TextPrompt, &meta.UserTranscript, &durationMs, &device,
		&data.Metrics.WPM, &data.Metrics.Accuracy, &data.Metrics.ErrorRate, &data.Metrics.Consistency,
		&data.Metrics.TotalKeystrokes, &data.Metrics.CorrectKeystrokes, &data.Metrics.ErrorKeystrokes)
	if err != nil {
		return session.Data{}, err
	}
	meta.Status = session.Status(status)
	meta.EndTime = &endedAt
	meta.Duration = &durationMs
	var snapshot envinfo.Snapshot
	if err := json.Unmarshal([]byte(device), &snapshot); err != nil {
		return session.Data{}, fmt.Errorf("failed to decode device info: %w", err)
	}
	meta.DeviceInfo = snapshot
	data.Metadata = meta

	if data.Keystrokes, err = s.listKeystrokes(ctx, sessionID); err != nil {
		return session.Data{}, err
	}
	if data.Metrics.ProblemKeys, err = s.listProblemKeys(ctx, sessionID); err != nil {
		return session.Data{}, err
	}
	return data, nil
}

func (s *Store) listKeystrokes(ctx context.Context, sessionID string) ([]keylog.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keystroke_id, ts, key, expected_key, is_correct, position, action_type, inter_key_delay
		 FROM keystrokes WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var keystrokes []keylog.Record
	for rows.Next() {
		var ks keylog.Record
		var action string
		if err := rows.Scan(&ks.ID, &ks.Timestamp, &ks.Key, &ks.ExpectedKey, &ks.IsCorrect,
			&ks.Position, &action, &ks.InterKeyDelay); err != nil {
			return nil, err
		}
		ks.ActionType = keylog.ActionType(action)
		keystrokes = append(keystrokes, ks)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keystrokes, nil
}

func (s *Store) listProblemKeys(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, errors FROM problem_keys WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[string]int{}
	for rows.Next() {
		var key string
		var errors int
		if err := rows.Scan(&key, &errors); err != nil {
			return nil, err
		}
		result[key] = errors
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LatestSessionID returns the id of the most recently finished session.
func (s *Store) LatestSessionID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM sessions ORDER BY ended_at DESC LIMIT 1`).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListSessions returns session summaries filtered by stats config,
// oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionSummary, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UnixMilli())
	}
	query := fmt.Sprintf(`SELECT session_id, ended_at, status, duration_ms, wpm, accuracy, error_rate, consistency,
			total_keystrokes, error_keystrokes
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionSummary
	for rows.Next() {
		var sum model.SessionSummary
		var endedAt int64
		if err := rows.Scan(&sum.SessionID, &endedAt, &sum.Status, &sum.DurationMs, &sum.WPM, &sum.Accuracy,
			&sum.ErrorRate, &sum.Consistency, &sum.TotalKeystrokes, &sum.ErrorKeystrokes); err != nil {
			return nil, err
		}
		sum.EndedAt = time.UnixMilli(endedAt)
		sessions = append(sessions, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetWeakKeys aggregates per-key accuracy and delay over the most recent
// sessions. Only keydown events with a known expected key participate,
// grouped by the expected key so misses count against the key the
// prompt asked for.
func (s *Store) GetWeakKeys(ctx context.Context, window int) ([]model.KeyAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT session_id FROM sessions
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT k.expected_key,
		SUM(k.is_correct) AS correct,
		SUM(1 - k.is_correct) AS incorrect,
		COALESCE(SUM(k.inter_key_delay), 0) AS delay_sum_ms,
		COUNT(k.inter_key_delay) AS delay_count
	FROM keystrokes k
	JOIN recent_sessions r ON r.session_id = k.session_id
	WHERE k.expected_key IS NOT NULL
		AND k.action_type = 'keydown'
	GROUP BY k.expected_key`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.KeyAggregate
	for rows.Next() {
		var agg model.KeyAggregate
		if err := rows.Scan(&agg.Key, &agg.Correct, &agg.Incorrect, &agg.DelaySumMs, &agg.DelayCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListKeyAggregates aggregates per-key stats across the given sessions.
func (s *Store) ListKeyAggregates(ctx context.Context, sessionIDs []string) ([]model.KeyAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT expected_key,
			SUM(is_correct) AS correct,
			SUM(1 - is_correct) AS incorrect,
			COALESCE(SUM(inter_key_delay), 0) AS delay_sum_ms,
			COUNT(inter_key_delay) AS delay_count
		FROM keystrokes
		WHERE session_id IN (%s)
			AND expected_key IS NOT NULL
			AND action_type = 'keydown'
		GROUP BY expected_key`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.KeyAggregate
	for rows.Next() {
		var agg model.KeyAggregate
		if err := rows.Scan(&agg.Key, &agg.Correct, &agg.Incorrect, &agg.DelaySumMs, &agg.DelayCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
