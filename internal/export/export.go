// Package export serializes assembled session records for external
// consumers.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"typegauge/internal/session"
)

// Write serializes data as indented JSON to w.
func Write(w io.Writer, data session.Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return nil
}

// WriteFile serializes data to path, creating parent directories.
func WriteFile(path string, data session.Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close after write error.
			_ = cerr
		}
	}()
	if err := Write(f, data); err != nil {
		return err
	}
	return f.Close()
}
