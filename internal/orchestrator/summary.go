package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteSummaryFile drops the session record as pretty-printed JSON into dir
// and returns the file path. The file is the human-readable counterpart of
// the store record, kept next to the session's prompt audit files.
func WriteSummaryFile(sum Summary, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("session_%s_summary.json", sum.SessionID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}
