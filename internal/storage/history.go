package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"proxytune/internal/search"
)

const (
	HistoryFile        = "optimization_history.json"
	PartialHistoryFile = "optimization_history_partial.json"
)

// FileSink persists run histories as JSON documents in Dir. Completed
// and interrupted runs go to different files so neither overwrites the
// other.
type FileSink struct {
	Dir string
}

func (s FileSink) SaveFinal(h search.History) error {
	return writeHistory(filepath.Join(s.Dir, HistoryFile), h)
}

func (s FileSink) SavePartial(h search.History) error {
	return writeHistory(filepath.Join(s.Dir, PartialHistoryFile), h)
}

func writeHistory(path string, h search.History) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// ReadHistory loads a previously saved run history, e.g. to regenerate
// a report from a partial save.
func ReadHistory(path string) (search.History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var h search.History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return h, nil
}
