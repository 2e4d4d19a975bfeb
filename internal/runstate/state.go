package runstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// State is the persisted outcome of recent study runs.
type State struct {
	Runs                int                 `json:"runs"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	LastRunID           string              `json:"last_run_id"`
	LastRunAt           time.Time           `json:"last_run_at"`
	LastPeriod          string              `json:"last_period"`
	LastSummary         string              `json:"last_summary"`
	LastError           string              `json:"last_error,omitempty"`
	ExportPaths         []string            `json:"export_paths,omitempty"`
	Stages              map[string]string   `json:"stages"`
	StageHistory        map[string][]string `json:"stage_history"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// LoadState reads the state from a JSON file. Returns a zero state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState writes the state to a JSON file, creating its directory.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
