package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// RunState tracks which specs have been converted and their content hashes,
// so re-runs only convert files that changed.
type RunState struct {
	FileHashes  map[string]string `json:"file_hashes"`
	LastUpdated time.Time         `json:"last_updated"`
}

// LoadState reads run state from .testmorph/state.json inside the given directory.
func LoadState(dir string) (*RunState, error) {
	path := filepath.Join(dir, ".testmorph", "state.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RunState{
				FileHashes: make(map[string]string),
			}, nil
		}
		return nil, err
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.FileHashes == nil {
		state.FileHashes = make(map[string]string)
	}
	return &state, nil
}

// SaveState writes the run state to .testmorph/state.json inside the given directory.
func (s *RunState) SaveState(dir string) error {
	stateDir := filepath.Join(dir, ".testmorph")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return err
	}

	s.LastUpdated = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(stateDir, "state.json"), data, 0o644)
}

// IsFileChanged returns true if the file's content hash differs from the stored hash.
func (s *RunState) IsFileChanged(filePath, contentHash string) bool {
	stored, ok := s.FileHashes[filePath]
	if !ok {
		return true
	}
	return stored != contentHash
}
