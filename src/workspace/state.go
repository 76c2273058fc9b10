package workspace

import (
	"os"

	"github.com/goccy/go-json"

	"docedit/src/editor"
)

// DocumentState stores lightweight metadata of one open document.
type DocumentState struct {
	Path     string      `json:"path"`
	Kind     editor.Kind `json:"kind"`
	Modified bool        `json:"modified"`
}

// State is the persisted workspace session.
type State struct {
	Documents []DocumentState `json:"documents"`
	Active    string          `json:"active"`
	Logging   []string        `json:"logging"`
}

// StateKeeper reads and writes the session file.
type StateKeeper struct {
	path string
}

// NewStateKeeper builds a keeper for the given session file.
func NewStateKeeper(path string) *StateKeeper {
	return &StateKeeper{path: path}
}

// Path returns the session file location.
func (s *StateKeeper) Path() string {
	return s.path
}

// Save persists workspace state to disk.
func (s *StateKeeper) Save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Load restores workspace state. A missing file yields an error matching
// fs.ErrNotExist.
func (s *StateKeeper) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, err
	}
	return state, nil
}
