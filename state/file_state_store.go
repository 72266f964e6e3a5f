package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStateStore implements StateStore using file-based persistence.
// State is stored as JSON in a file within the state directory.
type FileStateStore struct {
	stateDir  string
	stateFile string
	mu        sync.Mutex
}

var _ StateStore = (*FileStateStore)(nil)

// NewFileStateStore creates a new file-based state store.
// If stateDir is empty, it defaults to ".pluginmeta/state" in the current directory.
func NewFileStateStore(stateDir string) *FileStateStore {
	if stateDir == "" {
		stateDir = filepath.Join(".", ".pluginmeta", "state")
	}

	return &FileStateStore{
		stateDir:  stateDir,
		stateFile: filepath.Join(stateDir, "plugins.json"),
	}
}

// Path returns the location of the state file
func (f *FileStateStore) Path() string {
	return f.stateFile
}

// Load retrieves the previously saved state from the file.
func (f *FileStateStore) Load() (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("unable to decode state file %s: %w", f.stateFile, err)
	}

	if s.Plugins == nil {
		s.Plugins = map[string]PluginState{}
	}

	return s, nil
}

// Save persists the state to the file.
func (f *FileStateStore) Save(s *State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf := bytes.NewBuffer([]byte{})
	enc := json.NewEncoder(buf)
	enc.SetIndent("", " ")

	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("unable to encode state: %w", err)
	}

	if err := os.MkdirAll(f.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// write to a temporary file first so a crash never leaves half a file
	tmpFile := f.stateFile + ".tmp"
	if err := os.WriteFile(tmpFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	if err := os.Rename(tmpFile, f.stateFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to save state file: %w", err)
	}

	return nil
}

// Exists returns true if a saved state file exists.
func (f *FileStateStore) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, err := os.Stat(f.stateFile)
	return err == nil
}

// Clear removes the saved state file.
func (f *FileStateStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.stateFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear state: %w", err)
	}

	return nil
}
