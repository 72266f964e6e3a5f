package state

//go:generate mockery --name StateStore --output ./mocks --outpkg mocks --filename mock_state_store.go

// StateStore persists what the host knows about installed plugins across
// runs, whether they are enabled and which descriptor was last seen.
type StateStore interface {
	// Load retrieves the previously saved state.
	// Returns nil if no state exists (first run).
	// Returns an error if the state exists but cannot be loaded.
	Load() (*State, error)

	// Save persists the state.
	// The implementation should ensure atomic writes to prevent corruption.
	Save(s *State) error

	// Exists returns true if a saved state exists.
	Exists() bool

	// Clear removes the saved state.
	Clear() error
}

// State is the persisted plugin state keyed by plugin ID
type State struct {
	Plugins map[string]PluginState `json:"plugins"`
}

// PluginState is the record kept for a single plugin
type PluginState struct {
	Enabled  bool   `json:"enabled"`
	Version  string `json:"version"`
	Checksum string `json:"checksum"`
}

// New returns an empty state
func New() *State {
	return &State{Plugins: map[string]PluginState{}}
}

// Get returns the record for id and whether one exists
func (s *State) Get(id string) (PluginState, bool) {
	if s == nil || s.Plugins == nil {
		return PluginState{}, false
	}

	ps, ok := s.Plugins[id]
	return ps, ok
}

// Set stores the record for id
func (s *State) Set(id string, ps PluginState) {
	if s.Plugins == nil {
		s.Plugins = map[string]PluginState{}
	}

	s.Plugins[id] = ps
}
