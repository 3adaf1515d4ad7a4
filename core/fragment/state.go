package fragment

import "sync"

// State tracks the loader's cycle flags. It is owned by one Loader.
type State struct {
	mu      sync.Mutex
	loaded  bool
	loading bool
	err     bool
}

// Snapshot is a read-only copy of State.
type Snapshot struct {
	Loaded  bool
	Loading bool
	Error   bool
}

// NewState returns a state with every flag cleared.
func NewState() *State {
	return &State{}
}

// Snapshot returns the current flags.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Loaded: s.loaded, Loading: s.loading, Error: s.err}
}

// begin marks a cycle as started unless one is in flight or already succeeded.
func (s *State) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading || s.loaded {
		return false
	}
	s.loading = true
	s.err = false
	return true
}

// beginRetry starts a cycle only after a failed one with nothing in flight.
func (s *State) beginRetry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.err || s.loading {
		return false
	}
	s.loading = true
	s.err = false
	return true
}

func (s *State) succeed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.loading = false
	s.err = false
}

func (s *State) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.loading = false
	s.err = true
}
