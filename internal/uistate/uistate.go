package uistate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// State is the persisted panel layout. It is orthogonal to the request
// pipeline: losing it only loses layout, never conversation state.
type State struct {
	WindowX        int     `json:"window_x"`
	WindowY        int     `json:"window_y"`
	WindowWidth    int     `json:"window_width"`
	WindowHeight   int     `json:"window_height"`
	SplitRatio     float64 `json:"split_ratio"`
	SidebarVisible bool    `json:"sidebar_visible"`
	LastPage       int     `json:"last_page"`
}

// Default is the layout used when no state file exists yet.
func Default() State {
	return State{
		WindowWidth:    1280,
		WindowHeight:   860,
		SplitRatio:     0.55,
		SidebarVisible: true,
		LastPage:       1,
	}
}

// Store reads the state file once at startup and writes it back on save.
type Store struct {
	path string

	mu    sync.Mutex
	state State
}

// Open loads the state file, falling back to defaults when it is missing
// or unreadable. A broken state file is never fatal.
func Open(path string) *Store {
	s := &Store{path: path, state: Default()}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("ui state unreadable, using defaults")
		}
		return s
	}
	var loaded State
	if err := json.Unmarshal(raw, &loaded); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ui state corrupt, using defaults")
		return s
	}
	s.state = sanitize(loaded)
	return s
}

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Put replaces the current state in memory; Save persists it.
func (s *Store) Put(state State) {
	s.mu.Lock()
	s.state = sanitize(state)
	s.mu.Unlock()
}

// Save writes the state file, creating parent directories as needed.
func (s *Store) Save() error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ui state dir: %w", err)
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ui state: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write ui state: %w", err)
	}
	log.Debug().Str("path", s.path).Msg("ui state saved")
	return nil
}

// sanitize clamps values a hand-edited file could have broken.
func sanitize(st State) State {
	if st.SplitRatio <= 0 || st.SplitRatio >= 1 {
		st.SplitRatio = Default().SplitRatio
	}
	if st.WindowWidth <= 0 || st.WindowHeight <= 0 {
		d := Default()
		st.WindowWidth, st.WindowHeight = d.WindowWidth, d.WindowHeight
	}
	if st.LastPage < 1 {
		st.LastPage = 1
	}
	return st
}
