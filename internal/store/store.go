package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// Turn is one role-tagged message in the dialogue. Roles are "system",
// "user" or "assistant". Turns are append-only; ordering is significant.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// State is the unit of persistence: the full transcript plus the mode flag,
// written as a single JSON document. The interview_mode field is optional on
// read so documents written before mode tracking still load (absent means
// idle).
type State struct {
	Messages      []Turn `json:"messages"`
	InterviewMode bool   `json:"interview_mode"`
}

// Store owns the on-disk transcript document. It is not safe for concurrent
// writers; the session serializes access.
type Store struct {
	Path string
}

// New constructs a Store backed by the given file path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Load reads the backing document. It never fails the caller: a missing,
// empty or unparsable document yields the default state (no messages, idle
// mode) and the corrupt document is discarded on the next save.
func (s *Store) Load() State {
	data, err := os.ReadFile(s.Path)
	if err != nil || len(data) == 0 {
		return State{}
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		log.Printf("store: corrupted %s, resetting: %v", s.Path, err)
		return State{}
	}
	if st.Messages == nil {
		st.Messages = []Turn{}
	}
	return st
}

// Save serializes and overwrites the backing document in full.
func (s *Store) Save(st State) error {
	if st.Messages == nil {
		st.Messages = []Turn{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.Path, err)
	}
	return nil
}

// Reset persists and returns the empty idle state. Calling it twice yields
// the same result as calling it once.
func (s *Store) Reset() (State, error) {
	st := State{Messages: []Turn{}}
	if err := s.Save(st); err != nil {
		return st, err
	}
	return st, nil
}
