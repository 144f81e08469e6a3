package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"swingtrader/internal/botfail"
)

// persistedState is the on-disk layout of the book. Closed positions
// accumulate so daily summaries survive a restart.
type persistedState struct {
	Open      []Position `json:"open"`
	Closed    []Position `json:"closed"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store persists the position book as a JSON file. Writes go through a
// temp file and rename, so a crash mid-write never corrupts the book.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() (persistedState, error) {
	var state persistedState
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, botfail.NewStateError("store", fmt.Sprintf("read %s", s.path), err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, botfail.NewStateError("store", fmt.Sprintf("parse %s", s.path), err)
	}
	return state, nil
}

func (s *Store) save(state persistedState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return botfail.NewStateError("store", "marshal state", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return botfail.NewStateError("store", fmt.Sprintf("create %s", dir), err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return botfail.NewStateError("store", fmt.Sprintf("write %s", tmp), err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return botfail.NewStateError("store", fmt.Sprintf("rename %s", tmp), err)
	}
	return nil
}
