// Package state persists the agent's session wholesale across restarts: the
// auth token, the driver profile and the order collections. The location
// queue lives in its own slot (internal/locqueue), not here.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/opencourier/driverd/internal/lifecycle"
	"github.com/opencourier/driverd/internal/models"
)

type State struct {
	Token  string             `json:"token,omitempty"`
	Driver *models.Driver     `json:"driver,omitempty"`
	Orders lifecycle.Snapshot `json:"orders"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, "state.json")}
}

// Load reads the persisted session. A missing file is a fresh session, not an
// error; read failures are surfaced so the caller can log and continue with
// in-memory state.
func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

func (s *Store) Save(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(st)
}

func (s *Store) writeLocked(st State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Update applies fn to the persisted state under the store lock.
func (s *Store) Update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st State
	if raw, err := os.ReadFile(s.path); err == nil {
		_ = json.Unmarshal(raw, &st)
	}
	fn(&st)
	return s.writeLocked(st)
}

func (s *Store) SetAuth(token string, driver *models.Driver) error {
	return s.Update(func(st *State) {
		st.Token = token
		st.Driver = driver
	})
}

func (s *Store) SetOrders(snapshot lifecycle.Snapshot) error {
	return s.Update(func(st *State) {
		st.Orders = snapshot
	})
}

// Clear wipes the session on logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
