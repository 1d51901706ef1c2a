// Package store persists the controller's desired setpoint and cooldown marker, so
// that both survive a restart.
package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const version = 1

// State is the persisted blob. RealSetpoint is nil until a setpoint inside the valid
// range has been observed.
type State struct {
	Version        int        `json:"version"`
	RealSetpoint   *float64   `json:"real_setpoint"`
	LastAdjustment *time.Time `json:"last_adjustment,omitempty"`
}

type Store struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the persisted state. A missing file is not an error: it returns an
// empty State, as on first run.
func (s *Store) Load() (State, error) {
	var state State
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		return state, err
	}
	if err = json.Unmarshal(content, &state); err != nil {
		return State{}, err
	}
	s.logger.Debug("state loaded", slog.Any("state", state))
	return state, nil
}

// Save writes the state, replacing the previous file atomically.
func (s *Store) Save(state State) error {
	state.Version = version
	content, err := json.Marshal(state)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err = os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err = os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s State) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 2)
	if s.RealSetpoint != nil {
		attrs = append(attrs, slog.Float64("real_setpoint", *s.RealSetpoint))
	}
	if s.LastAdjustment != nil {
		attrs = append(attrs, slog.Time("last_adjustment", *s.LastAdjustment))
	}
	return slog.GroupValue(attrs...)
}
