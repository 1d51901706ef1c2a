package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitmon", "state.json")
	s := New(path, slog.Default())

	// first run: no file yet
	state, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, state.RealSetpoint)
	assert.Nil(t, state.LastAdjustment)

	setpoint := 70.0
	adjusted := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(State{RealSetpoint: &setpoint, LastAdjustment: &adjusted}))

	state, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, state.Version)
	require.NotNil(t, state.RealSetpoint)
	assert.Equal(t, 70.0, *state.RealSetpoint)
	require.NotNil(t, state.LastAdjustment)
	assert.True(t, adjusted.Equal(*state.LastAdjustment))
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	s := New(path, slog.Default())
	_, err := s.Load()
	assert.Error(t, err)
}
