package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	logger := zerolog.Nop()

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)

	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)
	_, err = os.Stat(path)
	assert.NoError(t, err, "a default file is written on first load")

	again, _, err := Load(&logger, path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
max_call_history: 3
credential:
  identity: "8:acs:bob"
simulation:
  calls: 5
  tick: 250ms
`), 0o600))
	t.Setenv("CALLSTATE_ADDR", ":7070")
	t.Setenv("CALLSTATE_SIMULATION_PARTICIPANTS_PER_CALL", "7")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr, "env wins over the file")
	assert.Equal(t, 3, cfg.MaxCallHistory)
	assert.Equal(t, "8:acs:bob", cfg.Credential.Identity)
	assert.Equal(t, Default().Credential.APIKey, cfg.Credential.APIKey)
	assert.Equal(t, 5, cfg.Simulation.Calls)
	assert.Equal(t, 7, cfg.Simulation.ParticipantsPerCall)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulation.Tick)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unterminated"), 0o600))

	_, _, err := Load(nil, path)
	assert.Error(t, err)
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{
		Addr:       ":1234",
		Simulation: Simulation{Calls: 9},
	})

	assert.Equal(t, ":1234", cfg.Addr)
	assert.Equal(t, 9, cfg.Simulation.Calls)
	assert.Equal(t, Default().Simulation.Tick, cfg.Simulation.Tick)
	assert.Equal(t, Default().LogLevel, cfg.LogLevel)
}
