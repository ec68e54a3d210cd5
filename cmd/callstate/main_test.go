package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/callstate/internal/state"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--log-level", "off"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestSimulateJSON(t *testing.T) {
	out, err := run(t, "simulate", "--format", "json", "--steps", "3", "--calls", "1", "--participants", "2")
	require.NoError(t, err)

	var st state.State
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	require.Len(t, st.Calls, 1)
	for _, call := range st.Calls {
		assert.Len(t, call.RemoteParticipants, 2)
	}
	assert.Len(t, st.IncomingCalls, 1)
	assert.Len(t, st.DeviceManager.Cameras, 2)
}

func TestSimulateYAMLWithHangup(t *testing.T) {
	out, err := run(t, "simulate", "--steps", "0", "--calls", "2", "--hangup")
	require.NoError(t, err)

	var st state.State
	require.NoError(t, yaml.Unmarshal([]byte(out), &st))
	assert.Empty(t, st.Calls)
	assert.Len(t, st.CallsEnded, 2)
}

func TestSimulateRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "simulate", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestTokenMintAndInspect(t *testing.T) {
	out, err := run(t, "token", "--identity", "8:acs:carol", "--name", "Carol")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	out, err = run(t, "token", "inspect", "--verify", token)
	require.NoError(t, err)

	var info tokenInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &info))
	assert.Equal(t, "8:acs:carol", info.Identity)
	assert.Equal(t, "Carol", info.Name)
	assert.True(t, info.Verified)
	assert.False(t, info.Expired)

	_, err = run(t, "token", "inspect", "garbage")
	assert.Error(t, err)
}
