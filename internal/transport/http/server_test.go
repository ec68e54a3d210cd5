package http

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

func get(t *testing.T, in *inspector, path string) (int, []byte) {
	t.Helper()
	resp, err := in.ts.Client().Get(in.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthEndpoint(t *testing.T) {
	in := newInspector(t)

	status, body := get(t, in, "/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
}

func TestStateEndpoint(t *testing.T) {
	in := newInspector(t)
	in.agent.AddCall(callWithStream("a", 3))

	status, body := get(t, in, "/state")
	require.Equal(t, http.StatusOK, status)

	var snap state.State
	require.NoError(t, json.Unmarshal(body, &snap))
	require.Contains(t, snap.Calls, "a")
	assert.True(t, snap.Calls["a"].RemoteParticipants[aliceKey].VideoStreams[3].IsAvailable)
	assert.Equal(t, sdk.CommunicationUser("8:acs:local"), snap.UserID)
}

func TestCallEndpoint(t *testing.T) {
	in := newInspector(t)
	call := callWithStream("a", 3)
	in.agent.AddCall(call)

	status, body := get(t, in, "/state/calls/a")
	require.Equal(t, http.StatusOK, status)
	var got state.Call
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "a", got.ID)
	assert.Nil(t, got.EndTime)

	call.End(sdk.CallEndReason{Code: 0})

	status, body = get(t, in, "/state/calls/a")
	require.Equal(t, http.StatusOK, status, "ended calls are served from history")
	require.NoError(t, json.Unmarshal(body, &got))
	assert.NotNil(t, got.EndTime)

	status, body = get(t, in, "/state/calls/missing")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"call not found"}`, string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	in := newInspector(t)
	in.agent.AddCall(callWithStream("a", 3))
	get(t, in, "/health")

	status, body := get(t, in, "/metrics")

	require.Equal(t, http.StatusOK, status)
	text := string(body)
	assert.Contains(t, text, `test_http_requests_total{endpoint="/health",method="GET",status="200"} 1`)
	assert.Contains(t, text, `test_subscribers_active{kind="participant"} 1`)
	assert.Contains(t, text, `test_state_mutations_total`)
}
