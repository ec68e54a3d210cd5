package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/declarative"
	"github.com/vovakirdan/callstate/internal/sdk"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	cfg.Simulation = config.Simulation{Calls: 2, ParticipantsPerCall: 2, Tick: 5 * time.Millisecond}
	return cfg
}

func newTestApp(t *testing.T) (*App, *Scenario) {
	t.Helper()
	logger := zerolog.Nop()
	a := New(testConfig(), &logger)
	t.Cleanup(a.Close)

	scenario, err := a.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, scenario.Setup(context.Background()))
	return a, scenario
}

func TestScenarioSetup(t *testing.T) {
	a, scenario := newTestApp(t)
	st := a.Client().State()

	assert.Equal(t, sdk.CommunicationUser(testConfig().Credential.Identity), st.UserID)
	require.Len(t, st.Calls, 2)
	for n, sc := range scenario.calls {
		call := st.Calls[sc.call.ID()]
		assert.Equal(t, sdk.CallStateConnected, call.State)
		require.Len(t, call.RemoteParticipants, 2)

		first := call.RemoteParticipants[declarative.ParticipantKey(sc.participants[0].Identifier())]
		assert.Equal(t, sdk.ParticipantStateConnected, first.State)
		assert.Contains(t, first.DisplayName, "Guest")
		assert.NotNil(t, first.VideoStreams[n*100+1].View, "the first remote stream is rendered")

		require.Len(t, call.LocalVideoStreams, 1)
		require.NotNil(t, call.LocalVideoStreams[0].View)
		assert.True(t, call.LocalVideoStreams[0].View.IsMirrored)
	}

	dm := st.DeviceManager
	assert.Len(t, dm.Cameras, 2)
	assert.Len(t, dm.Microphones, 2)
	assert.Len(t, dm.Speakers, 1)
	require.NotNil(t, dm.SelectedMicrophone)
	assert.Equal(t, builtinMic.ID, dm.SelectedMicrophone.ID)
	require.NotNil(t, dm.SelectedSpeaker)
	assert.Equal(t, &sdk.DeviceAccess{Audio: true, Video: true}, dm.DeviceAccess)
}

func TestScenarioSteps(t *testing.T) {
	a, scenario := newTestApp(t)
	ctx := context.Background()
	first, second := scenario.calls[0], scenario.calls[1]

	for range 6 {
		require.NoError(t, scenario.Step(ctx))
	}
	st := a.Client().State()

	speaker := second.participants[1]
	key := declarative.ParticipantKey(speaker.Identifier())
	assert.True(t, st.Calls[second.call.ID()].RemoteParticipants[key].IsSpeaking, "step 1 toggles speaking")
	assert.Len(t, st.IncomingCalls, 1, "step 3 rings an incoming call")
	assert.True(t, st.Calls[first.call.ID()].IsScreenSharingOn, "step 4 starts screen sharing")
	assert.True(t, st.Calls[second.call.ID()].IsMuted, "step 5 mutes through the wrapper")
	assert.Equal(t, sdk.CallStateLocalHold, st.Calls[first.call.ID()].State, "step 6 holds")

	for range 4 {
		require.NoError(t, scenario.Step(ctx))
	}
	st = a.Client().State()
	assert.Empty(t, st.IncomingCalls, "step 10 rejects it")
	require.Len(t, st.IncomingCallsEnded, 1)
	assert.NotNil(t, st.IncomingCallsEnded[0].CallEndReason)
}

func TestScenarioFinish(t *testing.T) {
	a, scenario := newTestApp(t)
	ctx := context.Background()
	for range 3 {
		require.NoError(t, scenario.Step(ctx))
	}

	require.NoError(t, scenario.Finish(ctx))
	require.NoError(t, scenario.Finish(ctx), "finishing twice is harmless")

	st := a.Client().State()
	assert.Empty(t, st.Calls)
	assert.Len(t, st.CallsEnded, 2)
	assert.Empty(t, st.IncomingCalls)
	assert.Len(t, st.IncomingCallsEnded, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	logger := zerolog.Nop()
	a := New(testConfig(), &logger)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, a.Run(ctx))

	st := a.Client().State()
	assert.Empty(t, st.Calls, "calls are hung up on shutdown")
	assert.Len(t, st.CallsEnded, 2)
}

func TestConnectRejectsTokenSignedWithAnotherSecret(t *testing.T) {
	logger := zerolog.Nop()
	cfg := testConfig()
	a := New(cfg, &logger)
	a.cfg.Credential.APISecret = "some-other-secret-some-other-000"

	_, err := a.Connect(context.Background())
	assert.Error(t, err)
}
