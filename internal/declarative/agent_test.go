package declarative

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/sdk/sdkfake"
	"github.com/vovakirdan/callstate/internal/state"
)

func TestCallsUpdatedAddsCall(t *testing.T) {
	h := newHarness(t)
	require.Empty(t, h.client.State().Calls)

	h.agent.AddCall(sdkfake.NewCall("b", sdk.CallDirectionOutgoing))

	assert.Len(t, h.client.State().Calls, 1)
	assert.Equal(t, "b", h.call(t, "b").ID)
}

func TestRemovedCallMovesToHistory(t *testing.T) {
	h := newHarness(t)
	call := sdkfake.NewCall("b", sdk.CallDirectionOutgoing)
	h.agent.AddCall(call)

	call.End(sdk.CallEndReason{Code: 1})

	snap := h.client.State()
	assert.Empty(t, snap.Calls)
	require.Len(t, snap.CallsEnded, 1)
	require.NotNil(t, snap.CallsEnded[0].CallEndReason)
	assert.Equal(t, 1, snap.CallsEnded[0].CallEndReason.Code)
	assert.NotNil(t, snap.CallsEnded[0].EndTime)
	assert.Equal(t, sdk.CallStateDisconnected, snap.CallsEnded[0].State)
	assert.Zero(t, call.HandlerCount(), "ended call keeps no listeners")
}

func TestEndedCallHistoryIsCapped(t *testing.T) {
	h := newHarness(t)
	total := state.MaxCallHistoryLength + 10
	calls := make([]*sdkfake.Call, 0, total)
	for i := range total {
		c := sdkfake.NewCall(fmt.Sprintf("call-%d", i), sdk.CallDirectionOutgoing)
		h.agent.AddCall(c)
		calls = append(calls, c)
	}
	require.Len(t, h.client.State().Calls, total)

	for _, c := range calls {
		c.End(sdk.CallEndReason{Code: 0})
	}

	snap := h.client.State()
	assert.Empty(t, snap.Calls)
	assert.Len(t, snap.CallsEnded, state.MaxCallHistoryLength)
}

func TestStartCallSubscribesOnce(t *testing.T) {
	h := newHarness(t)

	// The fake fires callsUpdated before StartCall returns, so the call is
	// seen through both paths.
	call, err := h.wrapped.StartCall(context.Background(), []sdk.Identifier{sdk.CommunicationUser("bob")}, sdk.StartCallOptions{})
	require.NoError(t, err)
	raw := call.(*Call).Unwrap().(*sdkfake.Call)

	// One more delivery of the same object.
	h.agent.EmitCallsUpdated([]sdk.Call{raw}, nil)

	assert.Equal(t, 1, h.observer.live(KindCall))
	assert.Equal(t, 1, h.observer.live(KindParticipant))
	assert.Equal(t, 6, raw.HandlerCount(), "one listener per call event")
	for _, p := range raw.RemoteParticipants() {
		assert.Equal(t, 5, p.(*sdkfake.RemoteParticipant).HandlerCount())
	}

	notified := 0
	off := h.client.OnStateChange(func(state.State) { notified++ })
	defer off()
	raw.SetState(sdk.CallStateConnected)
	assert.Equal(t, 1, notified, "one event yields one snapshot")
	assert.Equal(t, sdk.CallStateConnected, h.call(t, raw.ID()).State)
}

func TestStartCallErrorPropagates(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.agent.Dispose(context.Background()))

	_, err := h.wrapped.StartCall(context.Background(), nil, sdk.StartCallOptions{})
	assert.ErrorIs(t, err, sdkfake.ErrAgentDisposed)
	assert.Empty(t, h.client.State().Calls)
}

func TestJoinTracksCall(t *testing.T) {
	h := newHarness(t)
	call, err := h.wrapped.Join(context.Background(), sdk.JoinLocator{GroupID: "standup"}, sdk.StartCallOptions{Muted: true})
	require.NoError(t, err)

	got := h.call(t, call.ID())
	assert.True(t, got.IsMuted)
	assert.Equal(t, sdk.CallDirectionOutgoing, got.Direction)
}

func TestExistingCallsAttachedOnWrap(t *testing.T) {
	existing, _ := newCallWithParticipant("pre", "alice", sdkfake.NewRemoteVideoStream(1, sdk.MediaStreamTypeVideo, true))
	h := newHarness(t, existing)

	got := h.call(t, "pre")
	require.Contains(t, got.RemoteParticipants, "communicationUser_alice")
	assert.Contains(t, got.RemoteParticipants["communicationUser_alice"].VideoStreams, 1)
	assert.Equal(t, 6, existing.HandlerCount())
}

func TestNewAgentClearsStaleState(t *testing.T) {
	h := newHarness(t)
	ended := sdkfake.NewCall("old", sdk.CallDirectionOutgoing)
	h.agent.AddCall(ended)
	ended.End(sdk.CallEndReason{})
	h.agent.AddCall(sdkfake.NewCall("active", sdk.CallDirectionOutgoing))
	require.Len(t, h.client.State().CallsEnded, 1)

	_, err := h.client.CreateCallAgent(context.Background(), testToken(t, "me"), sdk.CallAgentOptions{})
	require.NoError(t, err)

	snap := h.client.State()
	assert.Empty(t, snap.Calls)
	assert.Empty(t, snap.CallsEnded)
	assert.Zero(t, h.agent.HandlerCount(), "previous agent is detached")
}

func TestDisposeKeepsStateAndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	call, p := newCallWithParticipant("a", "alice")
	h.agent.AddCall(call)

	require.NoError(t, h.wrapped.Dispose(context.Background()))
	require.NoError(t, h.wrapped.Dispose(context.Background()))

	assert.True(t, h.agent.IsDisposed())
	assert.Zero(t, h.agent.HandlerCount())
	assert.Zero(t, call.HandlerCount())
	assert.Zero(t, p.HandlerCount())
	assert.Equal(t, 0, h.observer.live(KindCall))
	assert.Equal(t, 0, h.observer.live(KindParticipant))
	assert.Contains(t, h.client.State().Calls, "a", "published state survives dispose")

	call.SetState(sdk.CallStateConnected)
	assert.NotEqual(t, sdk.CallStateConnected, h.call(t, "a").State)
}

func TestDisposeReleasesRenderers(t *testing.T) {
	stream := sdkfake.NewRemoteVideoStream(3, sdk.MediaStreamTypeVideo, true)
	call, _ := newCallWithParticipant("a", "alice", stream)
	h := newHarness(t, call)
	ctx := context.Background()
	target := state.RemoteVideoStream{ID: 3}
	require.NoError(t, h.client.StartRenderVideo(ctx, "a", target, sdk.CreateViewOptions{}))

	require.NoError(t, h.wrapped.Dispose(ctx))

	assert.Equal(t, 1, h.factory.Disposed())
	got := h.call(t, "a")
	require.Contains(t, got.RemoteParticipants, aliceKey, "participants stay published")
	assert.Nil(t, got.RemoteParticipants[aliceKey].VideoStreams[3].View)

	require.NoError(t, h.client.StartRenderVideo(ctx, "a", target, sdk.CreateViewOptions{}))
	assert.Equal(t, 1, h.factory.Created(), "a disposed agent renders nothing")
}

func TestDisposeErrorStillUnsubscribes(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("dispose failed")
	h.agent.SetDisposeError(boom)

	err := h.wrapped.Dispose(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, h.agent.HandlerCount())
}

func TestCallIDChangeRekeysEverything(t *testing.T) {
	stream := sdkfake.NewRemoteVideoStream(7, sdk.MediaStreamTypeVideo, true)
	call, p := newCallWithParticipant("a", "alice", stream)
	h := newHarness(t, call)
	before := h.call(t, "a")

	call.SetID("b")

	snap := h.client.State()
	assert.NotContains(t, snap.Calls, "a")
	after, ok := snap.Calls["b"]
	require.True(t, ok)
	before.ID = "b"
	assert.Equal(t, before, after)

	p.SetDisplayName("Alice B.")
	assert.Equal(t, "Alice B.", h.call(t, "b").RemoteParticipants["communicationUser_alice"].DisplayName)
	assert.NotContains(t, h.client.State().Calls, "a")

	key, ok := h.client.sess.refs.OwningParticipantKey("b", 7)
	require.True(t, ok)
	assert.Equal(t, "communicationUser_alice", key)
	_, ok = h.client.sess.refs.Get("a", 7)
	assert.False(t, ok)

	call.End(sdk.CallEndReason{Code: 2})
	require.Len(t, h.client.State().CallsEnded, 1)
	assert.Equal(t, "b", h.client.State().CallsEnded[0].ID)
}

func TestMuteRecordsLiveValue(t *testing.T) {
	h := newHarness(t)
	c, err := h.wrapped.StartCall(context.Background(), nil, sdk.StartCallOptions{})
	require.NoError(t, err)

	require.NoError(t, c.Mute(context.Background()))
	assert.True(t, h.call(t, c.ID()).IsMuted)

	require.NoError(t, c.Unmute(context.Background()))
	assert.False(t, h.call(t, c.ID()).IsMuted)
}

func TestMuteErrorLeavesStateAlone(t *testing.T) {
	h := newHarness(t)
	c, err := h.wrapped.StartCall(context.Background(), nil, sdk.StartCallOptions{})
	require.NoError(t, err)
	boom := errors.New("network down")
	c.(*Call).Unwrap().(*sdkfake.Call).SetMuteError(boom)

	err = c.Mute(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.False(t, h.call(t, c.ID()).IsMuted)
}

func TestCallsAreWrappedConsistently(t *testing.T) {
	h := newHarness(t)
	started, err := h.wrapped.StartCall(context.Background(), nil, sdk.StartCallOptions{})
	require.NoError(t, err)

	var fromEvent []sdk.Call
	off := h.wrapped.OnCallsUpdated(func(u sdk.CollectionUpdate[sdk.Call]) { fromEvent = append(fromEvent, u.Added...) })
	defer off()
	h.agent.AddCall(sdkfake.NewCall("other", sdk.CallDirectionIncoming))

	calls := h.wrapped.Calls()
	require.Len(t, calls, 2)
	assert.Same(t, started, calls[0])
	require.Len(t, fromEvent, 1)
	_, ok := fromEvent[0].(*Call)
	assert.True(t, ok)
}

func TestIncomingCallRejected(t *testing.T) {
	h := newHarness(t)
	incoming := sdkfake.NewIncomingCall("in-1", sdk.CallerInfo{Identifier: sdk.PhoneNumber("+15550100"), DisplayName: "Carol"})
	h.agent.ReceiveIncomingCall(incoming)

	require.Contains(t, h.client.State().IncomingCalls, "in-1")
	assert.Equal(t, "Carol", h.client.State().IncomingCalls["in-1"].CallerInfo.DisplayName)

	require.NoError(t, incoming.Reject(context.Background()))

	snap := h.client.State()
	assert.Empty(t, snap.IncomingCalls)
	require.Len(t, snap.IncomingCallsEnded, 1)
	assert.True(t, snap.IncomingCallsEnded[0].Ended())
	assert.Equal(t, 5300, snap.IncomingCallsEnded[0].CallEndReason.Subcode)
	assert.Zero(t, incoming.HandlerCount())
	assert.Equal(t, 0, h.observer.live(KindIncomingCall))
}

func TestIncomingCallAccepted(t *testing.T) {
	h := newHarness(t)
	incoming := sdkfake.NewIncomingCall("in-2", sdk.CallerInfo{Identifier: sdk.CommunicationUser("dave")})
	h.agent.ReceiveIncomingCall(incoming)
	h.agent.ReceiveIncomingCall(incoming)
	assert.Equal(t, 1, incoming.HandlerCount())

	call, err := incoming.Accept(context.Background(), sdk.StartCallOptions{})
	require.NoError(t, err)

	snap := h.client.State()
	assert.Empty(t, snap.IncomingCalls)
	assert.Len(t, snap.IncomingCallsEnded, 1)
	got := h.call(t, call.ID())
	assert.Equal(t, sdk.CallDirectionIncoming, got.Direction)
	assert.Equal(t, sdk.CallStateConnected, got.State)
}

func TestIncomingCallHistoryIsCapped(t *testing.T) {
	h := newHarness(t)
	total := state.MaxIncomingCallHistoryLength + 5
	for i := range total {
		ic := sdkfake.NewIncomingCall(fmt.Sprintf("in-%d", i), sdk.CallerInfo{})
		h.agent.ReceiveIncomingCall(ic)
		ic.End(sdk.CallEndReason{Code: 0, Subcode: 10004})
	}
	snap := h.client.State()
	assert.Empty(t, snap.IncomingCalls)
	assert.Len(t, snap.IncomingCallsEnded, state.MaxIncomingCallHistoryLength)
}

func TestUserIDFromCredential(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, sdk.CommunicationUser("me"), h.client.State().UserID)
}

func TestCreateCallAgentRejectsBadCredential(t *testing.T) {
	fake := sdkfake.NewCallClient("")
	client := NewCallClient(fake)

	_, err := client.CreateCallAgent(context.Background(), staticToken("not-a-jwt"), sdk.CallAgentOptions{})

	assert.Error(t, err)
	assert.Zero(t, fake.AgentsCreated())
}

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }
