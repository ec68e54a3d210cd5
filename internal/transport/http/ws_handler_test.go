package http

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/callstate/internal/config"
	"github.com/vovakirdan/callstate/internal/proto"
	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

func TestWebSocketStreamsSnapshots(t *testing.T) {
	in := newInspector(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := in.dial(t, ctx)

	first := readSnapshotUntil(t, ctx, conn, func(state.State) bool { return true })
	assert.Equal(t, uint64(1), first.Seq)
	assert.Empty(t, first.State.Calls)

	in.agent.AddCall(callWithStream("a", 3))

	snap := readSnapshotUntil(t, ctx, conn, func(s state.State) bool {
		_, ok := s.Calls["a"].RemoteParticipants[aliceKey]
		return ok
	})
	assert.Greater(t, snap.Seq, first.Seq)
	assert.Equal(t, sdk.CommunicationUser("8:acs:local"), snap.State.UserID)
}

func TestWebSocketHello(t *testing.T) {
	in := newInspector(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := in.dial(t, ctx)

	sendInbound(t, ctx, conn, proto.InboundTypeHello, `{"client":"test","protocol":1}`)
	welcome := readUntil(t, ctx, conn, proto.OutboundTypeWelcome, nil)
	data, ok := welcome.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["clientId"])
	assert.EqualValues(t, proto.ProtocolVersion, data["protocol"])

	sendInbound(t, ctx, conn, proto.InboundTypeHello, `{"protocol":99}`)
	out := readUntil(t, ctx, conn, proto.OutboundTypeError, nil)
	require.NotNil(t, out.Error)
	assert.Equal(t, proto.ErrCodeUnsupportedVersion, out.Error.Code)
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	in := newInspector(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := in.dial(t, ctx)

	cases := []struct {
		typ  string
		data string
		code string
	}{
		{"dance", `{}`, proto.ErrCodeUnknownType},
		{proto.InboundTypeStartRender, `{"streamId":1}`, proto.ErrCodeBadRequest},
		{proto.InboundTypeStartRender, `{"callId":"a","scalingMode":"zoom"}`, proto.ErrCodeBadRequest},
		{proto.InboundTypeStopRender, `[1,2]`, proto.ErrCodeBadRequest},
	}
	for _, tc := range cases {
		sendInbound(t, ctx, conn, tc.typ, tc.data)
		out := readUntil(t, ctx, conn, proto.OutboundTypeError, nil)
		require.NotNil(t, out.Error)
		assert.Equal(t, tc.code, out.Error.Code, tc.typ)
	}
}

func TestWebSocketRenderCommands(t *testing.T) {
	in := newInspector(t)
	in.agent.AddCall(callWithStream("a", 3))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := in.dial(t, ctx)

	sendInbound(t, ctx, conn, proto.InboundTypeStartRender, `{"callId":"a","streamId":3,"scalingMode":"fit"}`)
	snap := readSnapshotUntil(t, ctx, conn, func(s state.State) bool {
		return s.Calls["a"].RemoteParticipants[aliceKey].VideoStreams[3].View != nil
	})
	view := snap.State.Calls["a"].RemoteParticipants[aliceKey].VideoStreams[3].View
	assert.Equal(t, sdk.ScalingModeFit, view.ScalingMode)
	assert.Equal(t, 1, in.factory.Created())

	sendInbound(t, ctx, conn, proto.InboundTypeStopRender, `{"callId":"a","streamId":3}`)
	readSnapshotUntil(t, ctx, conn, func(s state.State) bool {
		return s.Calls["a"].RemoteParticipants[aliceKey].VideoStreams[3].View == nil
	})
	assert.Equal(t, 1, in.factory.Disposed())
}

func TestWebSocketRenderFailure(t *testing.T) {
	in := newInspector(t)
	in.agent.AddCall(callWithStream("a", 3))
	in.factory.SetViewError(errors.New("no gpu"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := in.dial(t, ctx)

	sendInbound(t, ctx, conn, proto.InboundTypeStartRender, `{"callId":"a","streamId":3}`)

	out := readUntil(t, ctx, conn, proto.OutboundTypeError, nil)
	require.NotNil(t, out.Error)
	assert.Equal(t, proto.ErrCodeRenderFailed, out.Error.Code)
	assert.Contains(t, out.Error.Msg, "no gpu")
}

func TestInboundToCommandTargetsLocalStream(t *testing.T) {
	cmd, protoErr := inboundToCommand(proto.Inbound{
		Type: proto.InboundTypeStartRender,
		Data: []byte(`{"callId":"a","isMirrored":true,"scalingMode":"CROP"}`),
	})
	require.Nil(t, protoErr)

	assert.Equal(t, commandStartRender, cmd.kind)
	assert.Equal(t, state.LocalVideoStream{}, cmd.stream)
	assert.Equal(t, sdk.CreateViewOptions{IsMirrored: true, ScalingMode: sdk.ScalingModeCrop}, cmd.opts)

	cmd, protoErr = inboundToCommand(proto.Inbound{Type: proto.InboundTypeHello})
	require.Nil(t, protoErr)
	assert.Equal(t, commandHello, cmd.kind)
}

func TestWebSocketRateLimit(t *testing.T) {
	in := newInspector(t, func(cfg *config.Config) { cfg.WSMessageLimit = 1 })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := in.dial(t, ctx)

	sendInbound(t, ctx, conn, proto.InboundTypeHello, `{"protocol":1}`)
	readUntil(t, ctx, conn, proto.OutboundTypeWelcome, nil)

	sendInbound(t, ctx, conn, proto.InboundTypeHello, `{"protocol":1}`)
	out := readUntil(t, ctx, conn, proto.OutboundTypeError, nil)
	require.NotNil(t, out.Error)
	assert.Equal(t, proto.ErrCodeRateLimited, out.Error.Code)
}
