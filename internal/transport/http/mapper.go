package http

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vovakirdan/callstate/internal/proto"
	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

type commandKind int

const (
	commandHello commandKind = iota
	commandStartRender
	commandStopRender
)

type command struct {
	kind   commandKind
	callID string
	stream state.VideoStream
	opts   sdk.CreateViewOptions
}

func inboundToCommand(inbound proto.Inbound) (*command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeHello:
		var hello proto.HelloData
		if err := decodeData(inbound.Data, &hello); err != nil {
			return nil, badRequest("invalid hello payload")
		}
		if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
			return nil, &proto.Error{Code: proto.ErrCodeUnsupportedVersion, Msg: "unsupported protocol version"}
		}
		return &command{kind: commandHello}, nil
	case proto.InboundTypeStartRender, proto.InboundTypeStopRender:
		var render proto.RenderData
		if err := decodeData(inbound.Data, &render); err != nil {
			return nil, badRequest("invalid render payload")
		}
		if render.CallID == "" {
			return nil, badRequest("callId is required")
		}
		mode, ok := parseScalingMode(render.ScalingMode)
		if !ok {
			return nil, badRequest("unknown scaling mode")
		}

		cmd := &command{
			kind:   commandStartRender,
			callID: render.CallID,
			stream: state.LocalVideoStream{},
			opts:   sdk.CreateViewOptions{IsMirrored: render.IsMirrored, ScalingMode: mode},
		}
		if inbound.Type == proto.InboundTypeStopRender {
			cmd.kind = commandStopRender
		}
		if render.StreamID != nil {
			cmd.stream = state.RemoteVideoStream{ID: *render.StreamID}
		}
		return cmd, nil
	default:
		return nil, &proto.Error{Code: proto.ErrCodeUnknownType, Msg: "unknown message type"}
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: proto.ErrCodeBadRequest, Msg: msg}
}

// parseScalingMode accepts the SDK names case-insensitively; empty leaves the
// renderer default.
func parseScalingMode(s string) (sdk.ScalingMode, bool) {
	if s == "" {
		return "", true
	}
	for _, mode := range []sdk.ScalingMode{sdk.ScalingModeStretch, sdk.ScalingModeCrop, sdk.ScalingModeFit} {
		if strings.EqualFold(s, string(mode)) {
			return mode, true
		}
	}
	return "", false
}

func outboundSnapshot(seq uint64, snap state.State) proto.Outbound {
	return proto.Outbound{
		Type: proto.OutboundTypeSnapshot,
		Data: proto.Snapshot{
			Seq:   seq,
			TS:    time.Now().UnixMilli(),
			State: snap,
		},
	}
}

func outboundError(protoErr *proto.Error) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr}
}
