package proto

import (
	"encoding/json"

	"github.com/vovakirdan/callstate/internal/state"
)

// Inbound is the envelope for messages coming from an inspector client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello       = "hello"
	InboundTypeStartRender = "start_render"
	InboundTypeStopRender  = "stop_render"

	OutboundTypeWelcome  = "welcome"
	OutboundTypeSnapshot = "snapshot"
	OutboundTypeError    = "error"
)

// Error codes sent in Error.Code.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnknownType        = "invalid_message"
	ErrCodeUnsupportedVersion = "unsupported_version"
	ErrCodeRenderFailed       = "render_failed"
	ErrCodeRateLimited        = "rate_limited"
)

// HelloData is sent by the client to announce its protocol version.
type HelloData struct {
	Client   string `json:"client,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// RenderData asks the server to start or stop rendering a stream. A nil
// StreamID targets the call's local video stream.
type RenderData struct {
	CallID      string `json:"callId"`
	StreamID    *int   `json:"streamId,omitempty"`
	ScalingMode string `json:"scalingMode,omitempty"`
	IsMirrored  bool   `json:"isMirrored,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Welcome answers a hello.
type Welcome struct {
	ClientID string `json:"clientId"`
	Protocol int    `json:"protocol"`
}

// Snapshot carries one published state. Seq increases by one per message on
// a connection; intermediate states may be coalesced.
type Snapshot struct {
	Seq   uint64      `json:"seq"`
	TS    int64       `json:"ts"`
	State state.State `json:"state"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// DecodeSnapshot re-reads the Data of a snapshot envelope decoded into a
// generic Outbound.
func DecodeSnapshot(out Outbound) (Snapshot, error) {
	var snap Snapshot
	raw, err := json.Marshal(out.Data)
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(raw, &snap)
	return snap, err
}
