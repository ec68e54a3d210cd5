package sdkfake

import (
	"context"
	"slices"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// IncomingCall is a fake sdk.IncomingCall.
type IncomingCall struct {
	mu         sync.RWMutex
	id         string
	callerInfo sdk.CallerInfo
	endReason  *sdk.CallEndReason
	agent      *CallAgent

	callEnded emitter[sdk.CallEndReason]
}

// NewIncomingCall creates a ringing incoming call.
func NewIncomingCall(id string, caller sdk.CallerInfo) *IncomingCall {
	return &IncomingCall{id: id, callerInfo: caller}
}

func (c *IncomingCall) ID() string { return c.id }

func (c *IncomingCall) CallerInfo() sdk.CallerInfo { return c.callerInfo }

func (c *IncomingCall) CallEndReason() *sdk.CallEndReason {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endReason
}

// Accept ends the incoming call and adds a connected call with the same id to
// the agent that received it.
func (c *IncomingCall) Accept(_ context.Context, opts sdk.StartCallOptions) (sdk.Call, error) {
	c.mu.RLock()
	agent := c.agent
	ended := c.endReason != nil
	c.mu.RUnlock()
	if ended {
		return nil, ErrCallEnded
	}

	call := NewCall(c.id, sdk.CallDirectionIncoming)
	call.callerInfo = c.callerInfo
	call.state = sdk.CallStateConnected
	call.muted = opts.Muted
	call.local = slices.Clone(opts.LocalVideoStreams)

	c.End(sdk.CallEndReason{Code: 0})
	if agent != nil {
		agent.AddCall(call)
	}
	return call, nil
}

// Reject ends the incoming call.
func (c *IncomingCall) Reject(_ context.Context) error {
	c.End(sdk.CallEndReason{Code: 0, Subcode: 5300})
	return nil
}

func (c *IncomingCall) OnCallEnded(fn func(sdk.CallEndReason)) sdk.Off {
	return c.callEnded.on(fn)
}

// End fires callEnded once; later calls are ignored.
func (c *IncomingCall) End(reason sdk.CallEndReason) {
	c.mu.Lock()
	if c.endReason != nil {
		c.mu.Unlock()
		return
	}
	c.endReason = &reason
	c.mu.Unlock()
	c.callEnded.emit(reason)
}

// HandlerCount returns the number of registered callEnded handlers.
func (c *IncomingCall) HandlerCount() int {
	return c.callEnded.count()
}

var _ sdk.IncomingCall = (*IncomingCall)(nil)
