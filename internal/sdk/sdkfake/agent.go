package sdkfake

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// ErrAgentDisposed is returned by operations on a disposed agent.
var ErrAgentDisposed = errors.New("call agent disposed")

// CallAgent is a fake sdk.CallAgent.
type CallAgent struct {
	mu          sync.RWMutex
	displayName string
	calls       []sdk.Call
	disposed    bool
	disposeErr  error

	callsUpdated emitter[sdk.CollectionUpdate[sdk.Call]]
	incomingCall emitter[sdk.IncomingCall]
}

// NewCallAgent creates an agent that already holds the given calls.
func NewCallAgent(displayName string, existing ...*Call) *CallAgent {
	a := &CallAgent{displayName: displayName}
	for _, c := range existing {
		c.attach(a)
		a.calls = append(a.calls, c)
	}
	return a
}

func (a *CallAgent) Calls() []sdk.Call {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.calls)
}

func (a *CallAgent) DisplayName() string { return a.displayName }

// StartCall creates an outgoing call. callsUpdated fires before StartCall
// returns, so callers observe the call through both paths.
func (a *CallAgent) StartCall(_ context.Context, participants []sdk.Identifier, opts sdk.StartCallOptions) (sdk.Call, error) {
	if a.IsDisposed() {
		return nil, ErrAgentDisposed
	}

	call := NewCall(uuid.NewString(), sdk.CallDirectionOutgoing)
	call.muted = opts.Muted
	call.local = slices.Clone(opts.LocalVideoStreams)
	for _, id := range participants {
		p := NewRemoteParticipant(id, "")
		p.state = sdk.ParticipantStateConnecting
		call.remote = append(call.remote, p)
	}
	a.AddCall(call)
	return call, nil
}

// Join creates an outgoing call for a group or meeting.
func (a *CallAgent) Join(ctx context.Context, _ sdk.JoinLocator, opts sdk.StartCallOptions) (sdk.Call, error) {
	return a.StartCall(ctx, nil, opts)
}

// Dispose marks the agent disposed. Repeated calls return the same result.
func (a *CallAgent) Dispose(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disposed = true
	return a.disposeErr
}

// SetDisposeError makes Dispose return err.
func (a *CallAgent) SetDisposeError(err error) {
	a.mu.Lock()
	a.disposeErr = err
	a.mu.Unlock()
}

// IsDisposed reports whether Dispose has been called.
func (a *CallAgent) IsDisposed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.disposed
}

func (a *CallAgent) OnCallsUpdated(fn func(sdk.CollectionUpdate[sdk.Call])) sdk.Off {
	return a.callsUpdated.on(fn)
}

func (a *CallAgent) OnIncomingCall(fn func(sdk.IncomingCall)) sdk.Off {
	return a.incomingCall.on(fn)
}

// AddCall adds the call and fires callsUpdated.
func (a *CallAgent) AddCall(call *Call) {
	call.attach(a)
	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()
	a.callsUpdated.emit(sdk.CollectionUpdate[sdk.Call]{Added: []sdk.Call{call}})
}

// RemoveCall removes the call and fires callsUpdated. Unknown calls are ignored.
func (a *CallAgent) RemoveCall(call *Call) {
	a.mu.Lock()
	idx := slices.IndexFunc(a.calls, func(c sdk.Call) bool { return c == sdk.Call(call) })
	if idx < 0 {
		a.mu.Unlock()
		return
	}
	a.calls = slices.Delete(a.calls, idx, idx+1)
	a.mu.Unlock()
	a.callsUpdated.emit(sdk.CollectionUpdate[sdk.Call]{Removed: []sdk.Call{call}})
}

// EmitCallsUpdated fires callsUpdated without touching the call list.
func (a *CallAgent) EmitCallsUpdated(added, removed []sdk.Call) {
	a.callsUpdated.emit(sdk.CollectionUpdate[sdk.Call]{Added: added, Removed: removed})
}

// ReceiveIncomingCall fires incomingCall.
func (a *CallAgent) ReceiveIncomingCall(call *IncomingCall) {
	call.mu.Lock()
	call.agent = a
	call.mu.Unlock()
	a.incomingCall.emit(call)
}

// HandlerCount returns the number of registered handlers across all events.
func (a *CallAgent) HandlerCount() int {
	return a.callsUpdated.count() + a.incomingCall.count()
}

var _ sdk.CallAgent = (*CallAgent)(nil)
