package declarative

import (
	"context"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// CallAgent wraps a live call agent. It keeps the store in sync with the
// agent's calls and incoming calls; StartCall, Join and Dispose are
// intercepted and everything else goes straight to the SDK agent.
type CallAgent struct {
	sdk.CallAgent
	sess *session

	mu       sync.Mutex
	calls    map[string]*callSubscriber
	incoming map[string]*incomingCallSubscriber
	wrapped  map[sdk.Call]*Call
	offs     []sdk.Off
	detached bool
	once     sync.Once
}

// newCallAgent starts a fresh session: state left by a previous agent is
// cleared before the listeners are registered and existing calls attached.
func newCallAgent(agent sdk.CallAgent, sess *session) *CallAgent {
	a := &CallAgent{
		CallAgent: agent,
		sess:      sess,
		calls:     map[string]*callSubscriber{},
		incoming:  map[string]*incomingCallSubscriber{},
		wrapped:   map[sdk.Call]*Call{},
	}

	sess.refs.ClearAll()
	sess.store.ClearCallState()

	a.offs = []sdk.Off{
		agent.OnCallsUpdated(a.callsUpdated),
		agent.OnIncomingCall(a.incomingCall),
	}
	existing := agent.Calls()
	for _, call := range existing {
		a.addCall(call)
	}
	sess.logger.Info().Str("display_name", agent.DisplayName()).Int("calls", len(existing)).Msg("call agent wrapped")
	return a
}

// StartCall places a call and tracks it. The call may also arrive through
// callsUpdated; it is subscribed only once.
func (a *CallAgent) StartCall(ctx context.Context, participants []sdk.Identifier, opts sdk.StartCallOptions) (sdk.Call, error) {
	call, err := a.CallAgent.StartCall(ctx, participants, opts)
	if err != nil {
		return nil, err
	}
	a.addCall(call)
	return a.wrap(call), nil
}

// Join joins a group call or meeting and tracks it.
func (a *CallAgent) Join(ctx context.Context, locator sdk.JoinLocator, opts sdk.StartCallOptions) (sdk.Call, error) {
	call, err := a.CallAgent.Join(ctx, locator, opts)
	if err != nil {
		return nil, err
	}
	a.addCall(call)
	return a.wrap(call), nil
}

// Calls returns the agent's calls wrapped.
func (a *CallAgent) Calls() []sdk.Call {
	calls := a.CallAgent.Calls()
	out := make([]sdk.Call, 0, len(calls))
	for _, c := range calls {
		out = append(out, a.wrap(c))
	}
	return out
}

// OnCallsUpdated registers fn with the SDK agent, handing it wrapped calls.
// The store already reflects the update when fn runs.
func (a *CallAgent) OnCallsUpdated(fn func(sdk.CollectionUpdate[sdk.Call])) sdk.Off {
	return a.CallAgent.OnCallsUpdated(func(update sdk.CollectionUpdate[sdk.Call]) {
		wrapped := sdk.CollectionUpdate[sdk.Call]{
			Added:   make([]sdk.Call, 0, len(update.Added)),
			Removed: make([]sdk.Call, 0, len(update.Removed)),
		}
		for _, c := range update.Added {
			wrapped.Added = append(wrapped.Added, a.wrap(c))
		}
		for _, c := range update.Removed {
			wrapped.Removed = append(wrapped.Removed, a.wrap(c))
		}
		fn(wrapped)
	})
}

// Dispose disposes the SDK agent and then unsubscribes everything and
// disposes the renderers, whatever the SDK returned. Calls, participants and
// history stay published; only the views of disposed renderers are cleared.
func (a *CallAgent) Dispose(ctx context.Context) error {
	err := a.CallAgent.Dispose(ctx)
	a.detach()
	if err != nil {
		a.sess.logger.Warn().Err(err).Msg("call agent dispose failed")
	}
	return err
}

// Unwrap returns the SDK agent.
func (a *CallAgent) Unwrap() sdk.CallAgent {
	return a.CallAgent
}

// detach removes every listener and subscriber and disposes every renderer.
// Safe to call more than once.
func (a *CallAgent) detach() {
	defer a.sess.store.Hold()()
	a.once.Do(func() {
		a.mu.Lock()
		a.detached = true
		offs := a.offs
		calls := a.calls
		incoming := a.incoming
		a.calls = map[string]*callSubscriber{}
		a.incoming = map[string]*incomingCallSubscriber{}
		a.mu.Unlock()

		for _, off := range offs {
			off()
		}
		for _, sub := range calls {
			sub.unsubscribe()
		}
		for _, sub := range incoming {
			sub.unsubscribe()
		}
		a.sess.stopRenderVideoAllCalls()
		a.sess.refs.ClearAll()
		a.sess.logger.Info().Int("calls", len(calls)).Msg("call agent detached")
	})
}

func (a *CallAgent) callsUpdated(update sdk.CollectionUpdate[sdk.Call]) {
	for _, call := range update.Added {
		a.addCall(call)
	}
	for _, call := range update.Removed {
		a.removeCall(call)
	}
}

// addCall subscribes to the call unless it is already tracked, then writes
// it into the store.
func (a *CallAgent) addCall(call sdk.Call) {
	call = unwrapCall(call)

	a.mu.Lock()
	if a.detached {
		a.mu.Unlock()
		return
	}
	sub, tracked := a.calls[call.ID()]
	if !tracked {
		sub = newCallSubscriber(call, a.sess, a.rekeyCall)
		a.calls[call.ID()] = sub
	}
	a.mu.Unlock()

	if !tracked {
		sub.start()
	}
	sub.upsert()
}

// removeCall tears the call down and moves it to the ended history.
func (a *CallAgent) removeCall(call sdk.Call) {
	call = unwrapCall(call)

	a.mu.Lock()
	var sub *callSubscriber
	for id, s := range a.calls {
		if s.call == call {
			sub = s
			delete(a.calls, id)
			break
		}
	}
	if sub == nil {
		if s, ok := a.calls[call.ID()]; ok {
			sub = s
			delete(a.calls, call.ID())
		}
	}
	delete(a.wrapped, call)
	a.mu.Unlock()

	if sub == nil {
		return
	}
	sub.unsubscribe()

	callID := sub.ref.get()
	a.sess.stopRenderVideoAll(callID)
	a.sess.refs.RemoveCall(callID)
	a.sess.store.SetCallEnded(callID, copyReason(call.CallEndReason()))
	a.sess.logger.Debug().Str("call_id", callID).Msg("call ended")
}

// rekeyCall runs while the call's id reference is write-locked.
func (a *CallAgent) rekeyCall(oldID, newID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if sub, ok := a.calls[oldID]; ok {
		delete(a.calls, oldID)
		a.calls[newID] = sub
	}
}

func (a *CallAgent) incomingCall(call sdk.IncomingCall) {
	a.mu.Lock()
	if a.detached {
		a.mu.Unlock()
		return
	}
	if _, ok := a.incoming[call.ID()]; ok {
		a.mu.Unlock()
		return
	}
	sub := newIncomingCallSubscriber(call, a.sess, a.dropIncoming)
	a.incoming[call.ID()] = sub
	a.mu.Unlock()

	a.sess.store.SetIncomingCall(convertIncomingCall(call))
	sub.start()
	a.sess.logger.Debug().Str("call_id", call.ID()).Msg("incoming call")
}

func (a *CallAgent) dropIncoming(id string) {
	a.mu.Lock()
	delete(a.incoming, id)
	a.mu.Unlock()
}

// wrap returns the same *Call for the same SDK call.
func (a *CallAgent) wrap(call sdk.Call) *Call {
	call = unwrapCall(call)
	a.mu.Lock()
	defer a.mu.Unlock()
	if w, ok := a.wrapped[call]; ok {
		return w
	}
	var ref *callIDRef
	for _, sub := range a.calls {
		if sub.call == call {
			ref = sub.ref
			break
		}
	}
	w := newCall(call, ref, a.sess)
	if ref != nil {
		a.wrapped[call] = w
	}
	return w
}

func unwrapCall(call sdk.Call) sdk.Call {
	if w, ok := call.(*Call); ok {
		return w.Call
	}
	return call
}

var _ sdk.CallAgent = (*CallAgent)(nil)
