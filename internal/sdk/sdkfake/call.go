package sdkfake

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// ErrCallEnded is returned by operations on a disconnected call.
var ErrCallEnded = errors.New("call has ended")

// Call is a fake sdk.Call.
type Call struct {
	mu          sync.RWMutex
	id          string
	callerInfo  sdk.CallerInfo
	state       sdk.CallState
	endReason   *sdk.CallEndReason
	direction   sdk.CallDirection
	muted       bool
	screenShare bool
	local       []sdk.LocalVideoStream
	remote      []sdk.RemoteParticipant
	muteErr     error
	agent       *CallAgent

	stateChanged        signal
	idChanged           signal
	mutedChanged        signal
	screenShareChanged  signal
	participantsUpdated emitter[sdk.CollectionUpdate[sdk.RemoteParticipant]]
	localStreamsUpdated emitter[sdk.CollectionUpdate[sdk.LocalVideoStream]]
}

// NewCall creates a connecting call with the given id.
func NewCall(id string, direction sdk.CallDirection) *Call {
	return &Call{
		id:        id,
		direction: direction,
		state:     sdk.CallStateConnecting,
	}
}

func (c *Call) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

func (c *Call) CallerInfo() sdk.CallerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callerInfo
}

func (c *Call) State() sdk.CallState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Call) CallEndReason() *sdk.CallEndReason {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endReason
}

func (c *Call) Direction() sdk.CallDirection { return c.direction }

func (c *Call) IsMuted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.muted
}

func (c *Call) IsScreenSharingOn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.screenShare
}

func (c *Call) LocalVideoStreams() []sdk.LocalVideoStream {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.local)
}

func (c *Call) RemoteParticipants() []sdk.RemoteParticipant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.remote)
}

// Mute mutes the microphone. The flag is applied before the method returns.
func (c *Call) Mute(_ context.Context) error {
	return c.setMuted(true)
}

// Unmute unmutes the microphone.
func (c *Call) Unmute(_ context.Context) error {
	return c.setMuted(false)
}

func (c *Call) setMuted(muted bool) error {
	c.mu.Lock()
	if c.muteErr != nil {
		err := c.muteErr
		c.mu.Unlock()
		return err
	}
	if c.state == sdk.CallStateDisconnected {
		c.mu.Unlock()
		return ErrCallEnded
	}
	changed := c.muted != muted
	c.muted = muted
	c.mu.Unlock()

	if changed {
		c.mutedChanged.fire()
	}
	return nil
}

// Hangup disconnects the call and removes it from its agent.
func (c *Call) Hangup(_ context.Context, _ sdk.HangUpOptions) error {
	c.End(sdk.CallEndReason{Code: 0})
	return nil
}

// Hold puts the call on local hold.
func (c *Call) Hold(_ context.Context) error {
	if c.State() == sdk.CallStateDisconnected {
		return ErrCallEnded
	}
	c.SetState(sdk.CallStateLocalHold)
	return nil
}

// Resume resumes a held call.
func (c *Call) Resume(_ context.Context) error {
	if c.State() == sdk.CallStateDisconnected {
		return ErrCallEnded
	}
	c.SetState(sdk.CallStateConnected)
	return nil
}

// StartVideo adds the stream to the call's local streams.
func (c *Call) StartVideo(_ context.Context, stream sdk.LocalVideoStream) error {
	if c.State() == sdk.CallStateDisconnected {
		return ErrCallEnded
	}
	c.UpdateLocalVideoStreams([]sdk.LocalVideoStream{stream}, nil)
	return nil
}

// StopVideo removes the stream from the call's local streams.
func (c *Call) StopVideo(_ context.Context, stream sdk.LocalVideoStream) error {
	c.UpdateLocalVideoStreams(nil, []sdk.LocalVideoStream{stream})
	return nil
}

func (c *Call) OnStateChanged(fn func()) sdk.Off { return c.stateChanged.onSignal(fn) }

func (c *Call) OnIDChanged(fn func()) sdk.Off { return c.idChanged.onSignal(fn) }

func (c *Call) OnIsMutedChanged(fn func()) sdk.Off { return c.mutedChanged.onSignal(fn) }

func (c *Call) OnIsScreenSharingOnChanged(fn func()) sdk.Off {
	return c.screenShareChanged.onSignal(fn)
}

func (c *Call) OnRemoteParticipantsUpdated(fn func(sdk.CollectionUpdate[sdk.RemoteParticipant])) sdk.Off {
	return c.participantsUpdated.on(fn)
}

func (c *Call) OnLocalVideoStreamsUpdated(fn func(sdk.CollectionUpdate[sdk.LocalVideoStream])) sdk.Off {
	return c.localStreamsUpdated.on(fn)
}

// SetCallerInfo sets the caller info without firing an event.
func (c *Call) SetCallerInfo(info sdk.CallerInfo) {
	c.mu.Lock()
	c.callerInfo = info
	c.mu.Unlock()
}

// SetMuteError makes Mute and Unmute fail with err until cleared with nil.
func (c *Call) SetMuteError(err error) {
	c.mu.Lock()
	c.muteErr = err
	c.mu.Unlock()
}

// SetID changes the call id and fires idChanged.
func (c *Call) SetID(id string) {
	c.mu.Lock()
	c.id = id
	c.mu.Unlock()
	c.idChanged.fire()
}

// SetState updates the state and fires stateChanged.
func (c *Call) SetState(state sdk.CallState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.stateChanged.fire()
}

// SetScreenSharingOn updates the screen-share flag and fires its event.
func (c *Call) SetScreenSharingOn(on bool) {
	c.mu.Lock()
	c.screenShare = on
	c.mu.Unlock()
	c.screenShareChanged.fire()
}

// End disconnects the call with reason and, when the call belongs to an
// agent, removes it from the agent's calls.
func (c *Call) End(reason sdk.CallEndReason) {
	c.mu.Lock()
	if c.state == sdk.CallStateDisconnected {
		c.mu.Unlock()
		return
	}
	c.endReason = &reason
	c.state = sdk.CallStateDisconnected
	agent := c.agent
	c.mu.Unlock()

	c.stateChanged.fire()
	if agent != nil {
		agent.RemoveCall(c)
	}
}

// UpdateRemoteParticipants adds and removes participants, then fires
// remoteParticipantsUpdated.
func (c *Call) UpdateRemoteParticipants(added, removed []sdk.RemoteParticipant) {
	c.mu.Lock()
	c.remote = slices.DeleteFunc(c.remote, func(p sdk.RemoteParticipant) bool {
		return slices.Contains(removed, p)
	})
	c.remote = append(c.remote, added...)
	c.mu.Unlock()
	c.participantsUpdated.emit(sdk.CollectionUpdate[sdk.RemoteParticipant]{Added: added, Removed: removed})
}

// AddRemoteParticipants is UpdateRemoteParticipants with nothing removed.
func (c *Call) AddRemoteParticipants(participants ...sdk.RemoteParticipant) {
	c.UpdateRemoteParticipants(participants, nil)
}

// RemoveRemoteParticipants is UpdateRemoteParticipants with nothing added.
func (c *Call) RemoveRemoteParticipants(participants ...sdk.RemoteParticipant) {
	c.UpdateRemoteParticipants(nil, participants)
}

// UpdateLocalVideoStreams adds and removes local streams, then fires
// localVideoStreamsUpdated.
func (c *Call) UpdateLocalVideoStreams(added, removed []sdk.LocalVideoStream) {
	c.mu.Lock()
	c.local = slices.DeleteFunc(c.local, func(s sdk.LocalVideoStream) bool {
		return slices.Contains(removed, s)
	})
	c.local = append(c.local, added...)
	c.mu.Unlock()
	c.localStreamsUpdated.emit(sdk.CollectionUpdate[sdk.LocalVideoStream]{Added: added, Removed: removed})
}

// HandlerCount returns the number of registered handlers across all events.
func (c *Call) HandlerCount() int {
	return c.stateChanged.count() + c.idChanged.count() + c.mutedChanged.count() +
		c.screenShareChanged.count() + c.participantsUpdated.count() + c.localStreamsUpdated.count()
}

func (c *Call) attach(agent *CallAgent) {
	c.mu.Lock()
	c.agent = agent
	c.mu.Unlock()
}

var _ sdk.Call = (*Call)(nil)
