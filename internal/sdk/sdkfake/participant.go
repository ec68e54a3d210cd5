package sdkfake

import (
	"slices"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// RemoteParticipant is a fake sdk.RemoteParticipant.
type RemoteParticipant struct {
	mu          sync.RWMutex
	identifier  sdk.Identifier
	displayName string
	state       sdk.ParticipantState
	endReason   *sdk.CallEndReason
	muted       bool
	speaking    bool
	streams     []sdk.RemoteVideoStream

	stateChanged       signal
	mutedChanged       signal
	displayNameChanged signal
	speakingChanged    signal
	streamsUpdated     emitter[sdk.CollectionUpdate[sdk.RemoteVideoStream]]
}

// NewRemoteParticipant creates a connected participant.
func NewRemoteParticipant(identifier sdk.Identifier, displayName string) *RemoteParticipant {
	return &RemoteParticipant{
		identifier:  identifier,
		displayName: displayName,
		state:       sdk.ParticipantStateConnected,
	}
}

func (p *RemoteParticipant) Identifier() sdk.Identifier { return p.identifier }

func (p *RemoteParticipant) DisplayName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.displayName
}

func (p *RemoteParticipant) State() sdk.ParticipantState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *RemoteParticipant) CallEndReason() *sdk.CallEndReason {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.endReason
}

func (p *RemoteParticipant) IsMuted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.muted
}

func (p *RemoteParticipant) IsSpeaking() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.speaking
}

func (p *RemoteParticipant) VideoStreams() []sdk.RemoteVideoStream {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.streams)
}

func (p *RemoteParticipant) OnStateChanged(fn func()) sdk.Off { return p.stateChanged.onSignal(fn) }

func (p *RemoteParticipant) OnIsMutedChanged(fn func()) sdk.Off { return p.mutedChanged.onSignal(fn) }

func (p *RemoteParticipant) OnDisplayNameChanged(fn func()) sdk.Off {
	return p.displayNameChanged.onSignal(fn)
}

func (p *RemoteParticipant) OnIsSpeakingChanged(fn func()) sdk.Off {
	return p.speakingChanged.onSignal(fn)
}

func (p *RemoteParticipant) OnVideoStreamsUpdated(fn func(sdk.CollectionUpdate[sdk.RemoteVideoStream])) sdk.Off {
	return p.streamsUpdated.on(fn)
}

// SetState updates the state and fires stateChanged.
func (p *RemoteParticipant) SetState(state sdk.ParticipantState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
	p.stateChanged.fire()
}

// Disconnect marks the participant disconnected with the given reason.
func (p *RemoteParticipant) Disconnect(reason sdk.CallEndReason) {
	p.mu.Lock()
	p.endReason = &reason
	p.state = sdk.ParticipantStateDisconnected
	p.mu.Unlock()
	p.stateChanged.fire()
}

// SetMuted updates the mute flag and fires isMutedChanged.
func (p *RemoteParticipant) SetMuted(muted bool) {
	p.mu.Lock()
	p.muted = muted
	p.mu.Unlock()
	p.mutedChanged.fire()
}

// SetDisplayName updates the display name and fires displayNameChanged.
func (p *RemoteParticipant) SetDisplayName(name string) {
	p.mu.Lock()
	p.displayName = name
	p.mu.Unlock()
	p.displayNameChanged.fire()
}

// SetSpeaking updates the speaking flag and fires isSpeakingChanged.
func (p *RemoteParticipant) SetSpeaking(speaking bool) {
	p.mu.Lock()
	p.speaking = speaking
	p.mu.Unlock()
	p.speakingChanged.fire()
}

// UpdateVideoStreams adds and removes streams, then fires videoStreamsUpdated.
func (p *RemoteParticipant) UpdateVideoStreams(added, removed []sdk.RemoteVideoStream) {
	p.mu.Lock()
	p.streams = slices.DeleteFunc(p.streams, func(s sdk.RemoteVideoStream) bool {
		return slices.Contains(removed, s)
	})
	p.streams = append(p.streams, added...)
	p.mu.Unlock()
	p.streamsUpdated.emit(sdk.CollectionUpdate[sdk.RemoteVideoStream]{Added: added, Removed: removed})
}

// AddVideoStreams is UpdateVideoStreams with nothing removed.
func (p *RemoteParticipant) AddVideoStreams(streams ...sdk.RemoteVideoStream) {
	p.UpdateVideoStreams(streams, nil)
}

// RemoveVideoStreams is UpdateVideoStreams with nothing added.
func (p *RemoteParticipant) RemoveVideoStreams(streams ...sdk.RemoteVideoStream) {
	p.UpdateVideoStreams(nil, streams)
}

// HandlerCount returns the number of registered handlers across all events.
func (p *RemoteParticipant) HandlerCount() int {
	return p.stateChanged.count() + p.mutedChanged.count() + p.displayNameChanged.count() +
		p.speakingChanged.count() + p.streamsUpdated.count()
}

var _ sdk.RemoteParticipant = (*RemoteParticipant)(nil)
