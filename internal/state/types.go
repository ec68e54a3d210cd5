// Package state holds the immutable call-state snapshot and the store that
// publishes a new snapshot on every mutation.
package state

import (
	"time"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// State is one immutable snapshot. Values reachable from a published State
// are never modified; mutators copy what they change.
type State struct {
	Calls              map[string]Call         `json:"calls" yaml:"calls"`
	CallsEnded         []Call                  `json:"callsEnded" yaml:"callsEnded"`
	IncomingCalls      map[string]IncomingCall `json:"incomingCalls" yaml:"incomingCalls"`
	IncomingCallsEnded []IncomingCall          `json:"incomingCallsEnded" yaml:"incomingCallsEnded"`
	DeviceManager      DeviceManagerState      `json:"deviceManager" yaml:"deviceManager"`
	UserID             sdk.Identifier          `json:"userId" yaml:"userId"`
}

// Call is the snapshot of one call.
type Call struct {
	ID                      string                       `json:"id" yaml:"id"`
	CallerInfo              sdk.CallerInfo               `json:"callerInfo" yaml:"callerInfo"`
	State                   sdk.CallState                `json:"state" yaml:"state"`
	CallEndReason           *sdk.CallEndReason           `json:"callEndReason,omitempty" yaml:"callEndReason,omitempty"`
	Direction               sdk.CallDirection            `json:"direction" yaml:"direction"`
	IsMuted                 bool                         `json:"isMuted" yaml:"isMuted"`
	IsScreenSharingOn       bool                         `json:"isScreenSharingOn" yaml:"isScreenSharingOn"`
	LocalVideoStreams       []LocalVideoStream           `json:"localVideoStreams" yaml:"localVideoStreams"`
	RemoteParticipants      map[string]RemoteParticipant `json:"remoteParticipants" yaml:"remoteParticipants"`
	RemoteParticipantsEnded map[string]RemoteParticipant `json:"remoteParticipantsEnded" yaml:"remoteParticipantsEnded"`
	StartTime               time.Time                    `json:"startTime" yaml:"startTime"`
	EndTime                 *time.Time                   `json:"endTime,omitempty" yaml:"endTime,omitempty"`
}

// RemoteParticipant is the snapshot of a remote party.
type RemoteParticipant struct {
	Identifier    sdk.Identifier            `json:"identifier" yaml:"identifier"`
	DisplayName   string                    `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	State         sdk.ParticipantState      `json:"state" yaml:"state"`
	CallEndReason *sdk.CallEndReason        `json:"callEndReason,omitempty" yaml:"callEndReason,omitempty"`
	IsMuted       bool                      `json:"isMuted" yaml:"isMuted"`
	IsSpeaking    bool                      `json:"isSpeaking" yaml:"isSpeaking"`
	VideoStreams  map[int]RemoteVideoStream `json:"videoStreams" yaml:"videoStreams"`
}

// VideoStream is either a RemoteVideoStream or a LocalVideoStream.
type VideoStream interface {
	isVideoStream()
}

// RemoteVideoStream is the snapshot of a stream sent by a remote participant.
type RemoteVideoStream struct {
	ID              int                      `json:"id" yaml:"id"`
	MediaStreamType sdk.MediaStreamType      `json:"mediaStreamType" yaml:"mediaStreamType"`
	IsAvailable     bool                     `json:"isAvailable" yaml:"isAvailable"`
	View            *VideoStreamRendererView `json:"view,omitempty" yaml:"view,omitempty"`
}

func (RemoteVideoStream) isVideoStream() {}

// LocalVideoStream is the snapshot of a stream sent by the local user.
type LocalVideoStream struct {
	Source          sdk.VideoDeviceInfo      `json:"source" yaml:"source"`
	MediaStreamType sdk.MediaStreamType      `json:"mediaStreamType" yaml:"mediaStreamType"`
	View            *VideoStreamRendererView `json:"view,omitempty" yaml:"view,omitempty"`
}

func (LocalVideoStream) isVideoStream() {}

// VideoStreamRendererView describes an attached renderer view. It is nil on a
// stream that is not being rendered.
type VideoStreamRendererView struct {
	ScalingMode sdk.ScalingMode `json:"scalingMode" yaml:"scalingMode"`
	IsMirrored  bool            `json:"isMirrored" yaml:"isMirrored"`
	Target      any             `json:"-" yaml:"-"`
}

// IncomingCall is the snapshot of a ringing (or ended) incoming call.
type IncomingCall struct {
	ID            string             `json:"id" yaml:"id"`
	CallerInfo    sdk.CallerInfo     `json:"callerInfo" yaml:"callerInfo"`
	StartTime     time.Time          `json:"startTime" yaml:"startTime"`
	EndTime       *time.Time         `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	CallEndReason *sdk.CallEndReason `json:"callEndReason,omitempty" yaml:"callEndReason,omitempty"`
}

// Ended reports whether the incoming call has ended.
func (c IncomingCall) Ended() bool { return c.EndTime != nil }

// DeviceManagerState is the snapshot of local devices.
type DeviceManagerState struct {
	IsSpeakerSelectionAvailable bool                  `json:"isSpeakerSelectionAvailable" yaml:"isSpeakerSelectionAvailable"`
	SelectedMicrophone          *sdk.AudioDeviceInfo  `json:"selectedMicrophone,omitempty" yaml:"selectedMicrophone,omitempty"`
	SelectedSpeaker             *sdk.AudioDeviceInfo  `json:"selectedSpeaker,omitempty" yaml:"selectedSpeaker,omitempty"`
	Cameras                     []sdk.VideoDeviceInfo `json:"cameras" yaml:"cameras"`
	Microphones                 []sdk.AudioDeviceInfo `json:"microphones" yaml:"microphones"`
	Speakers                    []sdk.AudioDeviceInfo `json:"speakers" yaml:"speakers"`
	DeviceAccess                *sdk.DeviceAccess     `json:"deviceAccess,omitempty" yaml:"deviceAccess,omitempty"`
}

func emptyState() *State {
	return &State{
		Calls:         map[string]Call{},
		IncomingCalls: map[string]IncomingCall{},
	}
}
