// Package sdk describes the boundary with the vendor calling SDK.
//
// The calling SDK is an external collaborator: it owns signaling, media and
// transport. This package only captures the shape the declarative layer
// relies on, so any implementation satisfying these interfaces can be wrapped.
package sdk

// Off removes a handler registered with one of the OnXxx methods.
// Calling it more than once is a no-op.
type Off func()

// CollectionUpdate is the payload of every collection-changed event.
type CollectionUpdate[T any] struct {
	Added   []T
	Removed []T
}

// CallState is the lifecycle state of a call.
type CallState string

const (
	CallStateNone          CallState = "None"
	CallStateConnecting    CallState = "Connecting"
	CallStateRinging       CallState = "Ringing"
	CallStateConnected     CallState = "Connected"
	CallStateLocalHold     CallState = "LocalHold"
	CallStateRemoteHold    CallState = "RemoteHold"
	CallStateInLobby       CallState = "InLobby"
	CallStateDisconnecting CallState = "Disconnecting"
	CallStateDisconnected  CallState = "Disconnected"
	CallStateEarlyMedia    CallState = "EarlyMedia"
)

// CallDirection tells whether the local user placed or received the call.
type CallDirection string

const (
	CallDirectionIncoming CallDirection = "Incoming"
	CallDirectionOutgoing CallDirection = "Outgoing"
)

// ParticipantState is the lifecycle state of a remote participant.
type ParticipantState string

const (
	ParticipantStateIdle         ParticipantState = "Idle"
	ParticipantStateConnecting   ParticipantState = "Connecting"
	ParticipantStateRinging      ParticipantState = "Ringing"
	ParticipantStateConnected    ParticipantState = "Connected"
	ParticipantStateHold         ParticipantState = "Hold"
	ParticipantStateInLobby      ParticipantState = "InLobby"
	ParticipantStateEarlyMedia   ParticipantState = "EarlyMedia"
	ParticipantStateDisconnected ParticipantState = "Disconnected"
)

// MediaStreamType tags a video stream as camera video or screen sharing.
type MediaStreamType string

const (
	MediaStreamTypeVideo         MediaStreamType = "Video"
	MediaStreamTypeScreenSharing MediaStreamType = "ScreenSharing"
)

// ScalingMode controls how a rendered view fits its target.
type ScalingMode string

const (
	ScalingModeStretch ScalingMode = "Stretch"
	ScalingModeCrop    ScalingMode = "Crop"
	ScalingModeFit     ScalingMode = "Fit"
)

// AudioDeviceType distinguishes microphones from speakers.
type AudioDeviceType string

const (
	AudioDeviceTypeMicrophone AudioDeviceType = "Microphone"
	AudioDeviceTypeSpeaker    AudioDeviceType = "Speaker"
)

// CallEndReason carries the code and subcode reported when a call or
// participant ends.
type CallEndReason struct {
	Code    int `json:"code" yaml:"code"`
	Subcode int `json:"subcode" yaml:"subcode"`
}

// CallerInfo identifies the party that placed a call.
type CallerInfo struct {
	Identifier  Identifier `json:"identifier" yaml:"identifier"`
	DisplayName string     `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// VideoDeviceInfo describes a camera.
type VideoDeviceInfo struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	DeviceType string `json:"deviceType" yaml:"deviceType"`
}

// AudioDeviceInfo describes a microphone or a speaker.
type AudioDeviceInfo struct {
	ID              string          `json:"id" yaml:"id"`
	Name            string          `json:"name" yaml:"name"`
	DeviceType      AudioDeviceType `json:"deviceType" yaml:"deviceType"`
	IsSystemDefault bool            `json:"isSystemDefault" yaml:"isSystemDefault"`
}

// DeviceAccess is the result of a permission prompt.
type DeviceAccess struct {
	Audio bool `json:"audio" yaml:"audio"`
	Video bool `json:"video" yaml:"video"`
}

// PermissionConstraints selects which permissions to ask for.
type PermissionConstraints struct {
	Audio bool
	Video bool
}

// CallAgentOptions configures CreateCallAgent.
type CallAgentOptions struct {
	DisplayName string
}

// StartCallOptions configures StartCall, Join and Accept.
type StartCallOptions struct {
	LocalVideoStreams []LocalVideoStream
	Muted             bool
}

// JoinLocator points at a group call or a meeting.
type JoinLocator struct {
	GroupID     string
	MeetingLink string
}

// HangUpOptions configures Hangup.
type HangUpOptions struct {
	ForEveryone bool
}

// CreateViewOptions configures VideoStreamRenderer.CreateView.
type CreateViewOptions struct {
	IsMirrored  bool
	ScalingMode ScalingMode
}
