package sdk

import "context"

// CallClient is the SDK entry point.
type CallClient interface {
	// CreateCallAgent authenticates with the credential and returns an agent
	// able to place and receive calls.
	CreateCallAgent(ctx context.Context, credential TokenCredential, opts CallAgentOptions) (CallAgent, error)

	// GetDeviceManager returns the device manager. The SDK returns the same
	// instance on every call.
	GetDeviceManager(ctx context.Context) (DeviceManager, error)
}

// TokenCredential supplies the access token used by CreateCallAgent.
type TokenCredential interface {
	Token(ctx context.Context) (string, error)
}

// CallAgent places and receives calls.
type CallAgent interface {
	Calls() []Call
	DisplayName() string

	StartCall(ctx context.Context, participants []Identifier, opts StartCallOptions) (Call, error)
	Join(ctx context.Context, locator JoinLocator, opts StartCallOptions) (Call, error)
	Dispose(ctx context.Context) error

	OnCallsUpdated(fn func(CollectionUpdate[Call])) Off
	OnIncomingCall(fn func(IncomingCall)) Off
}

// Call is a live call.
type Call interface {
	ID() string
	CallerInfo() CallerInfo
	State() CallState
	CallEndReason() *CallEndReason
	Direction() CallDirection
	IsMuted() bool
	IsScreenSharingOn() bool
	LocalVideoStreams() []LocalVideoStream
	RemoteParticipants() []RemoteParticipant

	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
	Hangup(ctx context.Context, opts HangUpOptions) error
	Hold(ctx context.Context) error
	Resume(ctx context.Context) error
	StartVideo(ctx context.Context, stream LocalVideoStream) error
	StopVideo(ctx context.Context, stream LocalVideoStream) error

	OnStateChanged(fn func()) Off
	OnIDChanged(fn func()) Off
	OnIsMutedChanged(fn func()) Off
	OnIsScreenSharingOnChanged(fn func()) Off
	OnRemoteParticipantsUpdated(fn func(CollectionUpdate[RemoteParticipant])) Off
	OnLocalVideoStreamsUpdated(fn func(CollectionUpdate[LocalVideoStream])) Off
}

// IncomingCall is a call ringing on the local agent.
type IncomingCall interface {
	ID() string
	CallerInfo() CallerInfo
	CallEndReason() *CallEndReason

	Accept(ctx context.Context, opts StartCallOptions) (Call, error)
	Reject(ctx context.Context) error

	OnCallEnded(fn func(CallEndReason)) Off
}

// RemoteParticipant is a remote party of a call.
type RemoteParticipant interface {
	Identifier() Identifier
	DisplayName() string
	State() ParticipantState
	CallEndReason() *CallEndReason
	IsMuted() bool
	IsSpeaking() bool
	VideoStreams() []RemoteVideoStream

	OnStateChanged(fn func()) Off
	OnIsMutedChanged(fn func()) Off
	OnDisplayNameChanged(fn func()) Off
	OnIsSpeakingChanged(fn func()) Off
	OnVideoStreamsUpdated(fn func(CollectionUpdate[RemoteVideoStream])) Off
}

// MediaStream is anything a renderer can draw.
type MediaStream interface {
	MediaStreamType() MediaStreamType
}

// RemoteVideoStream is a video stream sent by a remote participant.
type RemoteVideoStream interface {
	MediaStream
	ID() int
	IsAvailable() bool

	OnIsAvailableChanged(fn func()) Off
}

// LocalVideoStream is a video stream sent by the local user.
type LocalVideoStream interface {
	MediaStream
	Source() VideoDeviceInfo
	SwitchSource(ctx context.Context, source VideoDeviceInfo) error
}

// DeviceManager enumerates and selects local media devices.
type DeviceManager interface {
	IsSpeakerSelectionAvailable() bool
	SelectedMicrophone() *AudioDeviceInfo
	SelectedSpeaker() *AudioDeviceInfo

	GetCameras(ctx context.Context) ([]VideoDeviceInfo, error)
	GetMicrophones(ctx context.Context) ([]AudioDeviceInfo, error)
	GetSpeakers(ctx context.Context) ([]AudioDeviceInfo, error)
	SelectMicrophone(ctx context.Context, device AudioDeviceInfo) error
	SelectSpeaker(ctx context.Context, device AudioDeviceInfo) error
	AskDevicePermission(ctx context.Context, constraints PermissionConstraints) (DeviceAccess, error)

	OnVideoDevicesUpdated(fn func(CollectionUpdate[VideoDeviceInfo])) Off
	OnAudioDevicesUpdated(fn func(CollectionUpdate[AudioDeviceInfo])) Off
	OnSelectedMicrophoneChanged(fn func()) Off
	OnSelectedSpeakerChanged(fn func()) Off
}

// VideoStreamRenderer draws one stream into views.
type VideoStreamRenderer interface {
	CreateView(ctx context.Context, opts CreateViewOptions) (VideoStreamRendererView, error)
	Dispose()
}

// VideoStreamRendererView is a rendered view of a stream.
type VideoStreamRendererView interface {
	IsMirrored() bool
	ScalingMode() ScalingMode
	// Target is the platform handle the view draws into.
	Target() any
	UpdateScalingMode(ctx context.Context, mode ScalingMode) error
	Dispose()
}

// RendererFactory creates renderers for streams.
type RendererFactory interface {
	NewRenderer(stream MediaStream) (VideoStreamRenderer, error)
}

// RendererFactoryFunc adapts a function to RendererFactory.
type RendererFactoryFunc func(stream MediaStream) (VideoStreamRenderer, error)

// NewRenderer calls f(stream).
func (f RendererFactoryFunc) NewRenderer(stream MediaStream) (VideoStreamRenderer, error) {
	return f(stream)
}
