package declarative

import (
	"fmt"

	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

// ParticipantKey derives the stable identity of a remote participant. The
// kind prefix keeps equal raw ids of different kinds apart.
func ParticipantKey(id sdk.Identifier) string {
	switch id.Kind {
	case sdk.KindCommunicationUser, sdk.KindPhoneNumber, sdk.KindMicrosoftTeamsUser:
		return fmt.Sprintf("%s_%s", id.Kind, id.RawID())
	default:
		return fmt.Sprintf("%s_%s", sdk.KindUnknown, id.ID)
	}
}

func convertCall(call sdk.Call) state.Call {
	participants := map[string]state.RemoteParticipant{}
	for _, p := range call.RemoteParticipants() {
		participants[ParticipantKey(p.Identifier())] = convertParticipant(p)
	}
	return state.Call{
		ID:                      call.ID(),
		CallerInfo:              call.CallerInfo(),
		State:                   call.State(),
		CallEndReason:           copyReason(call.CallEndReason()),
		Direction:               call.Direction(),
		IsMuted:                 call.IsMuted(),
		IsScreenSharingOn:       call.IsScreenSharingOn(),
		LocalVideoStreams:       convertLocalStreams(call.LocalVideoStreams()),
		RemoteParticipants:      participants,
		RemoteParticipantsEnded: map[string]state.RemoteParticipant{},
	}
}

func convertParticipant(p sdk.RemoteParticipant) state.RemoteParticipant {
	return state.RemoteParticipant{
		Identifier:    p.Identifier(),
		DisplayName:   p.DisplayName(),
		State:         p.State(),
		CallEndReason: copyReason(p.CallEndReason()),
		IsMuted:       p.IsMuted(),
		IsSpeaking:    p.IsSpeaking(),
		VideoStreams:  convertRemoteStreams(p.VideoStreams()),
	}
}

func convertRemoteStream(s sdk.RemoteVideoStream) state.RemoteVideoStream {
	return state.RemoteVideoStream{
		ID:              s.ID(),
		MediaStreamType: s.MediaStreamType(),
		IsAvailable:     s.IsAvailable(),
	}
}

func convertRemoteStreams(streams []sdk.RemoteVideoStream) map[int]state.RemoteVideoStream {
	out := make(map[int]state.RemoteVideoStream, len(streams))
	for _, s := range streams {
		out[s.ID()] = convertRemoteStream(s)
	}
	return out
}

func convertLocalStream(s sdk.LocalVideoStream) state.LocalVideoStream {
	return state.LocalVideoStream{
		Source:          s.Source(),
		MediaStreamType: s.MediaStreamType(),
	}
}

func convertLocalStreams(streams []sdk.LocalVideoStream) []state.LocalVideoStream {
	out := make([]state.LocalVideoStream, 0, len(streams))
	for _, s := range streams {
		out = append(out, convertLocalStream(s))
	}
	return out
}

func convertIncomingCall(c sdk.IncomingCall) state.IncomingCall {
	return state.IncomingCall{
		ID:            c.ID(),
		CallerInfo:    c.CallerInfo(),
		CallEndReason: copyReason(c.CallEndReason()),
	}
}

func convertView(v sdk.VideoStreamRendererView) *state.VideoStreamRendererView {
	return &state.VideoStreamRendererView{
		ScalingMode: v.ScalingMode(),
		IsMirrored:  v.IsMirrored(),
		Target:      v.Target(),
	}
}

func copyReason(r *sdk.CallEndReason) *sdk.CallEndReason {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
