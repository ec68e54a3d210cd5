package declarative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/sdk/sdkfake"
)

func TestParticipantKey(t *testing.T) {
	tests := []struct {
		name string
		id   sdk.Identifier
		want string
	}{
		{"communication user", sdk.CommunicationUser("8:acs:123"), "communicationUser_8:acs:123"},
		{"phone number", sdk.PhoneNumber("+15550100"), "phoneNumber_+15550100"},
		{"teams user", sdk.MicrosoftTeamsUser("29:abc", false), "microsoftTeamsUser_29:abc"},
		{"unknown", sdk.Unknown("opaque"), "unknown_opaque"},
		{"unset kind", sdk.Identifier{ID: "raw"}, "unknown_raw"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParticipantKey(tc.id))
			assert.Equal(t, ParticipantKey(tc.id), ParticipantKey(tc.id))
		})
	}
}

func TestParticipantKeyDoesNotCollideAcrossKinds(t *testing.T) {
	keys := map[string]struct{}{}
	for _, id := range []sdk.Identifier{
		sdk.CommunicationUser("same"),
		sdk.PhoneNumber("same"),
		sdk.MicrosoftTeamsUser("same", true),
		sdk.Unknown("same"),
	} {
		keys[ParticipantKey(id)] = struct{}{}
	}
	assert.Len(t, keys, 4)
}

func TestConvertCall(t *testing.T) {
	stream := sdkfake.NewRemoteVideoStream(2, sdk.MediaStreamTypeVideo, true)
	call, p := newCallWithParticipant("a", "alice", stream)
	p.SetMuted(true)
	call.SetCallerInfo(sdk.CallerInfo{DisplayName: "Alice"})
	call.UpdateLocalVideoStreams([]sdk.LocalVideoStream{sdkfake.NewLocalVideoStream(sdk.VideoDeviceInfo{ID: "cam"})}, nil)

	got := convertCall(call)

	assert.Equal(t, "a", got.ID)
	assert.Equal(t, "Alice", got.CallerInfo.DisplayName)
	assert.Equal(t, sdk.CallStateConnecting, got.State)
	assert.Nil(t, got.CallEndReason)
	require.Len(t, got.LocalVideoStreams, 1)
	assert.Equal(t, "cam", got.LocalVideoStreams[0].Source.ID)
	require.Contains(t, got.RemoteParticipants, aliceKey)
	assert.True(t, got.RemoteParticipants[aliceKey].IsMuted)
	assert.True(t, got.RemoteParticipants[aliceKey].VideoStreams[2].IsAvailable)
	assert.NotNil(t, got.RemoteParticipantsEnded)
	assert.True(t, got.StartTime.IsZero(), "the store stamps start time")
}

func TestConvertCallCopiesEndReason(t *testing.T) {
	call := sdkfake.NewCall("a", sdk.CallDirectionIncoming)
	call.End(sdk.CallEndReason{Code: 487})

	got := convertCall(call)

	require.NotNil(t, got.CallEndReason)
	assert.Equal(t, 487, got.CallEndReason.Code)
	assert.NotSame(t, call.CallEndReason(), got.CallEndReason)
}
