package state

import "github.com/vovakirdan/callstate/internal/sdk"

// SetCallRemoteParticipants removes the given keys and then inserts added, so
// a key present in both ends up present with the added value. A key added
// again without being removed keeps the renderer views of its streams.
func (s *Store) SetCallRemoteParticipants(callID string, added map[string]RemoteParticipant, removed []string) {
	s.updateCall("SetCallRemoteParticipants", callID, func(c *Call) bool {
		if len(added) == 0 && len(removed) == 0 {
			return false
		}
		participants := cloneMap(c.RemoteParticipants)
		for _, key := range removed {
			delete(participants, key)
		}
		for key, p := range added {
			if p.VideoStreams == nil {
				p.VideoStreams = map[int]RemoteVideoStream{}
			}
			if old, ok := participants[key]; ok {
				p.VideoStreams = carryRemoteViews(old.VideoStreams, p.VideoStreams)
			}
			participants[key] = p
		}
		c.RemoteParticipants = participants
		return true
	})
}

// SetCallRemoteParticipantsEnded records removed participants in the call's
// ended set, then drops any key that was re-added in the same batch.
func (s *Store) SetCallRemoteParticipantsEnded(callID string, ended map[string]RemoteParticipant, readded []string) {
	s.updateCall("SetCallRemoteParticipantsEnded", callID, func(c *Call) bool {
		if len(ended) == 0 && len(readded) == 0 {
			return false
		}
		endedSet := cloneMap(c.RemoteParticipantsEnded)
		for key, p := range ended {
			endedSet[key] = p
		}
		for _, key := range readded {
			delete(endedSet, key)
		}
		c.RemoteParticipantsEnded = endedSet
		return true
	})
}

func (s *Store) SetParticipantState(callID, key string, participantState sdk.ParticipantState, reason *sdk.CallEndReason) {
	s.updateParticipant("SetParticipantState", callID, key, func(p *RemoteParticipant) bool {
		p.State = participantState
		p.CallEndReason = reason
		return true
	})
}

func (s *Store) SetParticipantIsMuted(callID, key string, muted bool) {
	s.updateParticipant("SetParticipantIsMuted", callID, key, func(p *RemoteParticipant) bool {
		if p.IsMuted == muted {
			return false
		}
		p.IsMuted = muted
		return true
	})
}

func (s *Store) SetParticipantDisplayName(callID, key, displayName string) {
	s.updateParticipant("SetParticipantDisplayName", callID, key, func(p *RemoteParticipant) bool {
		if p.DisplayName == displayName {
			return false
		}
		p.DisplayName = displayName
		return true
	})
}

func (s *Store) SetParticipantIsSpeaking(callID, key string, speaking bool) {
	s.updateParticipant("SetParticipantIsSpeaking", callID, key, func(p *RemoteParticipant) bool {
		if p.IsSpeaking == speaking {
			return false
		}
		p.IsSpeaking = speaking
		return true
	})
}

// SetRemoteVideoStreams overwrites the participant's streams. A stream id
// that survives keeps its attached view.
func (s *Store) SetRemoteVideoStreams(callID, key string, streams map[int]RemoteVideoStream) {
	s.updateParticipant("SetRemoteVideoStreams", callID, key, func(p *RemoteParticipant) bool {
		p.VideoStreams = carryRemoteViews(p.VideoStreams, streams)
		return true
	})
}

func (s *Store) SetRemoteVideoStreamIsAvailable(callID, key string, streamID int, available bool) {
	s.updateRemoteStream("SetRemoteVideoStreamIsAvailable", callID, key, streamID, func(rs *RemoteVideoStream) bool {
		if rs.IsAvailable == available {
			return false
		}
		rs.IsAvailable = available
		return true
	})
}

// SetRemoteVideoStreamRendererView attaches (or with nil, detaches) a view.
func (s *Store) SetRemoteVideoStreamRendererView(callID, key string, streamID int, view *VideoStreamRendererView) {
	s.updateRemoteStream("SetRemoteVideoStreamRendererView", callID, key, streamID, func(rs *RemoteVideoStream) bool {
		if rs.View == nil && view == nil {
			return false
		}
		rs.View = view
		return true
	})
}

func (s *Store) updateParticipant(op, callID, key string, fn func(p *RemoteParticipant) bool) {
	s.updateCall(op, callID, func(c *Call) bool {
		p, ok := c.RemoteParticipants[key]
		if !ok {
			return false
		}
		if !fn(&p) {
			return false
		}
		c.RemoteParticipants = cloneMap(c.RemoteParticipants)
		c.RemoteParticipants[key] = p
		return true
	})
}

func (s *Store) updateRemoteStream(op, callID, key string, streamID int, fn func(rs *RemoteVideoStream) bool) {
	s.updateParticipant(op, callID, key, func(p *RemoteParticipant) bool {
		rs, ok := p.VideoStreams[streamID]
		if !ok {
			return false
		}
		if !fn(&rs) {
			return false
		}
		p.VideoStreams = cloneMap(p.VideoStreams)
		p.VideoStreams[streamID] = rs
		return true
	})
}
