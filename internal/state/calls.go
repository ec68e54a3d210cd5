package state

import (
	"slices"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// UpsertCall merges call into the active call with the same id, or inserts
// it. Start time, ended participants and attached renderer views of the
// existing record are kept.
func (s *Store) UpsertCall(call Call) {
	s.mutate("UpsertCall", func(next *State) bool {
		existing, ok := next.Calls[call.ID]
		if !ok {
			if call.StartTime.IsZero() {
				call.StartTime = s.now()
			}
			if call.RemoteParticipants == nil {
				call.RemoteParticipants = map[string]RemoteParticipant{}
			}
			if call.RemoteParticipantsEnded == nil {
				call.RemoteParticipantsEnded = map[string]RemoteParticipant{}
			}
			next.Calls = cloneMap(next.Calls)
			next.Calls[call.ID] = call
			return true
		}

		existing.CallerInfo = call.CallerInfo
		existing.State = call.State
		existing.CallEndReason = call.CallEndReason
		existing.Direction = call.Direction
		existing.IsMuted = call.IsMuted
		existing.IsScreenSharingOn = call.IsScreenSharingOn
		existing.LocalVideoStreams = carryLocalViews(existing.LocalVideoStreams, call.LocalVideoStreams)

		participants := make(map[string]RemoteParticipant, len(call.RemoteParticipants))
		for key, p := range call.RemoteParticipants {
			if old, ok := existing.RemoteParticipants[key]; ok {
				p.VideoStreams = carryRemoteViews(old.VideoStreams, p.VideoStreams)
			}
			participants[key] = p
		}
		existing.RemoteParticipants = participants

		next.Calls = cloneMap(next.Calls)
		next.Calls[call.ID] = existing
		return true
	})
}

// RemoveCall deletes the active call without recording it in history.
func (s *Store) RemoveCall(id string) {
	s.mutate("RemoveCall", func(next *State) bool {
		if _, ok := next.Calls[id]; !ok {
			return false
		}
		next.Calls = cloneMap(next.Calls)
		delete(next.Calls, id)
		return true
	})
}

// SetCallEnded stamps the end time and reason of the active call and moves
// it to the bounded ended-call history, evicting the oldest entry when full.
func (s *Store) SetCallEnded(id string, reason *sdk.CallEndReason) {
	s.mutate("SetCallEnded", func(next *State) bool {
		call, ok := next.Calls[id]
		if !ok {
			return false
		}
		call.EndTime = s.stamp()
		if reason != nil {
			r := *reason
			call.CallEndReason = &r
		}

		next.Calls = cloneMap(next.Calls)
		delete(next.Calls, id)
		next.CallsEnded = appendCapped(next.CallsEnded, call, s.maxCalls)
		return true
	})
}

// SetCallID moves the call from oldID to newID. It is a no-op when oldID is
// not an active call.
func (s *Store) SetCallID(newID, oldID string) {
	s.mutate("SetCallID", func(next *State) bool {
		call, ok := next.Calls[oldID]
		if !ok || newID == oldID {
			return false
		}
		call.ID = newID
		next.Calls = cloneMap(next.Calls)
		delete(next.Calls, oldID)
		next.Calls[newID] = call
		return true
	})
}

func (s *Store) SetCallState(id string, callState sdk.CallState) {
	s.updateCall("SetCallState", id, func(c *Call) bool {
		if c.State == callState {
			return false
		}
		c.State = callState
		return true
	})
}

func (s *Store) SetCallIsMuted(id string, muted bool) {
	s.updateCall("SetCallIsMuted", id, func(c *Call) bool {
		if c.IsMuted == muted {
			return false
		}
		c.IsMuted = muted
		return true
	})
}

func (s *Store) SetCallIsScreenSharingOn(id string, on bool) {
	s.updateCall("SetCallIsScreenSharingOn", id, func(c *Call) bool {
		if c.IsScreenSharingOn == on {
			return false
		}
		c.IsScreenSharingOn = on
		return true
	})
}

// SetCallLocalVideoStreams overwrites the local stream list. Views attached
// to a stream with the same source are kept.
func (s *Store) SetCallLocalVideoStreams(id string, streams []LocalVideoStream) {
	s.updateCall("SetCallLocalVideoStreams", id, func(c *Call) bool {
		c.LocalVideoStreams = carryLocalViews(c.LocalVideoStreams, streams)
		return true
	})
}

// ResetCallLocalVideoStreams overwrites the local stream list and drops
// every view, for when the renderer of the previous stream is gone.
func (s *Store) ResetCallLocalVideoStreams(id string, streams []LocalVideoStream) {
	s.updateCall("ResetCallLocalVideoStreams", id, func(c *Call) bool {
		out := slices.Clone(streams)
		for i := range out {
			out[i].View = nil
		}
		c.LocalVideoStreams = out
		return true
	})
}

// SetLocalVideoStreamRendererView attaches (or with nil, detaches) the view
// of the call's local stream. Only one local stream is rendered per call.
func (s *Store) SetLocalVideoStreamRendererView(callID string, view *VideoStreamRendererView) {
	s.updateCall("SetLocalVideoStreamRendererView", callID, func(c *Call) bool {
		if len(c.LocalVideoStreams) == 0 {
			return false
		}
		if c.LocalVideoStreams[0].View == nil && view == nil {
			return false
		}
		c.LocalVideoStreams = slices.Clone(c.LocalVideoStreams)
		c.LocalVideoStreams[0].View = view
		return true
	})
}

// updateCall applies fn to a copy of the active call. Missing calls are
// ignored.
func (s *Store) updateCall(op, id string, fn func(c *Call) bool) {
	s.mutate(op, func(next *State) bool {
		call, ok := next.Calls[id]
		if !ok {
			return false
		}
		if !fn(&call) {
			return false
		}
		next.Calls = cloneMap(next.Calls)
		next.Calls[id] = call
		return true
	})
}

func carryLocalViews(old, streams []LocalVideoStream) []LocalVideoStream {
	out := slices.Clone(streams)
	for i := range out {
		if out[i].View != nil {
			continue
		}
		idx := slices.IndexFunc(old, func(o LocalVideoStream) bool {
			return o.Source.ID == out[i].Source.ID && o.View != nil
		})
		if idx >= 0 {
			out[i].View = old[idx].View
		}
	}
	return out
}

func carryRemoteViews(old, streams map[int]RemoteVideoStream) map[int]RemoteVideoStream {
	out := make(map[int]RemoteVideoStream, len(streams))
	for id, stream := range streams {
		if stream.View == nil {
			if prev, ok := old[id]; ok {
				stream.View = prev.View
			}
		}
		out[id] = stream
	}
	return out
}
