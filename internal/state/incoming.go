package state

import "github.com/vovakirdan/callstate/internal/sdk"

// SetIncomingCall inserts or replaces an active incoming call.
func (s *Store) SetIncomingCall(call IncomingCall) {
	s.mutate("SetIncomingCall", func(next *State) bool {
		if call.StartTime.IsZero() {
			if existing, ok := next.IncomingCalls[call.ID]; ok {
				call.StartTime = existing.StartTime
			} else {
				call.StartTime = s.now()
			}
		}
		next.IncomingCalls = cloneMap(next.IncomingCalls)
		next.IncomingCalls[call.ID] = call
		return true
	})
}

// SetIncomingCallEnded stamps the end of an active incoming call and moves it
// to the bounded ended history.
func (s *Store) SetIncomingCallEnded(id string, reason *sdk.CallEndReason) {
	s.mutate("SetIncomingCallEnded", func(next *State) bool {
		call, ok := next.IncomingCalls[id]
		if !ok {
			return false
		}
		call.EndTime = s.stamp()
		call.CallEndReason = copyPtr(reason)

		next.IncomingCalls = cloneMap(next.IncomingCalls)
		delete(next.IncomingCalls, id)
		next.IncomingCallsEnded = appendCapped(next.IncomingCallsEnded, call, s.maxIncoming)
		return true
	})
}
