package declarative

import (
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// incomingCallSubscriber moves an incoming call to the ended history when it
// ends, then unsubscribes itself.
type incomingCallSubscriber struct {
	call    sdk.IncomingCall
	sess    *session
	onEnded func(id string)

	mu      sync.Mutex
	off     sdk.Off
	started bool
	closed  bool
	ended   sync.Once
	once    sync.Once
}

func newIncomingCallSubscriber(call sdk.IncomingCall, sess *session, onEnded func(id string)) *incomingCallSubscriber {
	return &incomingCallSubscriber{call: call, sess: sess, onEnded: onEnded}
}

// start registers the listener. A call that ended before start is handled
// right away.
func (s *incomingCallSubscriber) start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.off = s.call.OnCallEnded(s.callEnded)
	s.mu.Unlock()
	s.sess.attached(KindIncomingCall)

	if reason := s.call.CallEndReason(); reason != nil {
		s.callEnded(*reason)
	}
}

func (s *incomingCallSubscriber) callEnded(reason sdk.CallEndReason) {
	defer s.sess.store.Hold()()
	s.ended.Do(func() {
		id := s.call.ID()
		s.sess.store.SetIncomingCallEnded(id, &reason)
		s.unsubscribe()
		if s.onEnded != nil {
			s.onEnded(id)
		}
		s.sess.logger.Debug().Str("call_id", id).Int("code", reason.Code).Int("subcode", reason.Subcode).Msg("incoming call ended")
	})
}

func (s *incomingCallSubscriber) unsubscribe() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		off := s.off
		started := s.started
		s.mu.Unlock()
		if off != nil {
			off()
		}
		if started {
			s.sess.detached(KindIncomingCall)
		}
	})
}
