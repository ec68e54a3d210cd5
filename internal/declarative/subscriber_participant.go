package declarative

import (
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// participantSubscriber mirrors one remote participant and owns the
// subscribers of its video streams.
type participantSubscriber struct {
	participant sdk.RemoteParticipant
	key         string
	ref         *callIDRef
	sess        *session

	mu      sync.Mutex
	streams map[int]*streamSubscriber
	closed  bool
	offs    []sdk.Off
	once    sync.Once
}

// newParticipantSubscriber must be called with the current call id held
// through ref.with.
func newParticipantSubscriber(p sdk.RemoteParticipant, callID string, ref *callIDRef, sess *session) *participantSubscriber {
	s := &participantSubscriber{
		participant: p,
		key:         ParticipantKey(p.Identifier()),
		ref:         ref,
		sess:        sess,
		streams:     map[int]*streamSubscriber{},
	}
	s.offs = []sdk.Off{
		p.OnStateChanged(s.stateChanged),
		p.OnIsMutedChanged(s.isMutedChanged),
		p.OnDisplayNameChanged(s.displayNameChanged),
		p.OnIsSpeakingChanged(s.isSpeakingChanged),
		p.OnVideoStreamsUpdated(s.videoStreamsUpdated),
	}
	for _, stream := range p.VideoStreams() {
		s.streams[stream.ID()] = newStreamSubscriber(stream, s.key, ref, sess)
		sess.refs.Set(callID, s.key, stream)
	}
	sess.attached(KindParticipant)
	sess.logger.Debug().Str("call_id", callID).Str("participant", s.key).Msg("participant subscribed")
	return s
}

func (s *participantSubscriber) stateChanged() {
	s.ref.with(func(callID string) {
		s.sess.store.SetParticipantState(callID, s.key, s.participant.State(), copyReason(s.participant.CallEndReason()))
	})
}

func (s *participantSubscriber) isMutedChanged() {
	s.ref.with(func(callID string) {
		s.sess.store.SetParticipantIsMuted(callID, s.key, s.participant.IsMuted())
	})
}

func (s *participantSubscriber) displayNameChanged() {
	s.ref.with(func(callID string) {
		s.sess.store.SetParticipantDisplayName(callID, s.key, s.participant.DisplayName())
	})
}

func (s *participantSubscriber) isSpeakingChanged() {
	s.ref.with(func(callID string) {
		s.sess.store.SetParticipantIsSpeaking(callID, s.key, s.participant.IsSpeaking())
	})
}

// videoStreamsUpdated rebuilds every stream subscriber from the live
// participant instead of applying the added/removed delta.
func (s *participantSubscriber) videoStreamsUpdated(update sdk.CollectionUpdate[sdk.RemoteVideoStream]) {
	s.ref.with(func(callID string) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		for _, sub := range s.streams {
			sub.unsubscribe()
		}

		live := s.participant.VideoStreams()
		liveIDs := make(map[int]struct{}, len(live))
		for _, stream := range live {
			liveIDs[stream.ID()] = struct{}{}
		}
		gone := make([]int, 0, len(update.Removed))
		for id := range s.streams {
			if _, ok := liveIDs[id]; !ok {
				gone = append(gone, id)
			}
		}
		for _, stream := range update.Removed {
			if _, ok := liveIDs[stream.ID()]; !ok {
				gone = append(gone, stream.ID())
			}
		}

		s.streams = make(map[int]*streamSubscriber, len(live))
		for _, stream := range live {
			s.streams[stream.ID()] = newStreamSubscriber(stream, s.key, s.ref, s.sess)
		}
		s.mu.Unlock()

		for _, id := range gone {
			s.sess.refs.Remove(callID, id)
		}
		for _, stream := range live {
			s.sess.refs.Set(callID, s.key, stream)
		}
		s.sess.store.SetRemoteVideoStreams(callID, s.key, convertRemoteStreams(live))
	})
}

// unsubscribe removes every listener of the participant and its streams.
func (s *participantSubscriber) unsubscribe() {
	s.once.Do(func() {
		for _, off := range s.offs {
			off()
		}
		s.mu.Lock()
		s.closed = true
		for _, sub := range s.streams {
			sub.unsubscribe()
		}
		s.mu.Unlock()
		s.sess.detached(KindParticipant)
	})
}

// release unsubscribes and drops the participant's streams from the
// cross-reference table, disposing their renderers.
func (s *participantSubscriber) release(callID string) {
	s.unsubscribe()
	s.mu.Lock()
	ids := make([]int, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.sess.refs.Remove(callID, id)
	}
}
