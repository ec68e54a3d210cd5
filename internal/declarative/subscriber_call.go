package declarative

import (
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

// callSubscriber mirrors one call and owns the subscribers of its
// participants.
type callSubscriber struct {
	call sdk.Call
	ref  *callIDRef
	sess *session
	// onRekey moves the owner's bookkeeping from the old id to the new one.
	onRekey func(oldID, newID string)

	mu           sync.Mutex
	participants map[string]*participantSubscriber
	started      bool
	closed       bool
	offs         []sdk.Off
	once         sync.Once
}

func newCallSubscriber(call sdk.Call, sess *session, onRekey func(oldID, newID string)) *callSubscriber {
	return &callSubscriber{
		call:         call,
		ref:          newCallIDRef(call.ID(), sess.store.Hold),
		sess:         sess,
		onRekey:      onRekey,
		participants: map[string]*participantSubscriber{},
	}
}

// start registers the listeners and then attaches the participants the call
// already has. It does nothing after unsubscribe.
func (s *callSubscriber) start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.offs = []sdk.Off{
		s.call.OnStateChanged(s.stateChanged),
		s.call.OnIDChanged(s.idChanged),
		s.call.OnIsMutedChanged(s.isMutedChanged),
		s.call.OnIsScreenSharingOnChanged(s.isScreenSharingOnChanged),
		s.call.OnRemoteParticipantsUpdated(s.remoteParticipantsUpdated),
		s.call.OnLocalVideoStreamsUpdated(s.localVideoStreamsUpdated),
	}
	s.mu.Unlock()

	s.ref.with(func(callID string) {
		for _, p := range s.call.RemoteParticipants() {
			s.addParticipant(p, callID)
		}
		s.syncLocalStream(callID)
		s.sess.logger.Debug().Str("call_id", callID).Msg("call subscribed")
	})
	s.sess.attached(KindCall)
}

// upsert writes the live call into the store under the current id.
func (s *callSubscriber) upsert() {
	s.ref.with(func(callID string) {
		c := convertCall(s.call)
		c.ID = callID
		s.sess.store.UpsertCall(c)
	})
}

func (s *callSubscriber) stateChanged() {
	s.ref.with(func(callID string) {
		s.sess.store.SetCallState(callID, s.call.State())
	})
}

func (s *callSubscriber) isMutedChanged() {
	s.ref.with(func(callID string) {
		s.sess.store.SetCallIsMuted(callID, s.call.IsMuted())
	})
}

func (s *callSubscriber) isScreenSharingOnChanged() {
	s.ref.with(func(callID string) {
		s.sess.store.SetCallIsScreenSharingOn(callID, s.call.IsScreenSharingOn())
	})
}

// idChanged moves the owner's bookkeeping, the store and the cross-reference
// table to the new id in one step.
func (s *callSubscriber) idChanged() {
	newID := s.call.ID()
	s.ref.rekey(newID, func(oldID string) {
		if s.onRekey != nil {
			s.onRekey(oldID, newID)
		}
		s.sess.store.SetCallID(newID, oldID)
		s.sess.refs.RekeyCall(newID, oldID)
		s.sess.logger.Debug().Str("old_id", oldID).Str("call_id", newID).Msg("call id changed")
	})
}

func (s *callSubscriber) remoteParticipantsUpdated(update sdk.CollectionUpdate[sdk.RemoteParticipant]) {
	s.ref.with(func(callID string) {
		removedKeys := make([]string, 0, len(update.Removed))
		ended := make(map[string]state.RemoteParticipant, len(update.Removed))
		for _, p := range update.Removed {
			key := ParticipantKey(p.Identifier())
			s.removeParticipant(key, callID)
			removedKeys = append(removedKeys, key)
			ended[key] = convertParticipant(p)
		}

		added := make(map[string]state.RemoteParticipant, len(update.Added))
		var readded []string
		for _, p := range update.Added {
			key := s.addParticipant(p, callID)
			added[key] = convertParticipant(p)
			if _, ok := ended[key]; ok {
				readded = append(readded, key)
			}
		}

		s.sess.store.SetCallRemoteParticipants(callID, added, removedKeys)
		s.sess.store.SetCallRemoteParticipantsEnded(callID, ended, readded)
	})
}

// localVideoStreamsUpdated overwrites the whole local stream list from the
// live call. When the rendered stream object was replaced its renderer is
// gone, so the view is not carried over to the new stream.
func (s *callSubscriber) localVideoStreamsUpdated(sdk.CollectionUpdate[sdk.LocalVideoStream]) {
	s.ref.with(func(callID string) {
		streams := convertLocalStreams(s.call.LocalVideoStreams())
		if s.syncLocalStream(callID) {
			s.sess.store.ResetCallLocalVideoStreams(callID, streams)
			return
		}
		s.sess.store.SetCallLocalVideoStreams(callID, streams)
	})
}

// syncLocalStream tracks the first local stream; only one is rendered. It
// reports whether a renderer of the previous stream was disposed.
func (s *callSubscriber) syncLocalStream(callID string) bool {
	var local sdk.LocalVideoStream
	if streams := s.call.LocalVideoStreams(); len(streams) > 0 {
		local = streams[0]
	}
	return s.sess.refs.SetLocal(callID, local)
}

// addParticipant creates a subscriber unless the key is already tracked and
// returns the participant key.
func (s *callSubscriber) addParticipant(p sdk.RemoteParticipant, callID string) string {
	key := ParticipantKey(p.Identifier())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return key
	}
	if _, ok := s.participants[key]; ok {
		return key
	}
	s.participants[key] = newParticipantSubscriber(p, callID, s.ref, s.sess)
	return key
}

func (s *callSubscriber) removeParticipant(key, callID string) {
	s.mu.Lock()
	sub, ok := s.participants[key]
	delete(s.participants, key)
	s.mu.Unlock()
	if ok {
		sub.release(callID)
	}
}

// unsubscribe removes every listener of the call and its descendants. Safe
// to call more than once.
func (s *callSubscriber) unsubscribe() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		started := s.started
		offs := s.offs
		participants := s.participants
		s.participants = map[string]*participantSubscriber{}
		s.mu.Unlock()

		for _, off := range offs {
			off()
		}
		for _, sub := range participants {
			sub.unsubscribe()
		}
		if started {
			s.sess.detached(KindCall)
		}
		s.sess.logger.Debug().Str("call_id", s.ref.get()).Msg("call unsubscribed")
	})
}
