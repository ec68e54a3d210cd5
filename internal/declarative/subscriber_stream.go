package declarative

import (
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// streamSubscriber mirrors the availability of one remote video stream.
type streamSubscriber struct {
	stream         sdk.RemoteVideoStream
	participantKey string
	ref            *callIDRef
	sess           *session

	off  sdk.Off
	once sync.Once
}

func newStreamSubscriber(stream sdk.RemoteVideoStream, participantKey string, ref *callIDRef, sess *session) *streamSubscriber {
	s := &streamSubscriber{
		stream:         stream,
		participantKey: participantKey,
		ref:            ref,
		sess:           sess,
	}
	s.off = stream.OnIsAvailableChanged(s.isAvailableChanged)
	sess.attached(KindVideoStream)
	return s
}

func (s *streamSubscriber) isAvailableChanged() {
	s.ref.with(func(callID string) {
		s.sess.store.SetRemoteVideoStreamIsAvailable(callID, s.participantKey, s.stream.ID(), s.stream.IsAvailable())
	})
}

func (s *streamSubscriber) unsubscribe() {
	s.once.Do(func() {
		s.off()
		s.sess.detached(KindVideoStream)
	})
}
