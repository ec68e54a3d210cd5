package declarative

import (
	"context"

	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

// startRenderVideo attaches a renderer view to a stream of a call. A stream
// the cross-reference table does not know, or one that already has a
// renderer, is left alone.
func (s *session) startRenderVideo(ctx context.Context, callID string, stream state.VideoStream, opts sdk.CreateViewOptions) error {
	if s.factory == nil {
		return ErrNoRendererFactory
	}

	var (
		res     reservation
		ok      bool
		publish func(view *state.VideoStreamRendererView) func(callID, participantKey string)
	)
	switch st := stream.(type) {
	case state.RemoteVideoStream:
		res, ok = s.refs.reserve(callID, st.ID)
		publish = func(view *state.VideoStreamRendererView) func(string, string) {
			return func(callID, key string) {
				s.store.SetRemoteVideoStreamRendererView(callID, key, st.ID, view)
			}
		}
	case state.LocalVideoStream:
		res, ok = s.refs.reserveLocal(callID)
		publish = func(view *state.VideoStreamRendererView) func(string, string) {
			return func(callID, _ string) {
				s.store.SetLocalVideoStreamRendererView(callID, view)
			}
		}
	}
	if !ok {
		return nil
	}

	renderer, err := s.factory.NewRenderer(res.stream)
	if err != nil {
		s.refs.release(res)
		return err
	}
	s.observer.RendererCreated()

	view, err := renderer.CreateView(ctx, opts)
	if err != nil {
		s.disposeRenderer(renderer)
		s.refs.release(res)
		return err
	}

	if !s.refs.attach(res, renderer, publish(convertView(view))) {
		s.logger.Warn().Str("call_id", callID).Msg("stream went away while its view was created")
		s.disposeRenderer(renderer)
	}
	return nil
}

// stopRenderVideo disposes the renderer of a stream and clears its view.
func (s *session) stopRenderVideo(callID string, stream state.VideoStream) {
	switch st := stream.(type) {
	case state.RemoteVideoStream:
		s.stopRemote(callID, st.ID)
	case state.LocalVideoStream:
		s.stopLocal(callID)
	}
}

func (s *session) stopRemote(callID string, streamID int) {
	s.refs.detach(callID, streamID, func(callID, key string) {
		s.store.SetRemoteVideoStreamRendererView(callID, key, streamID, nil)
	})
}

func (s *session) stopLocal(callID string) {
	s.refs.detachLocal(callID, func(callID, _ string) {
		s.store.SetLocalVideoStreamRendererView(callID, nil)
	})
}

// stopRenderVideoAll stops every renderer of a call.
func (s *session) stopRenderVideoAll(callID string) {
	for _, id := range s.refs.streamIDs(callID) {
		s.stopRemote(callID, id)
	}
	s.stopLocal(callID)
}

func (s *session) stopRenderVideoAllCalls() {
	for _, callID := range s.refs.callIDs() {
		s.stopRenderVideoAll(callID)
	}
}
