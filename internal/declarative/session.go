package declarative

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

// session is what every proxy and subscriber of one client shares.
type session struct {
	store    *state.Store
	refs     *crossRef
	logger   *zerolog.Logger
	observer Observer
	factory  sdk.RendererFactory
}

func newSession(o options) *session {
	s := &session{
		store:    o.store,
		logger:   o.logger,
		observer: o.observer,
		factory:  o.factory,
	}
	if s.logger == nil {
		nop := zerolog.Nop()
		s.logger = &nop
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.store == nil {
		var storeOpts []state.Option
		storeOpts = append(storeOpts, state.WithLogger(s.logger))
		if o.maxCallHistory > 0 {
			storeOpts = append(storeOpts, state.WithMaxCallHistory(o.maxCallHistory))
		}
		if mo, ok := o.observer.(state.MutationObserver); ok {
			storeOpts = append(storeOpts, state.WithObserver(mo))
		}
		s.store = state.New(storeOpts...)
	}
	s.refs = newCrossRef(s.disposeRenderer, s.store.Hold)
	return s
}

func (s *session) disposeRenderer(r sdk.VideoStreamRenderer) {
	r.Dispose()
	s.observer.RendererDisposed()
}

func (s *session) attached(kind string) {
	s.observer.SubscriberAttached(kind)
}

func (s *session) detached(kind string) {
	s.observer.SubscriberDetached(kind)
}
