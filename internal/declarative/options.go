package declarative

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/callstate/internal/sdk"
	"github.com/vovakirdan/callstate/internal/state"
)

// Subscriber kinds reported to an Observer.
const (
	KindCall         = "call"
	KindParticipant  = "participant"
	KindVideoStream  = "video_stream"
	KindIncomingCall = "incoming_call"
)

// Observer receives lifecycle events of subscribers and renderers.
type Observer interface {
	SubscriberAttached(kind string)
	SubscriberDetached(kind string)
	RendererCreated()
	RendererDisposed()
}

type nopObserver struct{}

func (nopObserver) SubscriberAttached(string) {}
func (nopObserver) SubscriberDetached(string) {}
func (nopObserver) RendererCreated()          {}
func (nopObserver) RendererDisposed()         {}

// Option configures a CallClient.
type Option func(*options)

type options struct {
	store          *state.Store
	logger         *zerolog.Logger
	observer       Observer
	factory        sdk.RendererFactory
	maxCallHistory int
}

// WithStore uses an existing store instead of creating one.
func WithStore(store *state.Store) Option {
	return func(o *options) { o.store = store }
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics reports subscriber and renderer lifecycles to observer. If
// observer also implements state.MutationObserver and the client creates its
// own store, store mutations are reported too.
func WithMetrics(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

// WithRendererFactory sets how renderers are created for StartRenderVideo.
func WithRendererFactory(factory sdk.RendererFactory) Option {
	return func(o *options) { o.factory = factory }
}

// WithMaxCallHistory caps the ended-call history of the store the client
// creates. It has no effect together with WithStore.
func WithMaxCallHistory(n int) Option {
	return func(o *options) { o.maxCallHistory = n }
}
