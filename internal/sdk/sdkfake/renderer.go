package sdkfake

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// RendererFactory is a fake sdk.RendererFactory that counts what it creates.
type RendererFactory struct {
	mu        sync.Mutex
	renderers []*Renderer
	viewErr   error
	gate      chan struct{}
}

// NewRendererFactory creates a factory.
func NewRendererFactory() *RendererFactory {
	return &RendererFactory{}
}

// NewRenderer creates a renderer for stream.
func (f *RendererFactory) NewRenderer(stream sdk.MediaStream) (sdk.VideoStreamRenderer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &Renderer{stream: stream, viewErr: f.viewErr, gate: f.gate}
	f.renderers = append(f.renderers, r)
	return r, nil
}

// SetViewError makes views of renderers created afterwards fail with err.
func (f *RendererFactory) SetViewError(err error) {
	f.mu.Lock()
	f.viewErr = err
	f.mu.Unlock()
}

// Hold makes CreateView on renderers created afterwards block until Release.
func (f *RendererFactory) Hold() {
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()
}

// Release unblocks views held by Hold.
func (f *RendererFactory) Release() {
	f.mu.Lock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
	f.mu.Unlock()
}

// Created returns the number of renderers created.
func (f *RendererFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.renderers)
}

// Disposed returns the number of renderers disposed.
func (f *RendererFactory) Disposed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.renderers {
		if r.IsDisposed() {
			n++
		}
	}
	return n
}

// Renderer is a fake sdk.VideoStreamRenderer.
type Renderer struct {
	stream   sdk.MediaStream
	viewErr  error
	gate     chan struct{}
	disposed atomic.Bool
}

// CreateView returns a view whose target is the stream itself.
func (r *Renderer) CreateView(ctx context.Context, opts sdk.CreateViewOptions) (sdk.VideoStreamRendererView, error) {
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.viewErr != nil {
		return nil, r.viewErr
	}
	mode := opts.ScalingMode
	if mode == "" {
		mode = sdk.ScalingModeStretch
	}
	return &View{target: r.stream, mirrored: opts.IsMirrored, mode: mode}, nil
}

// Dispose disposes the renderer.
func (r *Renderer) Dispose() { r.disposed.Store(true) }

// IsDisposed reports whether Dispose was called.
func (r *Renderer) IsDisposed() bool { return r.disposed.Load() }

// View is a fake sdk.VideoStreamRendererView.
type View struct {
	mu       sync.RWMutex
	target   any
	mirrored bool
	mode     sdk.ScalingMode
}

func (v *View) IsMirrored() bool { return v.mirrored }

func (v *View) ScalingMode() sdk.ScalingMode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

func (v *View) Target() any { return v.target }

func (v *View) UpdateScalingMode(_ context.Context, mode sdk.ScalingMode) error {
	v.mu.Lock()
	v.mode = mode
	v.mu.Unlock()
	return nil
}

func (v *View) Dispose() {}

var (
	_ sdk.RendererFactory         = (*RendererFactory)(nil)
	_ sdk.VideoStreamRenderer     = (*Renderer)(nil)
	_ sdk.VideoStreamRendererView = (*View)(nil)
)
