package declarative

import (
	"sort"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// crossRef maps snapshot identities back to live SDK handles: per call, the
// remote streams (with their owning participant) and the local stream, plus
// any renderer attached to them. It never leaves this package.
type crossRef struct {
	mu      sync.Mutex
	calls   map[string]*callRefs
	dispose func(sdk.VideoStreamRenderer)
	// hold postpones store listeners while publish runs under mu.
	hold func() func()
}

type callRefs struct {
	id      string
	streams map[int]*streamRef
	local   *streamRef
}

type streamRef struct {
	owner          *callRefs
	participantKey string
	streamID       int
	stream         sdk.MediaStream
	renderer       sdk.VideoStreamRenderer
	pending        bool
	// gen changes whenever a pending render must not attach anymore.
	gen int
}

// reservation is a claimed renderer slot of one stream.
type reservation struct {
	ref    *streamRef
	gen    int
	stream sdk.MediaStream
}

func newCrossRef(dispose func(sdk.VideoStreamRenderer), hold func() func()) *crossRef {
	return &crossRef{
		calls:   map[string]*callRefs{},
		dispose: dispose,
		hold:    hold,
	}
}

func (x *crossRef) held() func() {
	if x.hold == nil {
		return func() {}
	}
	return x.hold()
}

func (x *crossRef) call(callID string) *callRefs {
	c, ok := x.calls[callID]
	if !ok {
		c = &callRefs{id: callID, streams: map[int]*streamRef{}}
		x.calls[callID] = c
	}
	return c
}

// Set records a live remote stream. An existing entry for the same stream id
// keeps its renderer.
func (x *crossRef) Set(callID, participantKey string, stream sdk.RemoteVideoStream) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c := x.call(callID)
	if ref, ok := c.streams[stream.ID()]; ok {
		ref.stream = stream
		ref.participantKey = participantKey
		return
	}
	c.streams[stream.ID()] = &streamRef{
		owner:          c,
		participantKey: participantKey,
		streamID:       stream.ID(),
		stream:         stream,
	}
}

func (x *crossRef) Get(callID string, streamID int) (sdk.RemoteVideoStream, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	ref, ok := x.lookup(callID, streamID)
	if !ok {
		return nil, false
	}
	s, ok := ref.stream.(sdk.RemoteVideoStream)
	return s, ok
}

func (x *crossRef) OwningParticipantKey(callID string, streamID int) (string, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	ref, ok := x.lookup(callID, streamID)
	if !ok {
		return "", false
	}
	return ref.participantKey, true
}

// Renderer returns the renderer attached to a remote stream.
func (x *crossRef) Renderer(callID string, streamID int) (sdk.VideoStreamRenderer, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	ref, ok := x.lookup(callID, streamID)
	if !ok || ref.renderer == nil {
		return nil, false
	}
	return ref.renderer, true
}

// Remove drops a remote stream, disposing its renderer first.
func (x *crossRef) Remove(callID string, streamID int) {
	x.mu.Lock()
	var r sdk.VideoStreamRenderer
	if c, ok := x.calls[callID]; ok {
		if ref, ok := c.streams[streamID]; ok {
			r = ref.renderer
			ref.renderer = nil
			ref.gen++
			delete(c.streams, streamID)
		}
	}
	x.mu.Unlock()
	x.disposeAll(r)
}

// SetLocal records the live local stream of a call; nil drops it. Switching
// to another stream object disposes the renderer of the previous one, which
// is reported so the caller can clear its view.
func (x *crossRef) SetLocal(callID string, stream sdk.LocalVideoStream) (disposed bool) {
	x.mu.Lock()
	c := x.call(callID)
	var r sdk.VideoStreamRenderer
	if c.local != nil && (stream == nil || c.local.stream != sdk.MediaStream(stream)) {
		r = c.local.renderer
		c.local.renderer = nil
		c.local.gen++
		c.local = nil
	}
	if stream != nil && c.local == nil {
		c.local = &streamRef{owner: c, stream: stream}
	}
	x.mu.Unlock()
	x.disposeAll(r)
	return r != nil
}

// reserve claims the renderer slot of a remote stream. It fails when the
// stream is unknown or already has (or is getting) a renderer.
func (x *crossRef) reserve(callID string, streamID int) (reservation, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	ref, ok := x.lookup(callID, streamID)
	if !ok {
		return reservation{}, false
	}
	return claim(ref)
}

func (x *crossRef) reserveLocal(callID string) (reservation, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.calls[callID]
	if !ok || c.local == nil {
		return reservation{}, false
	}
	return claim(c.local)
}

func claim(ref *streamRef) (reservation, bool) {
	if ref.renderer != nil || ref.pending {
		return reservation{}, false
	}
	ref.pending = true
	return reservation{ref: ref, gen: ref.gen, stream: ref.stream}, true
}

// attach installs the renderer into a reserved slot and runs publish with the
// current call id and participant key while the table is locked. It returns
// false when the slot was released in the meantime; the caller then owns
// the renderer.
func (x *crossRef) attach(res reservation, r sdk.VideoStreamRenderer, publish func(callID, participantKey string)) bool {
	defer x.held()()
	x.mu.Lock()
	defer x.mu.Unlock()
	ref := res.ref
	if ref.gen != res.gen || !x.live(ref) {
		return false
	}
	ref.pending = false
	ref.renderer = r
	publish(ref.owner.id, ref.participantKey)
	return true
}

// release gives back a reserved slot after a failed render.
func (x *crossRef) release(res reservation) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if res.ref.gen == res.gen {
		res.ref.pending = false
	}
}

// detach removes the renderer of a remote stream, runs publish while locked,
// and disposes the renderer. A render still in flight is cancelled. It
// reports whether anything was attached or pending.
func (x *crossRef) detach(callID string, streamID int, publish func(callID, participantKey string)) bool {
	defer x.held()()
	x.mu.Lock()
	ref, ok := x.lookup(callID, streamID)
	if !ok {
		x.mu.Unlock()
		return false
	}
	r, had := x.detachLocked(ref, publish)
	x.mu.Unlock()
	x.disposeAll(r)
	return had
}

func (x *crossRef) detachLocal(callID string, publish func(callID, participantKey string)) bool {
	defer x.held()()
	x.mu.Lock()
	c, ok := x.calls[callID]
	if !ok || c.local == nil {
		x.mu.Unlock()
		return false
	}
	r, had := x.detachLocked(c.local, publish)
	x.mu.Unlock()
	x.disposeAll(r)
	return had
}

func (x *crossRef) detachLocked(ref *streamRef, publish func(callID, participantKey string)) (sdk.VideoStreamRenderer, bool) {
	if ref.renderer == nil && !ref.pending {
		return nil, false
	}
	r := ref.renderer
	ref.renderer = nil
	ref.pending = false
	ref.gen++
	if r != nil {
		publish(ref.owner.id, ref.participantKey)
	}
	return r, true
}

// streamIDs lists the remote streams of a call in ascending order.
func (x *crossRef) streamIDs(callID string) []int {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.calls[callID]
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(c.streams))
	for id := range c.streams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (x *crossRef) callIDs() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	ids := make([]string, 0, len(x.calls))
	for id := range x.calls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RekeyCall moves every entry of oldID to newID.
func (x *crossRef) RekeyCall(newID, oldID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.calls[oldID]
	if !ok || newID == oldID {
		return
	}
	delete(x.calls, oldID)
	c.id = newID
	x.calls[newID] = c
}

// RemoveCall drops every entry of a call, disposing attached renderers.
func (x *crossRef) RemoveCall(callID string) {
	x.mu.Lock()
	c, ok := x.calls[callID]
	var renderers []sdk.VideoStreamRenderer
	if ok {
		delete(x.calls, callID)
		renderers = c.drop()
	}
	x.mu.Unlock()
	x.disposeAll(renderers...)
}

// ClearAll drops everything, disposing attached renderers.
func (x *crossRef) ClearAll() {
	x.mu.Lock()
	var renderers []sdk.VideoStreamRenderer
	for _, c := range x.calls {
		renderers = append(renderers, c.drop()...)
	}
	x.calls = map[string]*callRefs{}
	x.mu.Unlock()
	x.disposeAll(renderers...)
}

func (c *callRefs) drop() []sdk.VideoStreamRenderer {
	var out []sdk.VideoStreamRenderer
	refs := make([]*streamRef, 0, len(c.streams)+1)
	for _, ref := range c.streams {
		refs = append(refs, ref)
	}
	if c.local != nil {
		refs = append(refs, c.local)
	}
	for _, ref := range refs {
		if ref.renderer != nil {
			out = append(out, ref.renderer)
			ref.renderer = nil
		}
		ref.gen++
	}
	c.streams = map[int]*streamRef{}
	c.local = nil
	return out
}

func (x *crossRef) lookup(callID string, streamID int) (*streamRef, bool) {
	c, ok := x.calls[callID]
	if !ok {
		return nil, false
	}
	ref, ok := c.streams[streamID]
	return ref, ok
}

// live reports whether ref is still the registered entry for its stream.
func (x *crossRef) live(ref *streamRef) bool {
	c, ok := x.calls[ref.owner.id]
	if !ok || c != ref.owner {
		return false
	}
	if c.local == ref {
		return true
	}
	return c.streams[ref.streamID] == ref
}

func (x *crossRef) disposeAll(renderers ...sdk.VideoStreamRenderer) {
	for _, r := range renderers {
		if r != nil {
			x.dispose(r)
		}
	}
}
