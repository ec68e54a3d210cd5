// Package sdkfake is an in-memory implementation of the sdk interfaces.
//
// Every entity exposes exported triggers (SetState, AddRemoteParticipants,
// End, ...) that mutate the entity and fire the matching event synchronously
// on the calling goroutine, the way the real SDK fires events on its own
// thread. It backs the tests and the simulator.
package sdkfake

import (
	"sort"
	"sync"

	"github.com/vovakirdan/callstate/internal/sdk"
)

// emitter is a typed listener list. Handlers run in registration order.
type emitter[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[uint64]func(T)
}

func (e *emitter[T]) on(fn func(T)) sdk.Off {
	if fn == nil {
		return func() {}
	}

	e.mu.Lock()
	if e.handlers == nil {
		e.handlers = make(map[uint64]func(T))
	}
	e.nextID++
	id := e.nextID
	e.handlers[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.handlers, id)
		e.mu.Unlock()
	}
}

func (e *emitter[T]) emit(v T) {
	e.mu.Lock()
	ids := make([]uint64, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]func(T), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, e.handlers[id])
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(v)
	}
}

func (e *emitter[T]) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

// signal is an emitter for payload-less events.
type signal struct {
	emitter[struct{}]
}

func (s *signal) onSignal(fn func()) sdk.Off {
	if fn == nil {
		return func() {}
	}
	return s.on(func(struct{}) { fn() })
}

func (s *signal) fire() {
	s.emit(struct{}{})
}
