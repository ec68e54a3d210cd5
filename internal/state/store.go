package state

import (
	"maps"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// MaxCallHistoryLength is the default cap of State.CallsEnded.
	MaxCallHistoryLength = 10
	// MaxIncomingCallHistoryLength is the default cap of State.IncomingCallsEnded.
	MaxIncomingCallHistoryLength = 10
)

// MutationObserver is told about every published mutation.
type MutationObserver interface {
	ObserveMutation(op string)
}

// Option configures a Store.
type Option func(*Store)

// WithMaxCallHistory caps the ended-call history. Values below 1 are ignored.
func WithMaxCallHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxCalls = n
		}
	}
}

// WithMaxIncomingCallHistory caps the ended incoming-call history.
func WithMaxIncomingCallHistory(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxIncoming = n
		}
	}
}

// WithClock replaces time.Now for start and end stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(observer MutationObserver) Option {
	return func(s *Store) {
		s.observer = observer
	}
}

// Store owns the current snapshot. Reads are lock-free and mutations are
// serialized. Every published snapshot is delivered to every listener once,
// in publication order, outside the mutation lock, so a listener may call
// back into the store. Unless a Hold is active, delivery completes before
// the outermost mutator returns; a mutation made from inside a listener is
// delivered after the current round.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[State]

	listenersMu sync.RWMutex
	listeners   map[int]func(State)
	nextID      int

	dispatchMu  sync.Mutex
	queue       []State
	holds       int
	dispatching bool

	maxCalls    int
	maxIncoming int
	now         func() time.Time
	logger      *zerolog.Logger
	observer    MutationObserver
}

// New creates a store holding an empty snapshot.
func New(opts ...Option) *Store {
	nop := zerolog.Nop()
	s := &Store{
		listeners:   map[int]func(State){},
		maxCalls:    MaxCallHistoryLength,
		maxIncoming: MaxIncomingCallHistoryLength,
		now:         time.Now,
		logger:      &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(emptyState())
	return s
}

// Snapshot returns the latest snapshot.
func (s *Store) Snapshot() State {
	return *s.current.Load()
}

// OnChange registers fn to receive every new snapshot. The returned function
// removes the listener and may be called more than once.
func (s *Store) OnChange(fn func(State)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// mutate applies fn to a shallow copy of the current snapshot. fn must copy
// any map or slice it changes and returns false when there is nothing to
// change, in which case nothing is published.
func (s *Store) mutate(op string, fn func(next *State) bool) {
	if s.apply(op, fn) {
		s.dispatch()
	}
}

func (s *Store) apply(op string, fn func(next *State) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.current.Load()
	if !fn(&next) {
		return false
	}
	s.current.Store(&next)

	s.logger.Trace().Str("op", op).Msg("state mutated")
	if s.observer != nil {
		s.observer.ObserveMutation(op)
	}

	s.dispatchMu.Lock()
	s.queue = append(s.queue, next)
	s.dispatchMu.Unlock()
	return true
}

// Hold postpones listener delivery until the returned release runs. Callers
// that mutate while holding their own locks take a hold first, so listeners
// never run under those locks. Holds nest; release is idempotent.
func (s *Store) Hold() (release func()) {
	s.dispatchMu.Lock()
	s.holds++
	s.dispatchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.dispatchMu.Lock()
			s.holds--
			s.dispatchMu.Unlock()
			s.dispatch()
		})
	}
}

// dispatch drains the queue unless delivery is held or already running
// further up some stack; in that case the running drain picks the new
// snapshots up.
func (s *Store) dispatch() {
	s.dispatchMu.Lock()
	if s.dispatching || s.holds > 0 {
		s.dispatchMu.Unlock()
		return
	}
	s.dispatching = true
	s.dispatchMu.Unlock()

	drained := false
	defer func() {
		if !drained {
			s.dispatchMu.Lock()
			s.dispatching = false
			s.dispatchMu.Unlock()
		}
	}()

	for {
		s.dispatchMu.Lock()
		if len(s.queue) == 0 {
			s.dispatching = false
			s.dispatchMu.Unlock()
			drained = true
			return
		}
		batch := s.queue
		s.queue = nil
		s.dispatchMu.Unlock()

		for _, snapshot := range batch {
			s.notify(snapshot)
		}
	}
}

func (s *Store) notify(snapshot State) {
	s.listenersMu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (s *Store) stamp() *time.Time {
	t := s.now()
	return &t
}

// ClearCallState drops every active and ended call and incoming call.
func (s *Store) ClearCallState() {
	s.mutate("ClearCallState", func(next *State) bool {
		if len(next.Calls) == 0 && len(next.CallsEnded) == 0 &&
			len(next.IncomingCalls) == 0 && len(next.IncomingCallsEnded) == 0 {
			return false
		}
		next.Calls = map[string]Call{}
		next.CallsEnded = nil
		next.IncomingCalls = map[string]IncomingCall{}
		next.IncomingCallsEnded = nil
		return true
	})
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	maps.Copy(out, m)
	return out
}

// appendCapped returns a new slice with v appended, keeping only the newest
// max entries.
func appendCapped[T any](list []T, v T, max int) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, v)
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}
