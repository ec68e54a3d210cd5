package declarative

import "sync"

// callIDRef is the current id of one call, shared by the call subscriber and
// every subscriber below it. Mutations keyed by the call id run under the
// read lock; a rename holds the write lock while everything keyed by the old
// id is moved, so no mutation can target a stale id. Store listeners are
// held off until the lock is released.
type callIDRef struct {
	mu   sync.RWMutex
	id   string
	hold func() func()
}

func newCallIDRef(id string, hold func() func()) *callIDRef {
	return &callIDRef{id: id, hold: hold}
}

func (r *callIDRef) held() func() {
	if r.hold == nil {
		return func() {}
	}
	return r.hold()
}

func (r *callIDRef) get() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.id
}

// with runs fn with the current id. fn must not call with or rekey.
func (r *callIDRef) with(fn func(id string)) {
	defer r.held()()
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.id)
}

// rekey switches to newID and runs move with the old id before any reader
// can observe the new one.
func (r *callIDRef) rekey(newID string, move func(oldID string)) {
	defer r.held()()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.id == newID {
		return
	}
	oldID := r.id
	r.id = newID
	move(oldID)
}
