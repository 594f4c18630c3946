// Package orderlock serializes mutations per order. Every read-modify-write
// touching an order's status, plan or cancellation window must run under the
// order's lock; reads stay lock-free.
package orderlock

import "sync"

type Registry struct {
	mu    sync.Mutex
	locks map[uint64]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[uint64]*entry)}
}

// Lock acquires the exclusive lock for orderID, blocking until available.
func (r *Registry) Lock(orderID uint64) {
	r.mu.Lock()
	e, ok := r.locks[orderID]
	if !ok {
		e = &entry{}
		r.locks[orderID] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for orderID and drops the bookkeeping entry once
// nobody is waiting on it.
func (r *Registry) Unlock(orderID uint64) {
	r.mu.Lock()
	e, ok := r.locks[orderID]
	if ok {
		e.refs--
		if e.refs == 0 {
			delete(r.locks, orderID)
		}
	}
	r.mu.Unlock()

	if ok {
		e.mu.Unlock()
	}
}
