package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LockTable serializes all mutating operations on a single auction.
// Each auction gets its own lock, so operations on different auctions
// never block each other. Entries are dropped once nobody holds or
// waits on them, so the table does not grow with auction count.
type LockTable struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// NewLockTable creates an empty lock table
func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[uuid.UUID]*lockEntry)}
}

// Acquire blocks until the auction's lock is held or ctx is done.
// A caller cancelled while waiting leaves no trace: the lock is not
// taken and the entry's waiter count is rolled back.
func (t *LockTable) Acquire(ctx context.Context, id uuid.UUID) error {
	t.mu.Lock()
	entry, ok := t.locks[id]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		t.locks[id] = entry
	}
	entry.refs++
	t.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		t.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(t.locks, id)
		}
		t.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees the auction's lock. Must only be called by the holder.
func (t *LockTable) Release(id uuid.UUID) {
	t.mu.Lock()
	entry, ok := t.locks[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	<-entry.sem
	entry.refs--
	if entry.refs == 0 {
		delete(t.locks, id)
	}
	t.mu.Unlock()
}
