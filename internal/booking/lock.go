package booking

import "sync"

// courtLocks serializes slot claims per court. The claim's check-then-insert
// must not interleave with another claim on the same court; claims on
// different courts stay concurrent.
type courtLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newCourtLocks() *courtLocks {
	return &courtLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the mutex for a court, creating it on first use. The
// returned function releases it.
func (c *courtLocks) Lock(courtID int64) func() {
	c.mu.Lock()
	lock, ok := c.locks[courtID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[courtID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
