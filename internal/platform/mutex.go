package platform

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// CountingMutex is a binary counting mutex: wait/post/destroy semantics
// built on a weighted semaphore of weight 1, used for both the per-database
// mutex and the per-session write-set mutex (spec §4.A, §5).
type CountingMutex struct {
	sem *semaphore.Weighted
}

// NewCountingMutex constructs an unheld counting mutex.
func NewCountingMutex() *CountingMutex {
	return &CountingMutex{sem: semaphore.NewWeighted(1)}
}

// Wait blocks until the mutex is acquired.
func (m *CountingMutex) Wait() {
	_ = m.sem.Acquire(context.Background(), 1)
}

// Post releases the mutex.
func (m *CountingMutex) Post() {
	m.sem.Release(1)
}

// Destroy releases any platform resources backing the mutex. A weighted
// semaphore owns no OS handle, so this is a deliberate no-op kept for
// parity with the wait/post/destroy triple spec §4.A names.
func (m *CountingMutex) Destroy() {}
