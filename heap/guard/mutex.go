package guard

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// TimedMutex is a non-reentrant mutex whose Lock accepts a timeout.
// The zero value is not usable; create one with NewMutex.
type TimedMutex struct {
	sem *semaphore.Weighted
}

// NewMutex returns an unlocked TimedMutex.
func NewMutex() *TimedMutex {
	return &TimedMutex{sem: semaphore.NewWeighted(1)}
}

// Lock implements Mutex.
func (m *TimedMutex) Lock(timeoutMs int) bool {
	switch {
	case timeoutMs < 0:
		return m.sem.Acquire(context.Background(), 1) == nil
	case timeoutMs == 0:
		return m.sem.TryAcquire(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()
	return m.sem.Acquire(ctx, 1) == nil
}

// Unlock implements Mutex. Unlocking an unlocked mutex panics.
func (m *TimedMutex) Unlock() {
	m.sem.Release(1)
}
