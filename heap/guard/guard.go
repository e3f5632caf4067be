// Package guard serializes access to a heap through an optional mutex.
//
// A Guard with no mutex installed is a no-op, which is what early boot code
// and single-threaded tests use.
package guard

// Forever is the timeout that makes Lock wait until the mutex is acquired.
const Forever = -1

// Mutex is the lock collaborator consumed by the heap.
type Mutex interface {
	// Lock acquires the mutex, waiting at most timeoutMs milliseconds.
	// A negative timeout waits forever, zero only tries once. It reports
	// whether the mutex was acquired.
	Lock(timeoutMs int) bool

	// Unlock releases a mutex acquired by Lock.
	Unlock()
}

// Guard wraps an optional Mutex.
type Guard struct {
	mu Mutex
}

// New returns a guard over mu. A nil mu yields a no-op guard.
func New(mu Mutex) *Guard {
	return &Guard{mu: mu}
}

// Installed reports whether a mutex backs the guard.
func (g *Guard) Installed() bool {
	return g != nil && g.mu != nil
}

// Enter acquires the mutex, waiting forever. Pair it with a deferred Leave
// so the lock is dropped on every exit path including a fatal panic:
//
//	h.guard.Enter()
//	defer h.guard.Leave()
func (g *Guard) Enter() {
	if !g.Installed() {
		return
	}
	// Lock(Forever) only reports false for a broken collaborator; entering
	// unlocked would corrupt the heap.
	if !g.mu.Lock(Forever) {
		panic("guard: mutex refused an unbounded lock")
	}
}

// Leave releases the mutex taken by Enter.
func (g *Guard) Leave() {
	if !g.Installed() {
		return
	}
	g.mu.Unlock()
}
