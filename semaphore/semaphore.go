/*
Package semaphore implements a bounded counting semaphore used to cap how
many archives the orchestrator downloads and processes concurrently.
*/
package semaphore

// Semaphore is a fixed-capacity gate: Acquire blocks until a permit is
// available, Release returns one. Unlike a sync.WaitGroup it has an upper
// bound, which is what bounding concurrent archive processing needs.
type Semaphore struct {
	permits chan struct{}
}

// New returns a Semaphore with capacity permits available immediately. A
// non-positive capacity panics, since a zero-capacity gate can never be
// acquired and is almost certainly a caller bug.
func New(capacity int) *Semaphore {
	if capacity <= 0 {
		panic("semaphore: capacity must be positive")
	}
	s := &Semaphore{permits: make(chan struct{}, capacity)}
	for i := 0; i < capacity; i++ {
		s.permits <- struct{}{}
	}
	return s
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire() {
	<-s.permits
}

// TryAcquire acquires a permit without blocking, reporting whether it
// succeeded.
func (s *Semaphore) TryAcquire() bool {
	select {
	case <-s.permits:
		return true
	default:
		return false
	}
}

// Release returns a permit to the semaphore. A Release without a matching
// Acquire blocks once the permit pool is full.
func (s *Semaphore) Release() {
	s.permits <- struct{}{}
}
