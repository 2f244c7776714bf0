package walker

import "context"

// limiter is a counting semaphore bounding simultaneously in-flight file
// operations.
type limiter struct {
	permits chan struct{}
}

func newLimiter(n int) *limiter {
	l := &limiter{permits: make(chan struct{}, n)}
	for i := 0; i < n; i++ {
		l.permits <- struct{}{}
	}
	return l
}

// acquire takes a permit, blocking until one is free or ctx is done.
func (l *limiter) acquire(ctx context.Context) error {
	select {
	case <-l.permits:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release returns a permit. Safe against spurious extra calls.
func (l *limiter) release() {
	select {
	case l.permits <- struct{}{}:
	default:
	}
}
