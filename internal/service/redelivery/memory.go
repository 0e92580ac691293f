package redelivery

import (
	"context"
	"sync"

	"VolaPulse/internal/domain/repository"
)

// MemoryTracker counts redeliveries in process memory. Counts are lost on
// restart, which only means a poison message gets a fresh set of attempts.
type MemoryTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryTracker creates an in-memory redelivery tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{counts: make(map[string]int)}
}

// Incr increments and returns the attempt count for a message id.
func (t *MemoryTracker) Incr(_ context.Context, id string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[id]++
	return t.counts[id], nil
}

// Clear forgets a message id.
func (t *MemoryTracker) Clear(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, id)
	return nil
}

func (t *MemoryTracker) Close() error {
	return nil
}

var _ repository.RedeliveryTracker = (*MemoryTracker)(nil)
