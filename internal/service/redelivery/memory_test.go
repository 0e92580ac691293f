package redelivery

import (
	"context"
	"sync"
	"testing"
)

func TestMemoryTrackerCounts(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		n, err := tr.Incr(ctx, "m1")
		if err != nil {
			t.Fatalf("incr: %v", err)
		}
		if n != want {
			t.Fatalf("count = %d, want %d", n, want)
		}
	}

	// Independent ids do not share counts.
	if n, _ := tr.Incr(ctx, "m2"); n != 1 {
		t.Fatalf("fresh id count = %d, want 1", n)
	}
}

func TestMemoryTrackerClear(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	tr.Incr(ctx, "m1")
	tr.Incr(ctx, "m1")
	if err := tr.Clear(ctx, "m1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, _ := tr.Incr(ctx, "m1"); n != 1 {
		t.Fatalf("count after clear = %d, want 1", n)
	}
}

func TestMemoryTrackerConcurrent(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Incr(ctx, "shared")
		}()
	}
	wg.Wait()

	if n, _ := tr.Incr(ctx, "shared"); n != 51 {
		t.Fatalf("count = %d, want 51", n)
	}
}
