package orderlock

import (
	"sync"
	"testing"
)

func TestRegistrySerializesPerOrder(t *testing.T) {
	r := NewRegistry()
	var counter int

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Lock(42)
			counter++
			r.Unlock(42)
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter=%d want=50", counter)
	}
}

func TestRegistryIndependentOrders(t *testing.T) {
	r := NewRegistry()

	r.Lock(1)
	done := make(chan struct{})
	go func() {
		// A different order must not block behind order 1.
		r.Lock(2)
		r.Unlock(2)
		close(done)
	}()
	<-done
	r.Unlock(1)
}

func TestRegistryCleansUpEntries(t *testing.T) {
	r := NewRegistry()
	r.Lock(7)
	r.Unlock(7)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.locks) != 0 {
		t.Fatalf("expected empty registry, have %d entries", len(r.locks))
	}
}
