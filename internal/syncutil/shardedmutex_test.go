package syncutil

import (
	"sync"
	"testing"
)

func TestShardedMutex_SerializesSameKey(t *testing.T) {
	var sm ShardedMutex
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := sm.Lock("operator-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100 (lost updates)", counter)
	}
}

func TestShardedMutex_UnlockReleases(t *testing.T) {
	var sm ShardedMutex
	unlock := sm.Lock("k")
	unlock()

	done := make(chan struct{})
	go func() {
		unlock := sm.Lock("k")
		unlock()
		close(done)
	}()
	<-done
}
