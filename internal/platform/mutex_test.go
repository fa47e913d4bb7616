package platform

import (
	"testing"
	"time"
)

func TestCountingMutexExcludes(t *testing.T) {
	m := NewCountingMutex()
	m.Wait()

	acquired := make(chan struct{})
	go func() {
		m.Wait()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("a second Wait must block while the mutex is held")
	case <-time.After(20 * time.Millisecond):
	}

	m.Post()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Post must release the mutex to the waiting goroutine")
	}

	m.Post()
	m.Destroy()
}
