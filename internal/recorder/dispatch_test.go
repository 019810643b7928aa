package recorder

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestDispatcherRunsTasksInOrder(t *testing.T) {
	d := newDispatcher(zerolog.Nop())

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		d.submit(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	d.close()

	if len(got) != 50 {
		t.Fatalf("expected 50 tasks to run, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran out of order: got %d", i, v)
		}
	}
}

func TestDispatcherSurvivesPanic(t *testing.T) {
	d := newDispatcher(zerolog.Nop())

	ran := false
	d.submit(func() { panic("boom") })
	d.submit(func() { ran = true })
	d.close()

	if !ran {
		t.Fatal("task after a panicking task never ran")
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	d := newDispatcher(zerolog.Nop())

	var mu sync.Mutex
	count := 0
	for i := 0; i < 20; i++ {
		d.submit(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}
	d.close()

	if count != 20 {
		t.Fatalf("close must drain pending tasks: ran %d of 20", count)
	}

	// Submissions after close are dropped, not deadlocked.
	d.submit(func() { t.Error("task ran after close") })
}
