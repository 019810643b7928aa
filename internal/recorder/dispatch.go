package recorder

import (
	"sync"

	"github.com/rs/zerolog"
)

// dispatcher runs lifecycle callbacks on a single worker goroutine so
// caller-supplied code never blocks the capture loop or a state
// transition. The queue is unbounded; tasks run in submission order.
type dispatcher struct {
	log zerolog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func newDispatcher(log zerolog.Logger) *dispatcher {
	d := &dispatcher{
		log:  log,
		done: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

func (d *dispatcher) submit(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn().Msg("Callback dropped, dispatcher closed")
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	d.cond.Signal()
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.call(fn)
	}
}

// call isolates callback panics so they cannot take down the worker.
func (d *dispatcher) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Msg("Callback panicked")
		}
	}()
	fn()
}

// close drains pending tasks and stops the worker.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.cond.Signal()
	<-d.done
}
