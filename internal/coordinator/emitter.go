package coordinator

import "sync"

// subscriberBuffer sizes the channel handed to each subscriber. Emissions to
// a full subscriber are dropped rather than blocking the state machine.
const subscriberBuffer = 128

// emitter fans immutable state snapshots out to subscribers in emission
// order. It backs all three coordinators.
type emitter[S any] struct {
	mu     sync.Mutex
	subs   []chan S
	closed bool
}

// subscribe registers a new listener. The returned channel is closed when
// the owning coordinator shuts down.
func (e *emitter[S]) subscribe() <-chan S {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan S, subscriberBuffer)
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// emit delivers s to every subscriber without blocking.
func (e *emitter[S]) emit(s S) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// close shuts every subscriber channel. Further emits are no-ops.
func (e *emitter[S]) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}
