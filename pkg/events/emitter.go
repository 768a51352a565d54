package events

import "context"

// Emitter is the per-turn channel between a runner producing events and
// the SSE handler draining them. The runner owns the lifecycle: Emit
// during the turn, Close once the terminal done event has been sent.
type Emitter struct {
	ch chan Event
}

// NewEmitter returns an emitter with the given buffer size. A buffer of
// at least one keeps the runner from blocking on a slow client for every
// single token delta.
func NewEmitter(buffer int) *Emitter {
	if buffer < 1 {
		buffer = 1
	}
	return &Emitter{ch: make(chan Event, buffer)}
}

// Events returns the receive side for the consumer. The channel closes
// when the producer calls Close.
func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Emit delivers ev unless ctx is cancelled first. It reports false when
// the context won the race and the event was dropped.
func (e *Emitter) Emit(ctx context.Context, ev Event) bool {
	select {
	case e.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// TryEmit delivers ev only if buffer space is available right now. It is
// for terminal paths where the turn context may already be dead and
// blocking is not an option.
func (e *Emitter) TryEmit(ev Event) bool {
	select {
	case e.ch <- ev:
		return true
	default:
		return false
	}
}

// Close signals the consumer that no further events will arrive. Emit
// must not be called after Close.
func (e *Emitter) Close() {
	close(e.ch)
}
