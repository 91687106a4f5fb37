package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned when posting to a loop that has stopped.
var ErrStopped = errors.New("event loop stopped")

// Loop runs posted events one at a time on a single goroutine.
//
// Thread-safety model:
//   - Post(), Do(), Stop(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Loop struct {
	queue  *eventQueue
	logger *slog.Logger

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a Loop. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		queue:  newEventQueue(),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Post submits fn for execution on the loop goroutine.
// Returns false if the loop has been stopped.
func (l *Loop) Post(kind EventKind, fn func()) bool {
	return l.queue.Enqueue(Event{Kind: kind, Fn: fn})
}

// Do runs fn on the loop goroutine and waits for it to finish.
// Use it to read loop-owned state consistently from another goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(EventInput, func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// Run may have executed fn just before returning.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue. Run executes the events already queued and then
// returns nil.
func (l *Loop) Stop() {
	l.queue.Close()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Pending returns the number of queued events.
func (l *Loop) Pending() int {
	return l.queue.Len()
}

// Run starts the event loop. It blocks until ctx is cancelled or Stop is
// called.
//
// A panicking event is logged and the loop continues with the next one.
func (l *Loop) Run(ctx context.Context) error {
	defer l.doneOnce.Do(func() { close(l.done) })

	for {
		if ev, ok := l.queue.TryDequeue(); ok {
			l.process(ev)
			continue
		}

		select {
		case <-ctx.Done():
			l.queue.Close()
			return ctx.Err()
		case _, ok := <-l.queue.Wait():
			if !ok {
				for {
					ev, more := l.queue.TryDequeue()
					if !more {
						return nil
					}
					l.process(ev)
				}
			}
		}
	}
}

func (l *Loop) process(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event panicked", "kind", ev.Kind.String(), "panic", r)
		}
	}()
	ev.Fn()
}
