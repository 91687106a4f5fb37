package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/kin/internal/loop"
	"github.com/roach88/kin/internal/model"
)

// DefaultDelay is the quiet period between the last query change and the
// search it triggers.
const DefaultDelay = 300 * time.Millisecond

// Searcher performs the user search. Implemented by *api.Client.
type Searcher interface {
	SearchUsers(ctx context.Context, q string) ([]model.User, error)
}

// Companion runs alongside each fired search, e.g. a relationship refresh.
// It is called on its own goroutine with the debouncer's context and the
// epoch of the search it accompanies.
type Companion func(ctx context.Context, epoch int64, query string)

// State is the debouncer's observable output.
type State struct {
	// Query is the normalized current query.
	Query string

	// Epoch identifies the current query change.
	Epoch int64

	// Results are the users found for Query, or empty.
	Results []model.User

	// Err is the failure of the search for Query, if it failed. Results
	// are empty then.
	Err error

	// Loading is true while the search for Query is in flight.
	Loading bool

	// Pending is true while the debounce timer for Query is armed.
	Pending bool

	// Discarded counts responses dropped because a newer query superseded
	// them or the debouncer was closed.
	Discarded int
}

// Settled reports whether nothing is scheduled or in flight for Query.
func (s State) Settled() bool {
	return !s.Pending && !s.Loading
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(db *Debouncer) {
		db.delay = d
	}
}

// WithScheduler overrides the timer source (for testing).
func WithScheduler(s loop.Scheduler) Option {
	return func(db *Debouncer) {
		db.sched = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(db *Debouncer) {
		db.logger = l
	}
}

// WithOnChange registers a callback invoked on the loop goroutine whenever
// the state changes. The callback must not block.
func WithOnChange(fn func(State)) Option {
	return func(db *Debouncer) {
		db.onChange = fn
	}
}

// WithCompanion registers work to run in parallel with every fired search.
// When it returns for the current epoch, OnChange fires again so observers
// can re-render with whatever the companion refreshed.
func WithCompanion(c Companion) Option {
	return func(db *Debouncer) {
		db.companion = c
	}
}

// Debouncer coalesces query changes into delayed searches.
//
// Thread-safety: SetQuery, State and Close are safe from any goroutine.
// All state lives on the loop goroutine.
type Debouncer struct {
	loop      *loop.Loop
	searcher  Searcher
	sched     loop.Scheduler
	delay     time.Duration
	clock     *loop.Clock
	logger    *slog.Logger
	onChange  func(State)
	companion Companion

	ctx    context.Context
	cancel context.CancelFunc

	// Loop-owned.
	state  State
	timer  loop.Timer
	closed bool
}

// New creates a Debouncer on l. The loop must be running for SetQuery and
// State to return.
func New(l *loop.Loop, s Searcher, opts ...Option) *Debouncer {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Debouncer{
		loop:     l,
		searcher: s,
		sched:    loop.WallScheduler{},
		delay:    DefaultDelay,
		clock:    loop.NewClock(),
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetQuery records a query change and waits until the loop has applied it.
//
// An empty query (after Normalize) clears results at once and issues no
// network call. Any other query re-arms the debounce timer.
func (d *Debouncer) SetQuery(ctx context.Context, q string) error {
	return d.loop.Do(ctx, func() { d.setQuery(q) })
}

// State returns a copy of the current state.
func (d *Debouncer) State(ctx context.Context) (State, error) {
	var s State
	err := d.loop.Do(ctx, func() { s = d.snapshot() })
	return s, err
}

// Close cancels the pending timer and suppresses every later completion.
// In-flight requests see their context cancelled.
func (d *Debouncer) Close() {
	d.cancel()
	d.loop.Post(loop.EventInput, func() {
		d.closed = true
		d.stopTimer()
		d.state.Pending = false
		d.state.Loading = false
	})
}

func (d *Debouncer) setQuery(raw string) {
	if d.closed {
		return
	}

	q := Normalize(raw)
	epoch := d.clock.Next()
	d.stopTimer()

	d.state.Query = q
	d.state.Epoch = epoch
	d.state.Loading = false
	d.state.Err = nil

	if q == "" {
		d.state.Results = nil
		d.state.Pending = false
		d.notify()
		return
	}

	d.state.Pending = true
	d.timer = d.sched.AfterFunc(d.delay, func() {
		d.loop.Post(loop.EventTimer, func() { d.fire(epoch, q) })
	})
	d.notify()
}

func (d *Debouncer) fire(epoch int64, q string) {
	// A replaced timer may have posted before Stop took effect.
	if d.closed || epoch != d.state.Epoch {
		return
	}

	d.timer = nil
	d.state.Pending = false
	d.state.Loading = true
	d.notify()

	d.logger.Debug("search fired", "query", q, "epoch", epoch)

	ctx := d.ctx
	if d.companion != nil {
		go func() {
			d.companion(ctx, epoch, q)
			d.loop.Post(loop.EventCompletion, func() {
				if !d.closed && epoch == d.state.Epoch {
					d.notify()
				}
			})
		}()
	}
	go func() {
		users, err := d.searcher.SearchUsers(ctx, q)
		d.loop.Post(loop.EventCompletion, func() { d.complete(epoch, q, users, err) })
	}()
}

func (d *Debouncer) complete(epoch int64, q string, users []model.User, err error) {
	if d.closed || epoch != d.state.Epoch {
		d.state.Discarded++
		d.logger.Debug("discarding stale search response",
			"query", q, "epoch", epoch, "current_epoch", d.state.Epoch)
		return
	}

	d.state.Loading = false
	if err != nil {
		d.logger.Warn("search failed, showing no results", "query", q, "error", err)
		d.state.Results = nil
	} else {
		d.state.Results = users
	}
	d.state.Err = err
	d.notify()
}

func (d *Debouncer) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) snapshot() State {
	s := d.state
	s.Results = append([]model.User(nil), d.state.Results...)
	return s
}

func (d *Debouncer) notify() {
	if d.onChange != nil {
		d.onChange(d.snapshot())
	}
}
