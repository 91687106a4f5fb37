package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/kin/internal/loop"
)

// ManualClock is a loop.Scheduler whose time only moves when a test calls
// Advance. Timer callbacks run synchronously inside Advance, in deadline
// order, so debounce tests are exact and never sleep.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
// Callbacks run without the mutex held.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	clock    *ManualClock
	id       int
	deadline time.Duration
	fn       func()
}

var _ loop.Scheduler = (*ManualClock)(nil)

// NewManualClock creates a clock at t=0.
func NewManualClock() *ManualClock {
	return &ManualClock{timers: make(map[int]*manualTimer)}
}

// Now returns the elapsed virtual time.
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once virtual time reaches Now()+d.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) loop.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &manualTimer{clock: c, id: c.nextID, deadline: c.now + d, fn: f}
	c.timers[t.id] = t
	return t
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves virtual time forward by d, firing due timers in deadline
// order (ties in scheduling order).
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.dueLocked(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		delete(c.timers, due.id)
		c.now = due.deadline
		c.mu.Unlock()

		due.fn()
	}
}

func (c *ManualClock) dueLocked(target time.Duration) *manualTimer {
	var candidates []*manualTimer
	for _, t := range c.timers {
		if t.deadline <= target {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].deadline != candidates[j].deadline {
			return candidates[i].deadline < candidates[j].deadline
		}
		return candidates[i].id < candidates[j].id
	})
	return candidates[0]
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}
