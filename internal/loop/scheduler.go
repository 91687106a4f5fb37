package loop

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// Scheduler creates timers. Production code uses WallScheduler; tests use
// testutil.ManualClock to control time exactly.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// WallScheduler schedules callbacks on the real clock.
type WallScheduler struct{}

// AfterFunc wraps time.AfterFunc.
func (WallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
