package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock_StartsAtZero(t *testing.T) {
	clock := NewManualClock()
	assert.Equal(t, time.Duration(0), clock.Now())
	assert.Equal(t, 0, clock.Pending())
}

func TestManualClock_FiresAtDeadline(t *testing.T) {
	clock := NewManualClock()

	var firedAt []time.Duration
	clock.AfterFunc(300*time.Millisecond, func() { firedAt = append(firedAt, clock.Now()) })

	clock.Advance(299 * time.Millisecond)
	assert.Empty(t, firedAt)

	clock.Advance(time.Millisecond)
	require.Len(t, firedAt, 1)
	assert.Equal(t, 300*time.Millisecond, firedAt[0])
	assert.Equal(t, 0, clock.Pending())
}

func TestManualClock_FiresInDeadlineOrder(t *testing.T) {
	clock := NewManualClock()

	var order []string
	clock.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	clock.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	clock.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })
	clock.AfterFunc(20*time.Millisecond, func() { order = append(order, "b2") })

	clock.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "b2", "c"}, order)
	assert.Equal(t, time.Second, clock.Now())
}

func TestManualClock_Stop(t *testing.T) {
	clock := NewManualClock()

	fired := false
	timer := clock.AfterFunc(10*time.Millisecond, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports already stopped")

	clock.Advance(time.Second)
	assert.False(t, fired)
}

func TestManualClock_CallbackSchedulesTimer(t *testing.T) {
	clock := NewManualClock()

	var fired []time.Duration
	clock.AfterFunc(10*time.Millisecond, func() {
		clock.AfterFunc(10*time.Millisecond, func() { fired = append(fired, clock.Now()) })
	})

	clock.Advance(25 * time.Millisecond)
	assert.Equal(t, []time.Duration{20 * time.Millisecond}, fired)
}

func TestFixedRequestIDs(t *testing.T) {
	gen := NewFixedRequestIDs("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Equal(t, "req-3", gen.Generate())
}
