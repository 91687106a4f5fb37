package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = l.Run(ctx)
	}()
	t.Cleanup(cancel)
	return l, cancel
}

func TestLoop_RunsEventsInFIFOOrder(t *testing.T) {
	l, _ := startLoop(t)

	var got []int
	for i := 1; i <= 5; i++ {
		i := i
		require.True(t, l.Post(EventInput, func() { got = append(got, i) }))
	}

	// Do is queued behind the posts, so it observes all of them.
	var snapshot []int
	require.NoError(t, l.Do(context.Background(), func() {
		snapshot = append([]int(nil), got...)
	}))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, snapshot)
}

func TestLoop_SingleWriter(t *testing.T) {
	l, _ := startLoop(t)

	// counter is only touched on the loop goroutine; the race detector
	// would flag any concurrent access.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Post(EventCompletion, func() { counter++ })
		}()
	}
	wg.Wait()

	var final int
	require.NoError(t, l.Do(context.Background(), func() { final = counter }))
	assert.Equal(t, 50, final)
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	l, _ := startLoop(t)

	l.Post(EventTimer, func() { panic("boom") })

	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_StopDrainsQueuedEvents(t *testing.T) {
	l := New(nil)

	ran := 0
	l.Post(EventInput, func() { ran++ })
	l.Post(EventInput, func() { ran++ })
	l.Stop()

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, 2, ran)
	assert.False(t, l.Post(EventInput, func() {}), "post after stop should fail")

	select {
	case <-l.Done():
	default:
		t.Fatal("Done should be closed after Run returns")
	}
}

func TestLoop_DoAfterStop(t *testing.T) {
	l := New(nil)
	l.Stop()
	err := l.Do(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestLoop_DoRespectsContext(t *testing.T) {
	l := New(nil) // never run
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoop_RunReturnsOnCancel(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "input", EventInput.String())
	assert.Equal(t, "timer", EventTimer.String())
	assert.Equal(t, "completion", EventCompletion.String())
	assert.Equal(t, "unknown", EventKind(0).String())
}

func TestWallScheduler_Fires(t *testing.T) {
	fired := make(chan struct{})
	WallScheduler{}.AfterFunc(time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestWallScheduler_Stop(t *testing.T) {
	timer := WallScheduler{}.AfterFunc(time.Hour, func() {})
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
}
