package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := NewLoop(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	return l, cancel
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l, _ := runLoop(t)
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}

	var n int
	require.NoError(t, l.Call(context.Background(), func() { n = len(got) }))
	assert.Equal(t, 50, n)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_SurvivesPanickingTask(t *testing.T) {
	l, _ := runLoop(t)
	l.Post(func() { panic("boom") })

	ran := false
	require.NoError(t, l.Call(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_AfterFuncRunsOnLoop(t *testing.T) {
	l, _ := runLoop(t)
	fired := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestLoop_StoppedTimerNeverRuns(t *testing.T) {
	l, _ := runLoop(t)
	fired := false
	require.NoError(t, l.Call(context.Background(), func() {
		timer := l.AfterFunc(10*time.Millisecond, func() { fired = true })
		timer.Stop()
	}))

	time.Sleep(50 * time.Millisecond)
	var got bool
	require.NoError(t, l.Call(context.Background(), func() { got = fired }))
	assert.False(t, got)
}

func TestLoop_PostAfterStop(t *testing.T) {
	l, cancel := runLoop(t)
	cancel()
	<-l.done

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrLoopStopped)
}

func TestLoop_CallHonoursContext(t *testing.T) {
	l := NewLoop(discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Nobody runs the loop, so the task stays queued.
	assert.ErrorIs(t, l.Call(ctx, func() {}), context.DeadlineExceeded)
}

func TestDelay_KeepsOneOutstandingTimer(t *testing.T) {
	sched := &fakeScheduler{}
	d := &delay{scheduler: sched}
	calls := 0

	require.NoError(t, d.after(time.Second, func() { calls++ }))
	assert.ErrorIs(t, d.after(time.Second, func() { calls++ }), ErrTimerBusy)
	assert.True(t, d.busy())

	sched.fire()
	assert.Equal(t, 1, calls)
	assert.False(t, d.busy())

	require.NoError(t, d.after(time.Second, func() { calls++ }))
	d.cancel()
	d.cancel()
	sched.fire()
	assert.Equal(t, 1, calls)
	assert.Zero(t, sched.pending())
}
