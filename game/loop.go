// Package game owns every piece of live state: connections, the matchmaking
// queue, rooms and tournaments. All of it is mutated from a single goroutine,
// the Loop; everything else (transport pumps, timers, scheduled jobs, async
// collaborators) hands work to the loop with Post.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultQueueSize = 1024

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop()
}

// Scheduler runs fn after d on the loop goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type Loop struct {
	tasks  chan func()
	done   chan struct{}
	logger *slog.Logger
}

func NewLoop(logger *slog.Logger) *Loop {
	return &Loop{
		tasks:  make(chan func(), defaultQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes posted tasks one at a time until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.logger.Info("Event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Event loop stopped")
			return nil
		case task := <-l.tasks:
			l.execute(task)
		}
	}
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Task panicked on event loop",
				slog.String("severity", "CRITICAL"),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	task()
}

// Post queues task for the loop. It returns false once the loop has stopped.
func (l *Loop) Post(task func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- task:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// AfterFunc implements Scheduler. A timer stopped before its task reaches the
// loop never runs.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			fn()
		})
	})
	return t
}

// loopTimer.stopped is only touched on the loop goroutine.
type loopTimer struct {
	timer   *time.Timer
	stopped bool
}

func (t *loopTimer) Stop() {
	t.stopped = true
	t.timer.Stop()
}

// delay keeps at most one outstanding timer for its owner.
type delay struct {
	scheduler Scheduler
	pending   Timer
}

func (d *delay) after(dur time.Duration, fn func()) error {
	if d.pending != nil {
		return ErrTimerBusy
	}
	d.pending = d.scheduler.AfterFunc(dur, func() {
		d.pending = nil
		fn()
	})
	return nil
}

func (d *delay) busy() bool {
	return d.pending != nil
}

func (d *delay) cancel() {
	if d.pending == nil {
		return
	}
	d.pending.Stop()
	d.pending = nil
}
