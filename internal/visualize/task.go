package visualize

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunning is returned by [Task.Start] and [Loop.Start] when the task is
// already scheduled.
var ErrRunning = errors.New("visualize: already running")

// Ticker produces the cadence a [Task] runs at. stop releases the ticker.
type Ticker func(interval time.Duration) (ticks <-chan time.Time, stop func())

// TimeTicker is the default [Ticker], backed by [time.NewTicker].
func TimeTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Task is a cancellable repeating task: fn runs once per tick on a single
// goroutine until it returns false, ctx is cancelled, or Stop is called.
// Ticks that arrive while fn is still running are dropped by the ticker, so
// fn never runs concurrently with itself.
type Task struct {
	interval time.Duration
	ticker   Ticker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTask creates an unscheduled Task. A nil ticker means [TimeTicker].
func NewTask(interval time.Duration, ticker Ticker) *Task {
	if ticker == nil {
		ticker = TimeTicker
	}
	return &Task{interval: interval, ticker: ticker}
}

// Start schedules fn. It returns [ErrRunning] if the task is already
// scheduled; a task whose fn returned false may be started again.
func (t *Task) Start(ctx context.Context, fn func(context.Context) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		select {
		case <-t.done:
		default:
			return ErrRunning
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticks, stopTicker := t.ticker(t.interval)
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		defer stopTicker()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				if !fn(ctx) {
					return
				}
			}
		}
	}()
	return nil
}

// Stop cancels any pending tick and blocks until the task goroutine has
// exited. After Stop returns fn is not running and will not run again.
// Stop on an unscheduled task is a no-op.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the task is currently scheduled.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the current run ends, or nil if the
// task was never started.
func (t *Task) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
