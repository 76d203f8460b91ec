package visualize

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestTask_StopWaitsForRun(t *testing.T) {
	mt := newManualTicker()
	task := NewTask(time.Millisecond, mt.ticker)

	var runs atomic.Int32
	release := make(chan struct{})
	if err := task.Start(context.Background(), func(ctx context.Context) bool {
		runs.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return true
	}); err != nil {
		t.Fatal(err)
	}
	mt.tick(t)

	stopped := make(chan struct{})
	go func() {
		task.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cancelling the running fn")
	}
	close(release)

	if task.Running() {
		t.Error("task still running after Stop")
	}
	if !mt.stopped.Load() {
		t.Error("ticker not released")
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
}

func TestTask_RestartAfterFnEnds(t *testing.T) {
	mt := newManualTicker()
	task := NewTask(time.Millisecond, mt.ticker)
	if task.Done() != nil || task.Running() {
		t.Fatal("fresh task should be unscheduled")
	}
	task.Stop() // no-op

	once := func(context.Context) bool { return false }
	if err := task.Start(context.Background(), once); err != nil {
		t.Fatal(err)
	}
	if err := task.Start(context.Background(), once); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start = %v, want ErrRunning", err)
	}
	mt.tick(t)
	<-task.Done()

	if err := task.Start(context.Background(), once); err != nil {
		t.Errorf("Start after fn ended = %v, want nil", err)
	}
	task.Stop()
}

func TestTask_ContextCancel(t *testing.T) {
	mt := newManualTicker()
	task := NewTask(time.Millisecond, mt.ticker)
	ctx, cancel := context.WithCancel(context.Background())
	if err := task.Start(ctx, func(context.Context) bool { return true }); err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not end with its context")
	}
}
