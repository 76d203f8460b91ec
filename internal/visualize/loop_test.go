package visualize

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// manualTicker hands out a channel the test drives directly.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) ticker(time.Duration) (<-chan time.Time, func()) {
	return m.ch, func() { m.stopped.Store(true) }
}

// tick delivers one tick, failing if the loop does not accept it in time.
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not accept tick")
	}
}

type fakeSource struct {
	mu     sync.Mutex
	level  uint8
	closed bool
	reads  int
}

func (s *fakeSource) FrequencyBinCount() int { return 256 }
func (s *fakeSource) SampleRate() int        { return 48000 }

func (s *fakeSource) ByteFrequencyData(dst []uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.closed {
		return false
	}
	for i := range dst {
		dst[i] = s.level
	}
	return true
}

func (s *fakeSource) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

type recordingSink struct {
	frames chan []float64
	err    error
}

func (r *recordingSink) PushBars(_ context.Context, bars []float64) error {
	r.frames <- bars
	return r.err
}

func newLoopFixture(t *testing.T, sinkErr error) (*Loop, *fakeSource, *recordingSink, *manualTicker) {
	t.Helper()
	src := &fakeSource{level: 255}
	sink := &recordingSink{frames: make(chan []float64, 16), err: sinkErr}
	mt := newManualTicker()
	l := NewLoop(src, sink, Config{BarCount: 12, Ticker: mt.ticker})
	t.Cleanup(l.Stop)
	return l, src, sink, mt
}

func TestLoop_PushesBarsEveryTick(t *testing.T) {
	l, _, sink, mt := newLoopFixture(t, nil)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for range 3 {
		mt.tick(t)
		select {
		case bars := <-sink.frames:
			if len(bars) != 12 {
				t.Fatalf("len(bars) = %d, want 12", len(bars))
			}
			if bars[0] != 100 {
				t.Errorf("bars[0] = %v, want 100 for full-scale input", bars[0])
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no bars pushed")
		}
	}
}

func TestLoop_NotReentrant(t *testing.T) {
	l, _, _, _ := newLoopFixture(t, nil)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start error = %v, want ErrRunning", err)
	}
}

func TestLoop_StopHaltsSynchronously(t *testing.T) {
	l, src, _, mt := newLoopFixture(t, nil)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mt.tick(t)
	l.Stop()

	if l.Running() {
		t.Error("Running() = true after Stop")
	}
	if !mt.stopped.Load() {
		t.Error("ticker not released after Stop")
	}
	src.mu.Lock()
	reads := src.reads
	src.mu.Unlock()

	select {
	case mt.ch <- time.Now():
		t.Fatal("tick accepted after Stop")
	case <-time.After(20 * time.Millisecond):
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.reads != reads {
		t.Errorf("source read %d times after Stop", src.reads-reads)
	}
}

func TestLoop_EndsWhenSourceCloses(t *testing.T) {
	l, src, sink, mt := newLoopFixture(t, nil)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	src.close()
	mt.tick(t)

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not end after source closed")
	}
	if len(sink.frames) != 0 {
		t.Errorf("pushed %d frames from a closed source", len(sink.frames))
	}
}

func TestLoop_SinkErrorDoesNotStop(t *testing.T) {
	l, _, sink, mt := newLoopFixture(t, errors.New("socket gone"))
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mt.tick(t)
	mt.tick(t)
	if got := len(sink.frames); got != 2 {
		// The second tick is only accepted once the first push returned.
		t.Errorf("frames = %d, want 2", got)
	}
	if !l.Running() {
		t.Error("loop stopped on sink error")
	}
}

func TestLoop_ContextCancelEnds(t *testing.T) {
	l, _, _, _ := newLoopFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not end on context cancel")
	}
}

func TestLoop_RestartAfterStop(t *testing.T) {
	l, _, sink, mt := newLoopFixture(t, nil)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	l.Stop()
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	mt.tick(t)
	select {
	case <-sink.frames:
	case <-time.After(2 * time.Second):
		t.Fatal("no bars after restart")
	}
}

func TestTask_StopUnstartedIsNoop(t *testing.T) {
	NewTask(time.Millisecond, nil).Stop()
}

func TestTask_OnTickHook(t *testing.T) {
	var n atomic.Int32
	src := &fakeSource{}
	mt := newManualTicker()
	l := NewLoop(src, SinkFunc(func(context.Context, []float64) error { return nil }), Config{
		BarCount: 4,
		Ticker:   mt.ticker,
		OnTick:   func(context.Context) { n.Add(1) },
	})
	t.Cleanup(l.Stop)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	mt.tick(t)
	mt.tick(t)
	l.Stop()
	if got := n.Load(); got != 2 {
		t.Errorf("OnTick calls = %d, want 2", got)
	}
}
