// Package visualize drives the live recording waveform: once per frame it
// samples a [spectrum.Source], folds the result into bar intensities and
// hands them to a [Sink].
package visualize

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrWong99/elocute/pkg/spectrum"
)

// DefaultInterval approximates a 60 Hz display refresh.
const DefaultInterval = 16 * time.Millisecond

// Sink receives the bar intensities computed on every tick. A Sink error is
// logged and the loop keeps going; only the source going away ends the loop.
type Sink interface {
	PushBars(ctx context.Context, bars []float64) error
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, bars []float64) error

// PushBars implements [Sink].
func (f SinkFunc) PushBars(ctx context.Context, bars []float64) error { return f(ctx, bars) }

// Config parameterises a [Loop].
type Config struct {
	// Mapper folds bins into bars. Zero value means [spectrum.DefaultBandMapper].
	Mapper spectrum.BandMapper

	// BarCount is the number of bars pushed per tick.
	BarCount int

	// Interval between ticks. Default: [DefaultInterval].
	Interval time.Duration

	// Ticker overrides the tick source (tests). Default: [TimeTicker].
	Ticker Ticker

	// OnTick is called after every pushed frame. Optional.
	OnTick func(ctx context.Context)
}

// Loop samples one source for one recording session. It is not re-entrant:
// a second Start while running fails with [ErrRunning].
type Loop struct {
	src    spectrum.Source
	sink   Sink
	mapper spectrum.BandMapper
	bars   int
	onTick func(context.Context)
	task   *Task
	buf    []uint8
}

// NewLoop creates a stopped Loop reading from src and writing to sink.
func NewLoop(src spectrum.Source, sink Sink, cfg Config) *Loop {
	if cfg.Mapper == (spectrum.BandMapper{}) {
		cfg.Mapper = spectrum.DefaultBandMapper()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Loop{
		src:    src,
		sink:   sink,
		mapper: cfg.Mapper,
		bars:   cfg.BarCount,
		onTick: cfg.OnTick,
		task:   NewTask(cfg.Interval, cfg.Ticker),
		buf:    make([]uint8, src.FrequencyBinCount()),
	}
}

// Start begins ticking. The loop ends by itself when the source reports it
// is gone, or when ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	return l.task.Start(ctx, l.tick)
}

// Stop halts the loop and waits for any in-flight tick to finish, so the
// caller may release the source as soon as Stop returns.
func (l *Loop) Stop() { l.task.Stop() }

// Running reports whether the loop is scheduled.
func (l *Loop) Running() bool { return l.task.Running() }

// Done is closed when the current run ends.
func (l *Loop) Done() <-chan struct{} { return l.task.Done() }

func (l *Loop) tick(ctx context.Context) bool {
	if !l.src.ByteFrequencyData(l.buf) {
		slog.Debug("visualizer source closed, stopping loop")
		return false
	}
	bars := l.mapper.Map(l.buf, l.src.SampleRate(), l.bars)
	if err := l.sink.PushBars(ctx, bars); err != nil {
		slog.Debug("visualizer sink push failed", "err", err)
	}
	if l.onTick != nil {
		l.onTick(ctx)
	}
	return true
}
