package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/config"
	"github.com/MrWong99/elocute/internal/correction"
	"github.com/MrWong99/elocute/internal/observe"
	"github.com/MrWong99/elocute/internal/overlay"
	"github.com/MrWong99/elocute/internal/render"
	"github.com/MrWong99/elocute/internal/visualize"
	"github.com/MrWong99/elocute/pkg/audio"
)

// Progress bar values.
const (
	ProgressIdle     = 0
	ProgressSentence = 10
	ProgressRecorded = 50
	ProgressAnalyzed = 100
)

var (
	// ErrNoPractice is returned when no matching recording is live.
	ErrNoPractice = errors.New("session: no active practice")

	// ErrNoResult is returned by navigation before an analysis was shown.
	ErrNoResult = errors.New("session: no analysis result")

	// ErrEmptySentence is returned for a blank practice sentence.
	ErrEmptySentence = errors.New("session: sentence is empty")
)

// Option configures a [Manager].
type Option func(*Manager)

// WithMetrics records practice and overlay metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithPlaceholder sets the visual aid fallback passed to every overlay.
func WithPlaceholder(src string) Option {
	return func(mgr *Manager) { mgr.placeholder = src }
}

// Manager holds the one practice context of the server. All methods are
// safe for concurrent use.
type Manager struct {
	metrics *observe.Metrics

	mu          sync.Mutex
	vis         config.VisualizerConfig
	placeholder string
	sentence    string
	progress    int
	practice    *Practice
	result      *analysis.Result
	overlay     *overlay.Synchronizer
	hover       overlay.Hover
}

// NewManager returns a Manager with no sentence and no recording.
func NewManager(vis config.VisualizerConfig, opts ...Option) *Manager {
	m := &Manager{vis: vis}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SetVisualizer replaces the waveform settings. They apply from the next
// recording on.
func (m *Manager) SetVisualizer(vis config.VisualizerConfig) {
	m.mu.Lock()
	m.vis = vis
	m.mu.Unlock()
}

// SetPlaceholder replaces the visual aid fallback for future results.
func (m *Manager) SetPlaceholder(src string) {
	m.mu.Lock()
	m.placeholder = src
	m.mu.Unlock()
}

// SetSentence changes the practice sentence and resets the practice.
func (m *Manager) SetSentence(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmptySentence
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentence = s
	m.resetLocked()
	return nil
}

// Sentence returns the current practice sentence.
func (m *Manager) Sentence() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sentence
}

// Progress returns the progress bar value.
func (m *Manager) Progress() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// Reset discards the recording and the last result, as a retry does.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	m.teardownLocked()
	m.clearResultLocked()
	m.progress = ProgressIdle
	if m.sentence != "" {
		m.progress = ProgressSentence
	}
}

// StartPractice tears down any live recording and begins a new one whose
// waveform frames go to sink. The loop ends with ctx.
func (m *Manager) StartPractice(ctx context.Context, format audio.Format, sink visualize.Sink) (*Practice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()
	m.clearResultLocked()

	var onTick func(context.Context)
	if m.metrics != nil {
		onTick = func(ctx context.Context) { m.metrics.VisualizerTicks.Add(ctx, 1) }
	}
	p, err := newPractice(format, m.vis, sink, onTick)
	if err != nil {
		return nil, err
	}
	if err := p.start(ctx); err != nil {
		p.close()
		return nil, fmt.Errorf("session: start waveform: %w", err)
	}
	m.practice = p
	if m.metrics != nil {
		m.metrics.ActivePractices.Add(ctx, 1)
	}
	slog.Info("practice started", "practice_id", p.ID, "format", p.Format.String())
	return p, nil
}

// StopPractice ends the recording with the given id.
func (m *Manager) StopPractice(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.practice == nil || m.practice.ID != id {
		return ErrNoPractice
	}
	captured := m.practice.Captured()
	m.teardownLocked()
	m.progress = ProgressRecorded
	slog.Info("practice stopped", "practice_id", id, "captured", captured)
	return nil
}

// Practice returns the live recording, if any.
func (m *Manager) Practice() (*Practice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.practice, m.practice != nil
}

func (m *Manager) teardownLocked() {
	if m.practice == nil {
		return
	}
	m.practice.close()
	if m.metrics != nil {
		m.metrics.ActivePractices.Add(context.Background(), -1)
	}
	m.practice = nil
}

func (m *Manager) clearResultLocked() {
	m.result = nil
	m.overlay = nil
	m.hover = overlay.Hover{}
}

// ShowResult aligns res against its sentence and starts the correction
// overlay. A result whose corrections cannot be aligned is replaced by a
// failure and the alignment error is returned.
func (m *Manager) ShowResult(res analysis.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearResultLocked()
	m.progress = ProgressAnalyzed

	if !res.Success {
		m.result = &res
		return nil
	}
	a, err := correction.Align(res.Sentence, res.Corrections)
	if err != nil {
		failed := analysis.Failure(fmt.Errorf("analysis returned unusable corrections: %w", err))
		failed.Sentence = res.Sentence
		m.result = &failed
		return err
	}
	var opts []overlay.Option
	if m.placeholder != "" {
		opts = append(opts, overlay.WithPlaceholder(m.placeholder))
	}
	m.result = &res
	m.overlay = overlay.New(a, opts...)
	return nil
}

// Render calls fn with the current feedback under the manager's lock.
func (m *Manager) Render(fn func(render.Feedback) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return ErrNoResult
	}
	return fn(render.Feedback{Result: *m.result, Overlay: m.overlay, Hover: m.hover})
}

// Next advances the correction carousel.
func (m *Manager) Next(ctx context.Context) (overlay.Transition, error) {
	return m.navigate(ctx, func(s *overlay.Synchronizer) (overlay.Transition, error) {
		return s.Next(), nil
	})
}

// Previous steps the carousel back.
func (m *Manager) Previous(ctx context.Context) (overlay.Transition, error) {
	return m.navigate(ctx, func(s *overlay.Synchronizer) (overlay.Transition, error) {
		return s.Previous(), nil
	})
}

// Jump shows correction i.
func (m *Manager) Jump(ctx context.Context, i int) (overlay.Transition, error) {
	return m.navigate(ctx, func(s *overlay.Synchronizer) (overlay.Transition, error) {
		return s.Jump(i)
	})
}

func (m *Manager) navigate(ctx context.Context, fn func(*overlay.Synchronizer) (overlay.Transition, error)) (overlay.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlay == nil {
		return overlay.NoOp, ErrNoResult
	}
	t, err := fn(m.overlay)
	if err != nil {
		return t, err
	}
	if t == overlay.Completed {
		m.hover = overlay.Hover{}
	}
	if m.metrics != nil && t != overlay.NoOp {
		m.metrics.RecordTransition(ctx, t.String())
	}
	return t, nil
}

// Hover activates visual aid aid and returns the correction indices whose
// cards share it.
func (m *Manager) Hover(aid int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlay == nil {
		return nil, ErrNoResult
	}
	m.hover = overlay.EnterAid(aid)
	return m.hover.Targets(m.overlay.Alignment()), nil
}

// Unhover clears the visual aid highlight.
func (m *Manager) Unhover() {
	m.mu.Lock()
	m.hover = m.hover.Exit()
	m.mu.Unlock()
}

// Close tears down any live recording.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}
