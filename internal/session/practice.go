// Package session owns the state of the single practice a user is working
// on: the target sentence, the live recording with its waveform loop, and
// the correction overlay of the last analysis.
//
// Everything is held by an explicit [Manager] rather than package globals.
// Starting a new recording always tears down the previous one first.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/elocute/internal/config"
	"github.com/MrWong99/elocute/internal/visualize"
	"github.com/MrWong99/elocute/pkg/audio"
	"github.com/MrWong99/elocute/pkg/spectrum"
)

// Practice is one live recording: a capture stream feeding an analyser that
// a visualisation loop samples.
type Practice struct {
	ID        string
	Format    audio.Format
	StartedAt time.Time

	analyser *spectrum.Analyser
	loop     *visualize.Loop
	conv     *audio.FormatConverter

	mu       sync.Mutex
	captured time.Duration

	ended     chan struct{}
	closeOnce sync.Once
}

// newPractice builds a stopped practice for capture in format. A zero sample
// rate falls back to vis.SampleRate.
func newPractice(format audio.Format, vis config.VisualizerConfig, sink visualize.Sink, onTick func(context.Context)) (*Practice, error) {
	if format.SampleRate <= 0 {
		format.SampleRate = vis.SampleRate
	}
	if format.Channels <= 0 {
		format.Channels = 1
	}

	an, err := spectrum.NewAnalyser(format.SampleRate, vis.FFTSize, spectrum.WithSmoothing(vis.Smoothing))
	if err != nil {
		return nil, fmt.Errorf("session: new analyser: %w", err)
	}

	p := &Practice{
		ID:        uuid.NewString(),
		Format:    format,
		StartedAt: time.Now(),
		analyser:  an,
		conv:      &audio.FormatConverter{Target: audio.Format{SampleRate: format.SampleRate, Channels: 1}},
		ended:     make(chan struct{}),
	}
	p.loop = visualize.NewLoop(an, sink, visualize.Config{
		Mapper:   vis.Mapper(),
		BarCount: vis.BarCount,
		Interval: vis.Interval,
		OnTick:   onTick,
	})
	return p, nil
}

// Write feeds captured little-endian int16 PCM in the practice's format.
// Audio written after the practice ended is dropped.
func (p *Practice) Write(pcm []byte) {
	select {
	case <-p.ended:
		return
	default:
	}
	frame := p.conv.Convert(audio.AudioFrame{
		Data:       pcm,
		SampleRate: p.Format.SampleRate,
		Channels:   p.Format.Channels,
	})
	if len(frame.Data) == 0 {
		return
	}
	p.analyser.Write(frame.Data)

	p.mu.Lock()
	p.captured += frame.Duration()
	p.mu.Unlock()
}

// Captured returns the length of audio received so far.
func (p *Practice) Captured() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.captured
}

// Ended is closed once the practice has been torn down.
func (p *Practice) Ended() <-chan struct{} { return p.ended }

// Running reports whether the waveform loop is still ticking.
func (p *Practice) Running() bool { return p.loop.Running() }

func (p *Practice) start(ctx context.Context) error {
	return p.loop.Start(ctx)
}

// close halts the loop before releasing the analyser so no tick can observe
// a closed source.
func (p *Practice) close() {
	p.closeOnce.Do(func() {
		p.loop.Stop()
		p.analyser.Close()
		close(p.ended)
	})
}
