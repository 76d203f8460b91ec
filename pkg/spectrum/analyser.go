package spectrum

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Analyser defaults, matching a browser AnalyserNode configured for speech.
const (
	DefaultFFTSize     = 512
	DefaultSmoothing   = 0.7
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// Source supplies byte frequency data on demand. The visualisation loop reads
// from a Source once per tick.
type Source interface {
	// FrequencyBinCount is the length of the array ByteFrequencyData fills.
	FrequencyBinCount() int

	// SampleRate of the underlying audio in Hz.
	SampleRate() int

	// ByteFrequencyData writes the current magnitudes (0–255) into dst and
	// reports whether the source is still live. Once it returns false it
	// never returns true again.
	ByteFrequencyData(dst []uint8) bool
}

// AnalyserOption configures an [Analyser].
type AnalyserOption func(*Analyser)

// WithSmoothing sets the time-smoothing constant in [0, 1). 0 disables
// smoothing.
func WithSmoothing(tau float64) AnalyserOption {
	return func(a *Analyser) { a.smoothing = tau }
}

// WithDecibelRange sets the dB range mapped onto 0–255.
func WithDecibelRange(minDB, maxDB float64) AnalyserOption {
	return func(a *Analyser) {
		a.minDB = minDB
		a.maxDB = maxDB
	}
}

// Analyser turns a stream of 16-bit mono PCM into byte frequency data using a
// Blackman-windowed FFT over the most recent fftSize samples.
type Analyser struct {
	fftSize    int
	sampleRate int
	smoothing  float64
	minDB      float64
	maxDB      float64
	window     []float64

	mu       sync.Mutex
	ring     []float64
	pos      int
	smoothed []float64
	scratch  []float64
	closed   bool
}

// Compile-time interface check.
var _ Source = (*Analyser)(nil)

// NewAnalyser creates an Analyser for audio at sampleRate Hz. fftSize must be
// a power of two of at least 32.
func NewAnalyser(sampleRate, fftSize int, opts ...AnalyserOption) (*Analyser, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("spectrum: sample rate must be positive, got %d", sampleRate)
	}
	if fftSize < 32 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("spectrum: fft size must be a power of two >= 32, got %d", fftSize)
	}
	a := &Analyser{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		smoothing:  DefaultSmoothing,
		minDB:      DefaultMinDecibels,
		maxDB:      DefaultMaxDecibels,
		window:     window.Blackman(fftSize),
		ring:       make([]float64, fftSize),
		smoothed:   make([]float64, fftSize/2),
		scratch:    make([]float64, fftSize),
	}
	for _, o := range opts {
		o(a)
	}
	if a.smoothing < 0 || a.smoothing >= 1 {
		return nil, fmt.Errorf("spectrum: smoothing must be in [0, 1), got %v", a.smoothing)
	}
	if a.maxDB <= a.minDB {
		return nil, fmt.Errorf("spectrum: max decibels %v must exceed min decibels %v", a.maxDB, a.minDB)
	}
	return a, nil
}

// FrequencyBinCount returns fftSize/2.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// SampleRate returns the sample rate the Analyser was created with.
func (a *Analyser) SampleRate() int { return a.sampleRate }

// Write appends little-endian int16 mono PCM to the analysis window. A
// trailing odd byte is ignored. Writes after Close are dropped.
func (a *Analyser) Write(pcm []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		a.ring[a.pos] = float64(s) / 32768
		a.pos = (a.pos + 1) % a.fftSize
	}
}

// ByteFrequencyData implements [Source]. dst may be shorter than
// FrequencyBinCount; extra bins are skipped.
func (a *Analyser) ByteFrequencyData(dst []uint8) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}

	// Unroll the ring oldest-first, then window it.
	n := copy(a.scratch, a.ring[a.pos:])
	copy(a.scratch[n:], a.ring[:a.pos])
	floats.Mul(a.scratch, a.window)

	spec := fft.FFTReal(a.scratch)
	scale := 255 / (a.maxDB - a.minDB)
	bins := min(len(dst), len(a.smoothed))
	for k := range a.smoothed {
		mag := cmplx.Abs(spec[k]) / float64(a.fftSize)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k >= bins {
			continue
		}
		dst[k] = toByte(scale * (decibels(a.smoothed[k]) - a.minDB))
	}
	return true
}

// Close marks the Analyser as gone. Subsequent ByteFrequencyData calls
// return false.
func (a *Analyser) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

func decibels(mag float64) float64 {
	if mag <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(mag)
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
