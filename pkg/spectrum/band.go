// Package spectrum turns live microphone audio into the bar intensities shown
// by the recording waveform.
//
// Two pieces live here:
//
//   - [Analyser] keeps a sliding window of PCM samples and produces byte
//     frequency data (one magnitude per FFT bin, 0–255), the same shape a
//     browser AnalyserNode hands out.
//   - [BandMapper] folds that frequency data into a fixed number of bars
//     restricted to the speech band, weighting low frequencies more heavily.
//
// BandMapper is a pure function of its input. Analyser is safe for concurrent
// use by one writer (the capture stream) and one reader (the visualisation
// loop).
package spectrum

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Default speech-band mapping parameters.
const (
	DefaultMinFreq  = 100.0
	DefaultMaxFreq  = 3000.0
	DefaultExponent = 1.35
	DefaultGain     = 1.8
	DefaultFloor    = 20.0

	// MaxIntensity is the upper bound of every bar value.
	MaxIntensity = 100.0

	// magnitudeCeiling is the largest value a byte frequency bin can hold.
	magnitudeCeiling = 255.0
)

// BandMapper maps frequency-bin magnitudes onto a fixed number of bars.
//
// Bin ranges are allocated on an exponential curve so the energy-dense low
// and mid speech frequencies get more bins per bar than the noisy top end.
// The zero value is not usable; start from [DefaultBandMapper].
type BandMapper struct {
	// MinFreq and MaxFreq bound the band in Hz.
	MinFreq float64
	MaxFreq float64

	// Exponent shapes the bin allocation curve. 1 is linear.
	Exponent float64

	// Gain multiplies the averaged magnitude before normalisation.
	Gain float64

	// Floor is the smallest intensity a bar may report, so the waveform
	// never collapses completely during silence.
	Floor float64
}

// DefaultBandMapper returns a BandMapper for the 100 Hz – 3 kHz speech band.
func DefaultBandMapper() BandMapper {
	return BandMapper{
		MinFreq:  DefaultMinFreq,
		MaxFreq:  DefaultMaxFreq,
		Exponent: DefaultExponent,
		Gain:     DefaultGain,
		Floor:    DefaultFloor,
	}
}

// Map returns exactly barCount intensities in [Floor, 100] for the given bin
// magnitudes sampled at sampleRate Hz. It returns nil when barCount < 1.
//
// Every bar samples at least one bin, even when the exponential spacing
// would give it an empty range. Bins past the end of data contribute
// nothing; a bar whose whole range lies past the end reports Floor.
func (m BandMapper) Map(data []uint8, sampleRate, barCount int) []float64 {
	if barCount < 1 {
		return nil
	}
	bars := make([]float64, barCount)

	bufferLength := len(data)
	if sampleRate <= 0 || bufferLength == 0 {
		for i := range bars {
			bars[i] = m.clamp(0)
		}
		return bars
	}

	values := make([]float64, bufferLength)
	for i, v := range data {
		values[i] = float64(v)
	}

	nyquist := float64(sampleRate) / 2
	minBin := int(math.Floor(m.MinFreq / nyquist * float64(bufferLength)))
	maxBin := int(math.Floor(m.MaxFreq / nyquist * float64(bufferLength)))
	usableBins := float64(maxBin - minBin)

	for i := range bars {
		t := float64(i) / float64(barCount)
		tNext := float64(i+1) / float64(barCount)

		startBin := minBin + int(math.Floor(math.Pow(t, m.Exponent)*usableBins))
		endBin := minBin + int(math.Floor(math.Pow(tNext, m.Exponent)*usableBins))
		if endBin <= startBin {
			endBin = startBin + 1
		}

		bars[i] = m.clamp(m.Gain * average(values, startBin, endBin) / magnitudeCeiling * MaxIntensity)
	}
	return bars
}

// average returns the mean of values[start:end] after clipping the range to
// the slice, or 0 when the clipped range is empty.
func average(values []float64, start, end int) float64 {
	start = max(start, 0)
	end = min(end, len(values))
	if start >= end {
		return 0
	}
	return floats.Sum(values[start:end]) / float64(end-start)
}

func (m BandMapper) clamp(v float64) float64 {
	return math.Max(m.Floor, math.Min(MaxIntensity, v))
}
