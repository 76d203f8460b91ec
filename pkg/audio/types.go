// Package audio holds the PCM frame type that flows from the browser capture
// stream into the live analyser, plus the format conversion helpers needed to
// bring arbitrary capture formats down to the analyser's mono input.
package audio

import "time"

// AudioFrame is one chunk of captured microphone audio.
type AudioFrame struct {
	// Data is little-endian int16 PCM, channels interleaved.
	Data []byte

	// SampleRate in Hz (e.g. 48000 for most browser AudioContexts).
	SampleRate int

	// Channels: 1 for mono, 2 for stereo.
	Channels int

	// Timestamp marks when this frame was captured, relative to the start of
	// the recording.
	Timestamp time.Duration
}

// Duration returns the playback length of the frame, or 0 when the format is
// unknown.
func (f AudioFrame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	samples := len(f.Data) / 2 / f.Channels
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// Format describes the sample rate and channel count of an audio stream.
type Format struct {
	SampleRate int
	Channels   int
}

// String returns e.g. "48000Hz stereo".
func (f Format) String() string {
	return formatString(f.SampleRate, f.Channels)
}
