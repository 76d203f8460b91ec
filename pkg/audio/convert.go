package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// FormatConverter brings capture frames to a target format. It logs a
// warning on the first format mismatch and on the first misaligned frame.
// Create one per capture stream; it is not meant to be shared.
type FormatConverter struct {
	Target         Format
	warnedMismatch sync.Once
	warnedCorrupt  sync.Once
}

// Convert returns frame in the target format. A frame already in the target
// format is returned unchanged. Misaligned PCM (odd byte count, or a partial
// multi-channel frame) yields a frame with nil Data.
//
// Channels are folded to mono before resampling so only one channel is
// interpolated. Only mono targets are converted; multi-channel input with a
// matching multi-channel target passes through.
func (c *FormatConverter) Convert(frame AudioFrame) AudioFrame {
	channels := max(frame.Channels, 1)
	if len(frame.Data)%(2*channels) != 0 {
		c.warnedCorrupt.Do(func() {
			slog.Warn("capture converter: misaligned PCM data, dropping frame",
				"bytes", len(frame.Data),
				"sampleRate", frame.SampleRate,
				"channels", frame.Channels,
			)
		})
		return AudioFrame{SampleRate: c.Target.SampleRate, Channels: c.Target.Channels, Timestamp: frame.Timestamp}
	}

	if frame.SampleRate == c.Target.SampleRate && channels == c.Target.Channels {
		return frame
	}

	c.warnedMismatch.Do(func() {
		slog.Info("capture format differs from analyser input, converting",
			"from", formatString(frame.SampleRate, channels),
			"to", c.Target.String(),
		)
	})

	pcm := frame.Data
	if channels > 1 && c.Target.Channels == 1 {
		pcm = Downmix16(pcm, channels)
		channels = 1
	}
	if channels == 1 && frame.SampleRate != c.Target.SampleRate {
		pcm = ResampleMono16(pcm, frame.SampleRate, c.Target.SampleRate)
	}

	return AudioFrame{
		Data:       pcm,
		SampleRate: c.Target.SampleRate,
		Channels:   channels,
		Timestamp:  frame.Timestamp,
	}
}

// Downmix16 averages every interleaved frame of channels int16 samples into a
// single mono sample. Uses int32 arithmetic so the sum cannot overflow.
func Downmix16(pcm []byte, channels int) []byte {
	if channels <= 1 {
		return pcm
	}
	stride := channels * 2
	frames := len(pcm) / stride
	out := make([]byte, frames*2)
	for i := range frames {
		var sum int32
		for ch := range channels {
			off := i*stride + ch*2
			sum += int32(int16(pcm[off]) | int16(pcm[off+1])<<8)
		}
		avg := sum / int32(channels)
		out[i*2] = byte(avg)
		out[i*2+1] = byte(avg >> 8)
	}
	return out
}

// StereoToMono is Downmix16 for two channels.
func StereoToMono(pcm []byte) []byte {
	return Downmix16(pcm, 2)
}

// ResampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using linear
// interpolation. Equal or invalid rates return the input unchanged.
func ResampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)
	sample := func(i int) int16 {
		return int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
	}

	for i := range dstSamples {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := sample(srcIdx)
		s1 := s0
		if srcIdx+1 < srcSamples {
			s1 = sample(srcIdx + 1)
		}

		v := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func formatString(rate, channels int) string {
	ch := "mono"
	if channels == 2 {
		ch = "stereo"
	} else if channels > 2 {
		ch = fmt.Sprintf("%dch", channels)
	}
	return fmt.Sprintf("%dHz %s", rate, ch)
}
