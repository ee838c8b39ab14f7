// Package audio handles the PCM plumbing around synthesis: silence
// generation, duration math, tempo adjustment and final encoding. All audio
// in the pipeline is mono PCM16 little-endian, the format piper emits and
// ffmpeg consumes on a pipe.
package audio

import (
	"fmt"
	"time"
)

// Format describes a PCM16 stream.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat returns the pipeline's working format.
func DefaultFormat(sampleRate int) Format {
	return Format{SampleRate: sampleRate, Channels: 1}
}

// BytesPerSample returns the byte width of one sample frame.
func (f Format) BytesPerSample() int {
	return 2 * f.Channels
}

// Duration returns the play time of dataLen bytes of PCM in this format.
func (f Format) Duration(dataLen int) time.Duration {
	if f.SampleRate <= 0 || f.BytesPerSample() <= 0 {
		return 0
	}
	samples := dataLen / f.BytesPerSample()
	return time.Duration(float64(samples) / float64(f.SampleRate) * float64(time.Second))
}

// Silence returns zeroed PCM lasting d in this format.
func (f Format) Silence(d time.Duration) []byte {
	if d <= 0 {
		return nil
	}
	samples := int(d.Seconds() * float64(f.SampleRate))
	return make([]byte, samples*f.BytesPerSample())
}

// Validate checks that data is sample-aligned for this format.
func (f Format) Validate(data []byte) error {
	bps := f.BytesPerSample()
	if len(data)%bps != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte samples", len(data), bps)
	}
	return nil
}
