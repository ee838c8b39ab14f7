package audio

import (
	"context"
	"fmt"
	"strconv"

	"github.com/voxlab/subvox/tts"
)

// Stretcher applies uniform tempo scaling to PCM audio without changing
// pitch. A ratio above 1.0 speeds speech up, below 1.0 slows it down.
type Stretcher interface {
	Stretch(ctx context.Context, data []byte, ratio float64) ([]byte, error)
}

// FFmpegStretcher runs ffmpeg's atempo filter over a raw PCM pipe. A single
// atempo instance accepts ratios in [0.5, 2.0], which is exactly the band
// the reconciler clamps to, so one filter always suffices.
type FFmpegStretcher struct {
	runner *Runner
	format Format
}

// NewFFmpegStretcher returns a stretcher working in the given format.
func NewFFmpegStretcher(runner *Runner, format Format) *FFmpegStretcher {
	return &FFmpegStretcher{runner: runner, format: format}
}

// Stretch scales the tempo of data by ratio. Zero-length input cannot be
// stretched and reports ErrEmptyAudio.
func (s *FFmpegStretcher) Stretch(ctx context.Context, data []byte, ratio float64) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("stretch by %.3f: %w", ratio, tts.ErrEmptyAudio)
	}
	if err := s.format.Validate(data); err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrStretchFailed, err)
	}

	rate := strconv.Itoa(s.format.SampleRate)
	ch := strconv.Itoa(s.format.Channels)
	out, err := s.runner.Run(ctx, data, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le", "-ar", rate, "-ac", ch, "-i", "pipe:0",
		"-filter:a", fmt.Sprintf("atempo=%.6f", ratio),
		"-f", "s16le", "-ar", rate, "-ac", ch, "pipe:1",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrStretchFailed, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: atempo produced no samples", tts.ErrStretchFailed)
	}
	return out, nil
}
