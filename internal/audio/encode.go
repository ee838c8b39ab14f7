package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/voxlab/subvox/tts"
)

// Encoder writes a PCM track out as a compressed audio file.
type Encoder interface {
	Encode(ctx context.Context, data []byte, outPath string) error
}

// FFmpegEncoder encodes PCM to MP3 with libmp3lame at a fixed bitrate.
type FFmpegEncoder struct {
	runner  *Runner
	format  Format
	bitrate string
}

// NewFFmpegEncoder returns an encoder producing MP3 at bitrate (e.g. "128k").
func NewFFmpegEncoder(runner *Runner, format Format, bitrate string) *FFmpegEncoder {
	if bitrate == "" {
		bitrate = "128k"
	}
	return &FFmpegEncoder{runner: runner, format: format, bitrate: bitrate}
}

// Encode writes data to outPath. The encode goes to a partial file that is
// renamed into place on success, so a failed encode never leaves a final
// artifact behind.
func (e *FFmpegEncoder) Encode(ctx context.Context, data []byte, outPath string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: nothing to encode", tts.ErrEncodingFailed)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("%w: %v", tts.ErrEncodingFailed, err)
	}

	partial := outPath + ".partial"
	rate := strconv.Itoa(e.format.SampleRate)
	ch := strconv.Itoa(e.format.Channels)
	_, err := e.runner.Run(ctx, data, "ffmpeg",
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "s16le", "-ar", rate, "-ac", ch, "-i", "pipe:0",
		"-codec:a", "libmp3lame", "-b:a", e.bitrate,
		"-f", "mp3", partial,
	)
	if err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: %v", tts.ErrEncodingFailed, err)
	}
	if err := os.Rename(partial, outPath); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: %v", tts.ErrEncodingFailed, err)
	}
	return nil
}
