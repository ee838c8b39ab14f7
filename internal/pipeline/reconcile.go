package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/voxlab/subvox/tts"
)

// ratioEpsilon is the band around 1.0 inside which stretching is skipped;
// a sub-0.1% tempo change costs a process invocation and buys nothing.
const ratioEpsilon = 1e-3

// clampRatio bounds the natural stretch ratio to [min, max]. Outside the
// band the nearest bound is used: timing fidelity is deliberately
// sacrificed beyond it to keep speech intelligible.
func clampRatio(ratio, min, max float64) float64 {
	if ratio < min {
		return min
	}
	if ratio > max {
		return max
	}
	return ratio
}

// reconcile tempo-adjusts rendered speech toward the cue's target duration
// and returns the adjusted PCM plus the ratio that was applied.
func (c *Converter) reconcile(ctx context.Context, rendered *tts.Audio, target time.Duration) ([]byte, float64, error) {
	if rendered == nil || len(rendered.Data) == 0 {
		return nil, 0, fmt.Errorf("reconcile: %w", tts.ErrEmptyAudio)
	}
	if target <= 0 {
		return nil, 0, fmt.Errorf("reconcile: %w: target %v", tts.ErrStretchFailed, target)
	}

	natural := rendered.Duration.Seconds() / target.Seconds()
	ratio := clampRatio(natural, c.opts.StretchMin, c.opts.StretchMax)

	if math.Abs(ratio-1.0) <= ratioEpsilon {
		return rendered.Data, 1.0, nil
	}

	stretched, err := c.stretcher.Stretch(ctx, rendered.Data, ratio)
	if err != nil {
		return nil, ratio, err
	}
	return stretched, ratio, nil
}
