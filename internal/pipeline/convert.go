package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/voxlab/subvox/internal/audio"
	"github.com/voxlab/subvox/internal/normalize"
	"github.com/voxlab/subvox/internal/subtitle"
	"github.com/voxlab/subvox/tts"
)

// Options tune a conversion run.
type Options struct {
	SampleRate int
	StretchMin float64
	StretchMax float64
	GapEpsilon time.Duration
	Jobs       int
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = 22050
	}
	if o.StretchMin <= 0 {
		o.StretchMin = 0.5
	}
	if o.StretchMax <= 0 {
		o.StretchMax = 2.0
	}
	if o.GapEpsilon <= 0 {
		o.GapEpsilon = 100 * time.Millisecond
	}
	if o.Jobs <= 0 {
		o.Jobs = 1
	}
	return o
}

// Report summarizes one file's conversion.
type Report struct {
	CuesTotal      int
	CuesVoiced     int
	CuesSkipped    int
	SourceDuration time.Duration // nominal end of the cue timeline
	OutputDuration time.Duration // actual duration of the assembled track
	OutputPath     string
}

// Converter runs the parse → normalize → synthesize/reconcile → assemble
// pipeline for one file at a time. It holds no per-file state; a single
// Converter may convert many files in sequence.
type Converter struct {
	engine    tts.Engine
	stretcher audio.Stretcher
	encoder   audio.Encoder
	opts      Options
	format    audio.Format
}

// New builds a Converter from an engine and the audio collaborators.
func New(engine tts.Engine, stretcher audio.Stretcher, encoder audio.Encoder, opts Options) *Converter {
	opts = opts.withDefaults()
	return &Converter{
		engine:    engine,
		stretcher: stretcher,
		encoder:   encoder,
		opts:      opts,
		format:    audio.DefaultFormat(opts.SampleRate),
	}
}

// speechResult is the outcome of synthesize+reconcile for one cue.
type speechResult struct {
	data  []byte
	raw   time.Duration
	ratio float64
	err   error
}

// Convert reads one subtitle stream and writes the narrated track to
// outPath. Per-cue failures are logged and skipped; the conversion fails
// only when nothing survives parsing, no cue synthesizes, or encoding
// fails.
func (c *Converter) Convert(ctx context.Context, r io.Reader, outPath string) (*Report, error) {
	kept := normalizedCues(r)
	if len(kept) == 0 {
		return nil, tts.ErrNoCues
	}

	results := c.synthesizeAll(ctx, kept)
	segments := c.assemble(kept, results)

	report := &Report{
		CuesTotal:      len(kept),
		SourceDuration: kept.TotalDuration(),
		OutputPath:     outPath,
	}
	var track []byte
	for _, seg := range segments {
		if seg.Kind == SpeechSegment {
			report.CuesVoiced++
		}
		track = append(track, seg.Data...)
	}
	report.CuesSkipped = report.CuesTotal - report.CuesVoiced

	if report.CuesVoiced == 0 {
		return nil, fmt.Errorf("%w: all %d cues failed", tts.ErrNoSegments, len(kept))
	}
	report.OutputDuration = c.format.Duration(len(track))

	if err := c.encoder.Encode(ctx, track, outPath); err != nil {
		return nil, err
	}
	return report, nil
}

// normalizedCues parses a subtitle stream and normalizes each cue's text
// for synthesis. Cues whose text normalizes to nothing are excluded; the
// survivors are renumbered so cue indices stay contiguous.
func normalizedCues(r io.Reader) subtitle.List {
	cues := subtitle.Parse(r)
	kept := make(subtitle.List, 0, len(cues))
	for _, cue := range cues {
		cue.Text = normalize.Text(cue.Text)
		if cue.Text == "" {
			continue
		}
		cue.Index = len(kept) + 1
		kept = append(kept, cue)
	}
	return kept
}

// synthesizeAll runs synthesize+reconcile for every cue under a bounded
// worker group. Results land in a slice indexed by cue position, so the
// assembly order is the cue order no matter how workers are scheduled.
// Per-cue errors are captured, not returned: a bad cue must not cancel its
// siblings.
func (c *Converter) synthesizeAll(ctx context.Context, cues subtitle.List) []speechResult {
	results := make([]speechResult, len(cues))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Jobs)
	for i, cue := range cues {
		g.Go(func() error {
			results[i] = c.renderCue(ctx, cue)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// renderCue synthesizes one cue and reconciles it against the cue duration.
func (c *Converter) renderCue(ctx context.Context, cue subtitle.Cue) speechResult {
	rendered, err := c.engine.Synthesize(ctx, cue.Text)
	if err != nil {
		return speechResult{err: err}
	}

	data, ratio, err := c.reconcile(ctx, rendered, cue.Duration())
	if err != nil {
		return speechResult{raw: rendered.Duration, ratio: ratio, err: err}
	}
	return speechResult{data: data, raw: rendered.Duration, ratio: ratio}
}

// assemble interleaves speech segments with silence gaps in strict cue
// order. The cursor advances to a cue's end only when its speech was
// produced; a failed cue contributes nothing and its span is absorbed into
// the next cue's leading silence.
func (c *Converter) assemble(cues subtitle.List, results []speechResult) []Segment {
	var segments []Segment
	var cursor time.Duration

	for i, cue := range cues {
		res := results[i]
		if res.err != nil {
			log.Warn("skipping cue", "cue", cue.Index, "start", subtitle.FormatTimestamp(cue.Start), "err", res.err)
			continue
		}

		if gap := cue.Start - cursor; gap > c.opts.GapEpsilon {
			segments = append(segments, Segment{
				Kind:     SilenceSegment,
				Duration: gap,
				Data:     c.format.Silence(gap),
			})
		}

		segments = append(segments, Segment{
			Kind:           SpeechSegment,
			CueIndex:       cue.Index,
			RawDuration:    res.raw,
			TargetDuration: cue.Duration(),
			Ratio:          res.ratio,
			Duration:       c.format.Duration(len(res.data)),
			Data:           res.data,
		})
		cursor = cue.End
	}
	return segments
}
