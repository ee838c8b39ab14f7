// Package pipeline converts parsed subtitle cues into one narrated audio
// track: per-cue synthesis, bounded tempo reconciliation, silence fill for
// timeline gaps, concatenation and encoding.
package pipeline

import "time"

// SegmentKind distinguishes rendered speech from filler silence.
type SegmentKind int

const (
	// SpeechSegment carries synthesized, tempo-adjusted speech for one cue.
	SpeechSegment SegmentKind = iota
	// SilenceSegment fills a gap between the timeline cursor and a cue.
	SilenceSegment
)

// Segment is one contiguous span of the output track. Segments exist only
// between assembly and concatenation.
type Segment struct {
	Kind     SegmentKind
	CueIndex int // cue ordinal for speech segments

	RawDuration    time.Duration // rendered duration before stretching
	TargetDuration time.Duration // cue duration on the source timeline
	Ratio          float64       // applied stretch ratio

	Duration time.Duration // actual duration of Data
	Data     []byte
}
