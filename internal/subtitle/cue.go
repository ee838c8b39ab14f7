// Package subtitle parses SRT-style timed text into cues.
package subtitle

import (
	"fmt"
	"time"
)

// Cue is a single timed subtitle entry. Times are millisecond-exact; the
// parser never produces sub-millisecond values, so repeated parse/format
// round-trips are stable.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Duration returns the cue's target speech duration on the source timeline.
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

// List is an ordered sequence of cues in timeline order.
type List []Cue

// TotalDuration returns the nominal duration of the source timeline,
// i.e. the end time of the last cue.
func (l List) TotalDuration() time.Duration {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].End
}

// FormatTimestamp renders a duration as an SRT timestamp (HH:MM:SS,mmm).
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
