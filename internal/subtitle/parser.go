package subtitle

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timestampLine = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2},\d{3})`)

type parseState int

const (
	awaitingIndex parseState = iota
	awaitingTimestamp
	accumulatingText
)

// Parse reads SRT-style blocks and returns the retained cues in source
// order. A block is a purely numeric index line, a timestamp range line,
// and one or more text lines; a blank line or a new index line ends the
// block. Malformed timestamps degrade to zero fields rather than aborting,
// and cues with no text or a non-positive duration are dropped.
func Parse(r io.Reader) List {
	var (
		cues  List
		state = awaitingIndex
		start time.Duration
		end   time.Duration
		text  []string
	)

	finalize := func() {
		joined := strings.TrimSpace(strings.Join(text, " "))
		if joined != "" && end > start {
			cues = append(cues, Cue{
				Index: len(cues) + 1,
				Start: start,
				End:   end,
				Text:  joined,
			})
		}
		text = text[:0]
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), "\r"))

		switch state {
		case awaitingIndex:
			if isIndexLine(line) {
				state = awaitingTimestamp
			}

		case awaitingTimestamp:
			if m := timestampLine.FindStringSubmatch(line); m != nil {
				start = ParseTimestamp(m[1])
				end = ParseTimestamp(m[2])
				state = accumulatingText
			} else if !isIndexLine(line) {
				// Not a cue after all; resync on the next index line.
				state = awaitingIndex
			}

		case accumulatingText:
			switch {
			case line == "":
				finalize()
				state = awaitingIndex
			case isIndexLine(line):
				// A bare numeric line inside a block starts the next cue.
				finalize()
				state = awaitingTimestamp
			default:
				text = append(text, line)
			}
		}
	}
	if state == accumulatingText {
		finalize()
	}
	return cues
}

// ParseTimestamp converts an SRT timestamp (HH:MM:SS,mmm) to a duration.
// Each field is parsed independently; a malformed field counts as zero so a
// single bad timestamp cannot poison the rest of the file.
func ParseTimestamp(s string) time.Duration {
	var hms, millis string
	if i := strings.IndexByte(s, ','); i >= 0 {
		hms, millis = s[:i], s[i+1:]
	} else {
		hms = s
	}

	var h, m, sec int
	parts := strings.Split(hms, ":")
	if len(parts) > 0 {
		h = atoiOrZero(parts[0])
	}
	if len(parts) > 1 {
		m = atoiOrZero(parts[1])
	}
	if len(parts) > 2 {
		sec = atoiOrZero(parts[2])
	}
	ms := atoiOrZero(millis)

	total := int64(h)*3600000 + int64(m)*60000 + int64(sec)*1000 + int64(ms)
	return time.Duration(total) * time.Millisecond
}

func isIndexLine(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
