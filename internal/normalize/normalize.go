// Package normalize rewrites cue text so a TTS engine reads technical
// content out loud sensibly: symbols, exponents, domain abbreviations and
// units become their spoken forms.
package normalize

import (
	"regexp"
	"strings"
)

var spaceRuns = regexp.MustCompile(`\s{2,}`)

// Text applies the substitution rules in order and collapses the resulting
// whitespace. It never fails; text that matches no rule passes through
// unchanged, and applying it to already-normalized text is a no-op.
func Text(s string) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replace)
	}
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}
