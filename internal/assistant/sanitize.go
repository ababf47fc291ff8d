package assistant

import (
	"regexp"
	"strings"
)

var (
	markupTokens = strings.NewReplacer("*", "", "_", "", "`", "")

	// Leading heading markers, including repeated groups like "## # " and
	// any horizontal whitespace before them. Newlines are never consumed.
	headingMarkers = regexp.MustCompile(`(?m)^[\t\v\f\r\x{85}\p{Z}]*(?:#+[\t\v\f\r\x{85}\p{Z}]*)+`)

	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// Sanitize strips markup from model output and normalizes blank lines.
// Sanitize(Sanitize(s)) == Sanitize(s) for every s.
func Sanitize(s string) string {
	s = markupTokens.Replace(s)
	s = headingMarkers.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
