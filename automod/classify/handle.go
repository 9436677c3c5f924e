package classify

import (
	"regexp"
	"strings"
)

type handleKeyword struct {
	re     *regexp.Regexp
	weight float64
}

// Score at or above which a joining identity gets the HandleSignal tag.
const HandleThreshold = 1.0

// Weighted keyword union. Common first names on their own are deliberately absent.
var handleKeywords = []handleKeyword{
	{regexp.MustCompile(`(?i)girl`), 1.0},
	{regexp.MustCompile(`(?i)\bladki\b`), 1.0},
	{regexp.MustCompile(`(?i)\bshe\b`), 1.0},
	{regexp.MustCompile(`(?i)\bher\b`), 1.0},
	{regexp.MustCompile(`(?i)princess`), 1.0},
	{regexp.MustCompile(`(?i)\bqueen\b`), 1.0},
	{regexp.MustCompile(`(?i)didi`), 1.0},
	{regexp.MustCompile(`(?i)\bbeti\b`), 1.0},
	{regexp.MustCompile(`(?i)baby[_\-]?girl`), 1.0},
	{regexp.MustCompile(`(?i)angel`), 1.0},
	{regexp.MustCompile(`(?i)barbie`), 1.0},
	{regexp.MustCompile(`(?i)mrs?\b`), 1.0},
	{regexp.MustCompile(`(?i)madam`), 1.0},
	{regexp.MustCompile(`(?i)doll`), 1.0},
}

// Sums the weights of every distinct keyword found in the joined name parts (username, first name, last name, etc). Empty parts are skipped.
func HandleScore(parts ...string) float64 {
	name := joinNameParts(parts)
	if name == "" {
		return 0
	}
	score := 0.0
	for _, kw := range handleKeywords {
		if kw.re.MatchString(name) {
			score += kw.weight
		}
	}
	return score
}

// Classifies a display name or username at join time. Only ever returns HandleSignal, or the empty set.
func Handle(parts ...string) TagSet {
	var tags TagSet
	if HandleScore(parts...) >= HandleThreshold {
		tags = tags.With(HandleSignal)
	}
	return tags
}

func joinNameParts(parts []string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return Normalize(strings.Join(nonEmpty, " "))
}
