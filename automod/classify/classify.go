// Pattern-based message and handle classification.
//
// Everything in this package is pure and safe for concurrent use: the same input always produces the same tags. Detection patterns live here so they can be changed without touching the rules engine.
package classify

import (
	"regexp"
	"strings"
)

var (
	// "tum ladki ho?", "are you a girl", "kya tum ladki ho"
	questionRegex = regexp.MustCompile(`(?i)\b(?:kya\s+)?(?:tum|aap|you|are\s+you)\s+(?:ladki|girl)\s+(?:ho|hai|are)\b|\bare\s+you\s+a\s+girl\b`)

	// "haan main ladki hoon", "i am a girl", "yes i am girl"
	affirmationRegex = regexp.MustCompile(`(?i)\b(?:haan|yes|main|i\s*am|me)\s+(?:ladki|girl)(?:\s*(?:hun|hoon|am))?\b|\bi\s*am\s*a\s*girl\b`)

	// pronoun pairs and self-descriptors
	pronounRegex = regexp.MustCompile(`(?i)\b(?:she\s*/\s*her|she\s*her|ladki|girl\s+vibes?|queen\s+vibes?)\b`)

	// explicit first-person denials
	negationRegex = regexp.MustCompile(`(?i)\b(?:i\s*am\s*not\s*female|not\s*a\s*girl|main\s*ladka\s*hun|i\s*am\s*male)\b`)

	mentionRegex = regexp.MustCompile(`@([A-Za-z0-9_]{5,})`)
)

// Classifies free-form message text. Never returns HandleSignal; see Handle for that.
//
// A message can carry both Affirmation and Negation; resolving that is left to the caller.
func Text(text string) TagSet {
	var tags TagSet
	if strings.TrimSpace(text) == "" {
		return tags
	}
	norm := Normalize(text)
	if questionRegex.MatchString(norm) {
		tags = tags.With(Question)
	}
	if affirmationRegex.MatchString(norm) {
		tags = tags.With(Affirmation)
	}
	if pronounRegex.MatchString(norm) {
		tags = tags.With(IdentityPronoun)
	}
	if negationRegex.MatchString(norm) {
		tags = tags.With(Negation)
	}
	return tags
}

// Returns the @-mentioned usernames in a message, without the leading '@'.
func Mentions(text string) []string {
	out := []string{}
	for _, m := range mentionRegex.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}
