package classify

import (
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lower-cases the text, folds accented characters to their base form, and collapses runs of whitespace.
//
// Punctuation is preserved, since several patterns (eg, "she/her") depend on it.
func Normalize(text string) string {
	// this needs to be re-defined in every call; transformers are stateful and not safe for concurrent use
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(normFunc, strings.ToLower(text))
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		out = strings.ToLower(text)
	}
	return strings.Join(strings.Fields(out), " ")
}
