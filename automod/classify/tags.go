package classify

import (
	"strings"
)

// Semantic tag attached to a message or a joining identity.
type Tag uint8

const (
	Question Tag = iota
	Affirmation
	IdentityPronoun
	HandleSignal
	Negation
)

var tagNames = [...]string{
	Question:        "question",
	Affirmation:     "affirmation",
	IdentityPronoun: "identity-pronoun",
	HandleSignal:    "handle-signal",
	Negation:        "negation",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

// Set of tags, as a bitmask. The zero value is the empty set.
type TagSet uint8

func NewTagSet(tags ...Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s = s.With(t)
	}
	return s
}

func (s TagSet) Has(t Tag) bool {
	return s&(1<<t) != 0
}

func (s TagSet) With(t Tag) TagSet {
	return s | (1 << t)
}

func (s TagSet) Empty() bool {
	return s == 0
}

// Tags in declaration order.
func (s TagSet) Tags() []Tag {
	out := []Tag{}
	for t := range tagNames {
		if s.Has(Tag(t)) {
			out = append(out, Tag(t))
		}
	}
	return out
}

func (s TagSet) String() string {
	names := []string{}
	for _, t := range s.Tags() {
		names = append(names, t.String())
	}
	return "[" + strings.Join(names, ",") + "]"
}
