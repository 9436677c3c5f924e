package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  TagSet
	}{
		{text: "", out: NewTagSet()},
		{text: "   ", out: NewTagSet()},
		{text: "hello everyone", out: NewTagSet()},
		{text: "are you a girl?", out: NewTagSet(Question)},
		{text: "Kya tum ladki ho?", out: NewTagSet(Question, IdentityPronoun)},
		{text: "you girl are", out: NewTagSet(Question)},
		{text: "yes I am a girl", out: NewTagSet(Affirmation)},
		{text: "haan main ladki hoon", out: NewTagSet(Affirmation, IdentityPronoun)},
		{text: "I  AM   A   GIRL", out: NewTagSet(Affirmation)},
		{text: "my pronouns are she/her", out: NewTagSet(IdentityPronoun)},
		{text: "she / her please", out: NewTagSet(IdentityPronoun)},
		{text: "total queen vibes today", out: NewTagSet(IdentityPronoun)},
		{text: "I am not female", out: NewTagSet(Negation)},
		{text: "i am male", out: NewTagSet(Negation)},
		{text: "i am female", out: NewTagSet()},
		{text: "main ladka hun", out: NewTagSet(Negation)},
		{text: "I am a girl, jk not a girl", out: NewTagSet(Affirmation, Negation)},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, Text(fix.text), fix.text)
	}
}

func TestTextNeverHandleSignal(t *testing.T) {
	assert := assert.New(t)

	assert.False(Text("princess barbie angel").Has(HandleSignal))
}

func TestHandle(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		parts []string
		out   bool
	}{
		{parts: []string{}, out: false},
		{parts: []string{"", "  "}, out: false},
		{parts: []string{"rahul", "kumar"}, out: false},
		{parts: []string{"princess_rani"}, out: true},
		{parts: []string{"", "Sweet", "Angel"}, out: true},
		{parts: []string{"baby-girl99"}, out: true},
		{parts: []string{"coder", "Queen"}, out: true},
		{parts: []string{"Prínçess"}, out: true},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, Handle(fix.parts...).Has(HandleSignal), fix.parts)
	}
}

func TestHandleScore(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.0, HandleScore("rahul"))
	assert.Equal(1.0, HandleScore("princess"))
	assert.Equal(2.0, HandleScore("princess", "barbie"))
	// the same keyword twice only counts once
	assert.Equal(1.0, HandleScore("princess", "princess"))
}

func TestMentions(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{}, Mentions("no mentions here"))
	assert.Equal([]string{"alice_01"}, Mentions("hey @alice_01 and @bob"))
}

func TestNormalize(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", Normalize(""))
	assert.Equal("gdansk", Normalize("Gdańsk"))
	assert.Equal("hello world", Normalize("  Hello \n  World "))
	assert.Equal("she/her", Normalize("SHE/HER"))
}

func TestTagSet(t *testing.T) {
	assert := assert.New(t)

	s := NewTagSet(Negation, Question)
	assert.True(s.Has(Question))
	assert.True(s.Has(Negation))
	assert.False(s.Has(Affirmation))
	assert.False(s.Empty())
	assert.True(NewTagSet().Empty())
	assert.Equal([]Tag{Question, Negation}, s.Tags())
	assert.Equal("[question,negation]", s.String())
}
