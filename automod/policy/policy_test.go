package policy

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTableDefaults(t *testing.T) {
	assert := assert.New(t)
	tbl := NewTable()

	assert.True(tbl.Bool(AutobanOnAffirm))
	assert.True(tbl.Bool(WarnThenBanPronouns))
	assert.True(tbl.Bool(UsernameHeuristics))
	assert.False(tbl.Bool(RequireQuestionContext))
	assert.Equal(120, tbl.Int(UsernameConfirmTimeoutS))
	assert.Equal(86400, tbl.Int(TempbanSeconds))
	assert.Equal(7, tbl.Int(StrikeWindowDays))
	assert.Equal(20, tbl.Int(RateLimitWarnS))
	assert.Equal(30, tbl.Int(ContextWindowMessages))
	assert.Equal(180*time.Second, tbl.Duration(ContextLinkWindowS, time.Second))
	assert.Equal(len(Defaults()), len(tbl.Snapshot()))
	assert.Equal(AutobanOnAffirm, tbl.Names()[0])

	// wrong type reads as zero
	assert.Equal(0, tbl.Int(AutobanOnAffirm))
	assert.False(tbl.Bool("nope"))
}

func TestTableSet(t *testing.T) {
	assert := assert.New(t)
	tbl := NewTable()

	fixtures := []struct {
		name string
		raw  string
		err  error
	}{
		{name: AutobanOnAffirm, raw: "off", err: nil},
		{name: AutobanOnAffirm, raw: "YES", err: nil},
		{name: AutobanOnAffirm, raw: "maybe", err: ErrInvalidValue},
		{name: AutobanOnAffirm, raw: "", err: ErrInvalidValue},
		{name: TempbanSeconds, raw: "3600", err: nil},
		{name: TempbanSeconds, raw: "-5", err: ErrInvalidValue},
		{name: TempbanSeconds, raw: "1h", err: ErrInvalidValue},
		{name: TempbanSeconds, raw: "31622400", err: nil},
		{name: TempbanSeconds, raw: "31622401", err: ErrInvalidValue},
		{name: TempbanSeconds, raw: "10000000000", err: ErrInvalidValue},
		{name: TempbanSeconds, raw: "3600", err: nil},
		{name: StrikeWindowDays, raw: "3651", err: ErrInvalidValue},
		{name: UsernameConfirmTimeoutS, raw: "86401", err: ErrInvalidValue},
		{name: ContextWindowMessages, raw: "100000000", err: ErrInvalidValue},
		{name: ContextWindowMessages, raw: "1000", err: nil},
		{name: "does_not_exist", raw: "1", err: ErrUnknownOption},
	}
	for _, fix := range fixtures {
		_, err := tbl.Set(fix.name, fix.raw)
		if fix.err == nil {
			assert.NoError(err, fix.name+"="+fix.raw)
		} else {
			assert.True(errors.Is(err, fix.err), fix.name+"="+fix.raw)
		}
	}

	// failed sets leave previous values in place
	assert.True(tbl.Bool(AutobanOnAffirm))
	assert.Equal(3600, tbl.Int(TempbanSeconds))
}

func TestParseBool(t *testing.T) {
	assert := assert.New(t)

	for _, s := range []string{"1", "true", "Yes", " on "} {
		b, err := ParseBool(s)
		assert.NoError(err)
		assert.True(b, s)
	}
	for _, s := range []string{"0", "FALSE", "no", "off"} {
		b, err := ParseBool(s)
		assert.NoError(err)
		assert.False(b, s)
	}
	_, err := ParseBool("2")
	assert.ErrorIs(err, ErrInvalidValue)
}

func TestTableString(t *testing.T) {
	assert := assert.New(t)
	tbl := NewTable()

	assert.Contains(tbl.String(), "autoban_on_affirm_female=true")
	assert.Contains(tbl.String(), "tempban_seconds=86400")
}

func TestIntBounds(t *testing.T) {
	assert := assert.New(t)
	tbl := NewTable()

	for _, o := range Defaults() {
		if o.Kind != KindInt {
			assert.Equal(0, Max(o.Name), o.Name)
			continue
		}
		assert.True(o.Max >= o.Int, o.Name)

		// the largest accepted value never wraps when read as a duration
		unit := time.Second
		if o.Name == StrikeWindowDays {
			unit = 24 * time.Hour
		}
		_, err := tbl.Set(o.Name, strconv.Itoa(o.Max))
		assert.NoError(err)
		assert.True(tbl.Duration(o.Name, unit) > 0, o.Name)
	}
	assert.Equal(24*time.Hour, MaxDuration(RateLimitWarnS, time.Second))
	assert.Equal(0, Max("nope"))
}
