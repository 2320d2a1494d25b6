package marble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(frame int64, v string) Event { return Event{Frame: frame, Kind: Next, Value: v} }
func done(frame int64) Event          { return Event{Frame: frame, Kind: Complete} }

func TestParse_FramesAndValues(t *testing.T) {
	got, err := Parse("a-b--|")
	require.NoError(t, err)
	assert.Equal(t, []Event{next(0, "a"), next(2, "b"), done(5)}, got)
}

func TestParse_WhitespaceIgnored(t *testing.T) {
	got, err := Parse("  a b  c |")
	require.NoError(t, err)
	assert.Equal(t, []Event{next(0, "a"), next(1, "b"), next(2, "c"), done(3)}, got)
}

func TestParse_TimeProgression(t *testing.T) {
	got, err := Parse("50ms a 50ms b 49ms c |")
	require.NoError(t, err)
	assert.Equal(t, []Event{next(50, "a"), next(101, "b"), next(151, "c"), done(152)}, got)

	got, err = Parse("a 1s |")
	require.NoError(t, err)
	assert.Equal(t, []Event{next(0, "a"), done(1001)}, got)
}

func TestParse_DigitsWithoutUnitAreValues(t *testing.T) {
	got, err := Parse("12|")
	require.NoError(t, err)
	assert.Equal(t, []Event{next(0, "1"), next(1, "2"), done(2)}, got)
}

func TestParse_Group(t *testing.T) {
	got, err := Parse("a(bc)d|")
	require.NoError(t, err)
	assert.Equal(t, []Event{next(0, "a"), next(1, "b"), next(1, "c"), next(5, "d"), done(6)}, got)
}

func TestParse_Error(t *testing.T) {
	got, err := Parse("a#")
	require.NoError(t, err)
	assert.Equal(t, []Event{next(0, "a"), {Frame: 1, Kind: Error}}, got)
}

func TestParse_SubscriptionOffset(t *testing.T) {
	got, err := Parse("a-^-b|")
	require.NoError(t, err)
	assert.Equal(t, []Event{next(-2, "a"), next(2, "b"), done(3)}, got)
}

func TestParse_SyntaxErrors(t *testing.T) {
	for _, d := range []string{"(a", "a)", "((a))", "^^", "a|b"} {
		_, err := Parse(d)
		var se *SyntaxError
		assert.ErrorAs(t, err, &se, d)
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, d := range []string{
		"a-b--|",
		"(ab)-c|",
		"a---e---h- |",
		"50ms a 100ms c 50ms |",
		"a#",
	} {
		events, err := Parse(d)
		require.NoError(t, err)

		out, err := Format(events)
		require.NoError(t, err)

		again, err := Parse(out)
		require.NoError(t, err)
		assert.Equal(t, events, again, "diagram %q formatted as %q", d, out)
	}
}

func TestFormat_CompressesIdleRuns(t *testing.T) {
	out, err := Format([]Event{next(50, "a"), done(51)})
	require.NoError(t, err)
	assert.Equal(t, "50ms a|", out)
}

func TestFormat_Unrepresentable(t *testing.T) {
	_, err := Format([]Event{next(0, "a"), next(0, "b"), next(1, "c")})
	assert.ErrorIs(t, err, ErrUnrepresentable)

	_, err = Format([]Event{next(0, "ab")})
	assert.ErrorIs(t, err, ErrUnrepresentable)

	_, err = Format([]Event{next(0, "7")})
	assert.ErrorIs(t, err, ErrUnrepresentable)
}
