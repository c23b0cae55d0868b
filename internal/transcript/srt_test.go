package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Welcome to the course.

2
00:00:04,500 --> 00:00:09,000
Today we look at derivatives,
the slope of a curve.

broken block without a number
not a time line

3
00:00:09,500 --> 00:00:12,000
Let's begin.
`

func TestParse(t *testing.T) {
	entries := Parse(sampleSRT)

	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Index)
	assert.Equal(t, "00:00:01,000", entries[0].Start)
	assert.Equal(t, "00:00:04,000", entries[0].End)
	assert.Equal(t, "Welcome to the course.", entries[0].Text)

	// Multi-line text joined with a space
	assert.Equal(t, "Today we look at derivatives, the slope of a curve.", entries[1].Text)

	// The malformed block is skipped, not an error
	assert.Equal(t, 3, entries[2].Index)
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("just some prose\nwith no structure"))
}

func TestToPlaintext(t *testing.T) {
	entries := Parse(sampleSRT)

	withTS := ToPlaintext(entries, true)
	assert.Contains(t, withTS, "[00:00:01,000] Welcome to the course.")

	withoutTS := ToPlaintext(entries, false)
	assert.Equal(t, "Welcome to the course.\nToday we look at derivatives, the slope of a curve.\nLet's begin.", withoutTS)
}
