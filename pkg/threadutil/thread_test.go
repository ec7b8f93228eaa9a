package threadutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentShortTextSingleSegment(t *testing.T) {
	posts, err := Segment("Just a short update.", 280)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "Just a short update.", posts[0].Content)
	assert.Equal(t, 1, posts[0].Index)
	assert.Equal(t, 1, posts[0].Total)
}

func TestSegmentEmptyText(t *testing.T) {
	posts, err := Segment("   \n\n  ", 280)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSegmentRejectsTinyLimit(t *testing.T) {
	_, err := Segment("anything", 10)
	assert.ErrorIs(t, err, ErrLimitTooSmall)

	_, err = Segment("anything", 5)
	assert.ErrorIs(t, err, ErrLimitTooSmall)
}

func TestSegmentPacksParagraphs(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here."
	posts, err := Segment(text, 280)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, text, posts[0].Content)
}

func TestSegmentBreaksAtParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("alpha ", 30) + "end."
	para2 := strings.Repeat("bravo ", 30) + "end."
	posts, err := Segment(para1+"\n\n"+para2, 280)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, para1, posts[0].Content)
	assert.Equal(t, para2, posts[1].Content)
}

func TestSegmentOversizedParagraphSplitsBySentence(t *testing.T) {
	s1 := strings.Repeat("one two three four five ", 8) + "done."
	s2 := strings.Repeat("six seven eight nine ten ", 8) + "done."
	posts, err := Segment(s1+" "+s2, 280)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, s1, posts[0].Content)
	assert.Equal(t, s2, posts[1].Content)
}

func TestSegmentEverySegmentFitsWithNumbering(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This is a sentence that takes up a decent amount of room in a segment. ")
		if i%5 == 4 {
			b.WriteString("\n\n")
		}
	}

	for _, limit := range []int{280, 500, 2200} {
		posts, err := Segment(b.String(), limit)
		require.NoError(t, err)
		require.NotEmpty(t, posts)

		for _, p := range posts {
			numbered := FormatWithNumbering(p.Content, p.Index, p.Total)
			assert.LessOrEqual(t, utf8.RuneCountInString(numbered), limit,
				"segment %d/%d overflows limit %d", p.Index, p.Total, limit)
			assert.Equal(t, utf8.RuneCountInString(p.Content), p.CharacterCount)
		}
	}
}

func TestSegmentPreservesOrder(t *testing.T) {
	var parts []string
	for _, w := range []string{"first", "second", "third", "fourth", "fifth"} {
		parts = append(parts, w+" "+strings.Repeat("filler ", 35)+"end.")
	}
	posts, err := Segment(strings.Join(parts, "\n\n"), 280)
	require.NoError(t, err)
	require.Len(t, posts, 5)

	for i, p := range posts {
		assert.Truef(t, strings.HasPrefix(p.Content, parts[i][:5]), "segment %d out of order: %q", i, p.Content[:10])
		assert.Equal(t, i+1, p.Index)
		assert.Equal(t, 5, p.Total)
	}
}

func TestSegmentHardTruncatesGiantWord(t *testing.T) {
	word := strings.Repeat("x", 600)
	posts, err := Segment(word, 280)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.True(t, strings.HasSuffix(posts[0].Content, "..."))
	assert.LessOrEqual(t, posts[0].CharacterCount, 270)
}

func TestSegmentSmallestAcceptedLimits(t *testing.T) {
	// Limits just above the reserve leave only a few runes per segment; a
	// word longer than that is cut without an ellipsis.
	posts, err := Segment("ab", 11)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "a", posts[0].Content)

	posts, err = Segment("abcdef", 13)
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	assert.Equal(t, "abc", posts[0].Content)

	for limit := 11; limit <= 20; limit++ {
		posts, err := Segment("supercalifragilistic", limit)
		require.NoError(t, err)
		for _, p := range posts {
			assert.LessOrEqual(t, p.CharacterCount, limit-10)
		}
	}
}

func TestSegmentRuneCounting(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)
	posts, err := Segment(text, 280)
	require.NoError(t, err)

	for _, p := range posts {
		assert.LessOrEqual(t, p.CharacterCount, 270)
	}
}

func TestFormatWithNumbering(t *testing.T) {
	assert.Equal(t, "hello", FormatWithNumbering("hello", 1, 1))
	assert.Equal(t, "hello", FormatWithNumbering("hello", 1, 0))
	assert.Equal(t, "hello 1/3", FormatWithNumbering("hello", 1, 3))
	assert.Equal(t, "hello 3/3", FormatWithNumbering("hello", 3, 3))
}
