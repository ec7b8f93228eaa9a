package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakePatch(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want Patch
	}{
		{"no change", "hello", "hello", Patch{Start: 5}},
		{"append", "hello", "hello world", Patch{Start: 5, Insert: " world"}},
		{"prepend", "world", "hello world", Patch{Start: 0, Insert: "hello "}},
		{"delete middle", "hello cruel world", "hello world", Patch{Start: 6, DelCount: 6}},
		{"replace middle", "hello old world", "hello new world", Patch{Start: 6, DelCount: 3, Insert: "new"}},
		{"from empty", "", "draft", Patch{Start: 0, Insert: "draft"}},
		{"to empty", "draft", "", Patch{Start: 0, DelCount: 5}},
		{"multibyte", "héllo", "héllo!", Patch{Start: 5, Insert: "!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MakePatch(tt.old, tt.new)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.new, ApplyPatch(tt.old, got))
		})
	}
}

func TestPatchIsZero(t *testing.T) {
	assert.True(t, MakePatch("same", "same").IsZero())
	assert.False(t, MakePatch("same", "different").IsZero())
}

func TestApplyPatchClampsStaleOffsets(t *testing.T) {
	// Patch computed against a longer, stale copy of the text.
	p := Patch{Start: 50, DelCount: 10, Insert: " tail"}
	assert.Equal(t, "short tail", ApplyPatch("short", p))

	p = Patch{Start: 2, DelCount: 100, Insert: "X"}
	assert.Equal(t, "shX", ApplyPatch("short", p))
}

func TestPatchesInDifferentRegionsBothSurvive(t *testing.T) {
	base := "The quick brown fox jumps over the lazy dog"

	// Session A edits the front, session B edits the back; B's patch is made
	// against the original but applied after A's landed.
	a := MakePatch(base, "A quick brown fox jumps over the lazy dog")
	b := MakePatch(base, "The quick brown fox jumps over the sleepy dog")

	merged := ApplyPatch(ApplyPatch(base, b), a)
	assert.Equal(t, "A quick brown fox jumps over the sleepy dog", merged)
}
