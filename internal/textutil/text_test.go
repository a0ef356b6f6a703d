package textutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostProcess_Default(t *testing.T) {
	in := "  Hello\u200B   wor\u2019ld \n\n\n\nNext  "
	got := PostProcess(in, DefaultCleanOptions())
	assert.Equal(t, "Hello wor'ld\n\nNext", got)
}

func TestPostProcess_EmptyAndDisabled(t *testing.T) {
	assert.Empty(t, PostProcess("", DefaultCleanOptions()))

	opts := CleanOptions{NormalizeForm: "none"}
	assert.Equal(t, "  keep   as is ", PostProcess("  keep   as is ", opts))
}

func TestPostProcess_ReplaceMapOverridesDefaults(t *testing.T) {
	opts := CleanOptions{ReplaceMap: map[string]string{"foo": "bar", "fo": "X"}}
	assert.Equal(t, "bar X", PostProcess("foo fo", opts))
}

func TestPostProcess_RemovesControlChars(t *testing.T) {
	opts := CleanOptions{RemoveControlChars: true}
	assert.Equal(t, "ab\tc\n", PostProcess("a\x00b\tc\n\x07", opts))
}

func TestFixOCRErrors(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0 apples 1 5 8", "O apples I S B"},
		{"2023 stays", "2023 stays"},
		{"born", "bom"},
		{"clean", "dean"},
		{"vvater", "water"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FixOCRErrors(tt.in))
		})
	}
}

func TestNormalizeForComparison(t *testing.T) {
	assert.Equal(t, "hello big world", NormalizeForComparison("  Hello\n\tBIG   world "))
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats("a b\n\nc")
	assert.Equal(t, Stats{Chars: 6, Meaningful: 6, Words: 3, Lines: 2}, st)
}

func TestQualityScore(t *testing.T) {
	assert.Zero(t, QualityScore(""))
	assert.Zero(t, QualityScore("   \n"))
	assert.InDelta(t, 19.0/11.0*100, QualityScore("hello world"), 1e-9)
	assert.Zero(t, QualityScore("== =="), "gibberish is floored at zero")
	assert.Greater(t, QualityScore("resource aws_instance web"), QualityScore("r a w ~ | x"))
}

func TestTesseractScore(t *testing.T) {
	assert.True(t, math.IsInf(TesseractScore(""), -1))
	assert.InDelta(t, -3.0, TesseractScore("Hi"), 1e-9)

	long := "The quick brown fox jumps over the lazy dog near the river bank"
	require.Greater(t, len(long), 50)
	assert.Greater(t, TesseractScore(long), TesseractScore("Th3 qu|ck §"))
}
