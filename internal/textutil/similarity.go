package textutil

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Metrics compares a recognized text against a reference. Ratios are in [0, 1].
type Metrics struct {
	ExactMatch     float64 `json:"exact_match"`
	SequenceRatio  float64 `json:"sequence_ratio"`
	CharacterRatio float64 `json:"character_ratio"`
	WordRatio      float64 `json:"word_ratio"`
}

// Compare computes all similarity metrics between reference and text.
// Two empty texts match fully; exactly one empty text matches not at all.
func Compare(reference, text string) Metrics {
	if reference == "" && text == "" {
		return Metrics{ExactMatch: 1, SequenceRatio: 1, CharacterRatio: 1, WordRatio: 1}
	}
	if reference == "" || text == "" {
		return Metrics{}
	}
	m := Metrics{
		SequenceRatio:  SequenceRatio(reference, text),
		CharacterRatio: SequenceRatio(strings.ToLower(reference), strings.ToLower(text)),
		WordRatio:      WordRatio(reference, text),
	}
	if strings.TrimSpace(reference) == strings.TrimSpace(text) {
		m.ExactMatch = 1
	}
	return m
}

// Similarity returns the percentage similarity of two texts after lowercasing and
// collapsing whitespace.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	na, nb := NormalizeForComparison(a), NormalizeForComparison(b)
	if na == nb {
		return 100
	}
	return SequenceRatio(na, nb) * 100
}

// WordRatio is the Jaccard index of the lowercased word sets of a and b.
func WordRatio(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// SequenceRatio is difflib's ratio over the characters of a and b. For a second
// text of 200 characters or more, characters that make up over 1% of it are
// ignored as match anchors (autojunk), so long texts score lower than their
// plain overlap would suggest.
func SequenceRatio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}
