package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	punctuation = ".,!?;:()[]{}\"'@#$%^&*+-=<>/\\|_~` "
	gibberish   = "=|°§±×÷∞≤≥≠≈∑∏∫∂∇∆√∝∈∉⊂⊃∪∩∧∨¬→←↑↓↔↕↖↗↘↙"
	// special is gibberish without '='; Tesseract output scores it twice.
	special = "|°§±×÷∞≤≥≠≈∑∏∫∂∇∆√∝∈∉⊂⊃∪∩∧∨¬→←↑↓↔↕↖↗↘↙"
)

// Stats are simple counts over a recognized text.
type Stats struct {
	Chars      int `json:"total_chars"`
	Meaningful int `json:"meaningful_chars"` // letters, digits and whitespace
	Words      int `json:"words"`
	Lines      int `json:"lines"`
}

// ComputeStats counts characters, words and non-blank lines in s.
func ComputeStats(s string) Stats {
	st := Stats{Chars: utf8.RuneCountInString(s), Words: len(strings.Fields(s))}
	st.Meaningful = MeaningfulChars(s)
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			st.Lines++
		}
	}
	return st
}

// MeaningfulChars counts letters, digits and whitespace.
func MeaningfulChars(s string) int {
	n := 0
	for _, r := range s {
		if isAlnum(r) || unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

type components struct {
	readable   int
	gibberish  int
	special    int
	words      int
	lines      int
	singles    int
	fields     int
	trimmedLen int
}

func analyze(s string) components {
	var c components
	for _, r := range s {
		if isAlnum(r) || strings.ContainsRune(punctuation, r) {
			c.readable++
		}
		if strings.ContainsRune(gibberish, r) {
			c.gibberish++
		}
		if strings.ContainsRune(special, r) {
			c.special++
		}
	}
	fields := strings.Fields(s)
	c.fields = len(fields)
	for _, w := range fields {
		n := utf8.RuneCountInString(w)
		if n == 1 {
			c.singles++
		}
		if n > 1 && strings.IndexFunc(w, isAlnum) >= 0 {
			c.words++
		}
	}
	for _, l := range strings.Split(s, "\n") {
		if strings.IndexFunc(l, isAlnum) >= 0 {
			c.lines++
		}
	}
	c.trimmedLen = utf8.RuneCountInString(strings.TrimSpace(s))
	return c
}

func (c components) base() float64 {
	score := float64(c.readable)
	score -= 5 * float64(c.gibberish)
	score += 3 * float64(c.words)
	score += 2 * float64(c.lines)
	if float64(c.singles) > 0.6*float64(c.fields) {
		score -= 2 * float64(c.singles)
	}
	return score
}

// QualityScore rates readability of recognized text, normalized per 100 characters
// and floored at zero. Empty text scores zero.
func QualityScore(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	c := analyze(s)
	score := c.base() / float64(c.trimmedLen) * 100
	return math.Max(0, score)
}

// TesseractScore ranks Tesseract outputs of one image across page segmentation modes.
// It is not normalized and penalizes symbol noise harder; empty text scores -Inf.
func TesseractScore(s string) float64 {
	if strings.TrimSpace(s) == "" {
		return math.Inf(-1)
	}
	c := analyze(s)
	score := c.base() - 3*float64(c.special)
	if c.trimmedLen < 10 {
		score -= 10
	}
	if c.trimmedLen > 50 {
		score += 5
	}
	return score
}

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
