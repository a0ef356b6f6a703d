// Package textutil cleans recognized text and scores it for comparison and tuning.
package textutil

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanOptions controls text post-processing.
type CleanOptions struct {
	NormalizeForm      string // "NFC" (default), "NFKC", "NFD", "NFKD", "none" to disable
	CollapseWhitespace bool   // collapse runs of spaces and tabs within a line
	Trim               bool
	RemoveControlChars bool
	RemoveZeroWidth    bool
	// FixOCRErrors applies the common misread substitutions (standalone 0/1/5/8, rn, cl, vv).
	FixOCRErrors bool
	ReplaceMap   map[string]string // applied after normalization; overrides the typographic defaults
}

// DefaultCleanOptions returns the options used by --postprocess.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		NormalizeForm:      "NFC",
		CollapseWhitespace: true,
		Trim:               true,
		RemoveControlChars: true,
		RemoveZeroWidth:    true,
		FixOCRErrors:       true,
	}
}

// PostProcess applies normalization, cleaning and OCR fixups to recognized text.
// Line structure is kept; blank-line runs are squeezed to one empty line.
func PostProcess(s string, opts CleanOptions) string {
	if s == "" {
		return s
	}

	s = normalize(s, opts.NormalizeForm)
	if opts.RemoveZeroWidth {
		s = removeZeroWidth(s)
	}
	if opts.RemoveControlChars {
		s = removeControlChars(s)
	}
	if len(opts.ReplaceMap) > 0 {
		s = applyReplaceMap(s, opts.ReplaceMap)
	} else {
		s = applyReplaceMap(s, typographic)
	}
	if opts.FixOCRErrors {
		s = FixOCRErrors(s)
	}
	if opts.CollapseWhitespace {
		s = collapseWhitespace(s)
	}
	if opts.Trim {
		s = strings.TrimSpace(s)
	}
	return s
}

func normalize(s, form string) string {
	switch strings.ToUpper(form) {
	case "NFC", "":
		return norm.NFC.String(s)
	case "NFKC":
		return norm.NFKC.String(s)
	case "NFD":
		return norm.NFD.String(s)
	case "NFKD":
		return norm.NFKD.String(s)
	}
	return s
}

var typographic = map[string]string{
	"\u2018": "'",
	"\u2019": "'",
	"\u201C": "\"",
	"\u201D": "\"",
	"\u201E": "\"",
	"\u2013": "-",
	"\u2014": "-",
	"\u00A0": " ",
	"\u2009": " ",
}

func applyReplaceMap(s string, m map[string]string) string {
	// longer keys first so overlapping keys resolve deterministically
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		s = strings.ReplaceAll(s, k, m[k])
	}
	return s
}

var (
	standaloneDigit = map[string]*regexp.Regexp{
		"O": regexp.MustCompile(`\b0\b`),
		"I": regexp.MustCompile(`\b1\b`),
		"S": regexp.MustCompile(`\b5\b`),
		"B": regexp.MustCompile(`\b8\b`),
	}
	digitOrder = []string{"O", "I", "S", "B"}

	letterPairs = []struct{ from, to string }{
		{"rn", "m"},
		{"cl", "d"},
		{"vv", "w"},
	}
)

// FixOCRErrors replaces standalone 0/1/5/8 with O/I/S/B and the rn/cl/vv letter pairs with m/d/w.
func FixOCRErrors(s string) string {
	for _, to := range digitOrder {
		s = standaloneDigit[to].ReplaceAllString(s, to)
	}
	for _, p := range letterPairs {
		s = strings.ReplaceAll(s, p.from, p.to)
	}
	return s
}

var (
	spaceRun    = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines  = regexp.MustCompile(`\n\s*\n\s*\n+`)
	lineEdgeRun = regexp.MustCompile(`(?m)^ +| +$`)
)

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	s = lineEdgeRun.ReplaceAllString(s, "")
	return blankLines.ReplaceAllString(s, "\n\n")
}

func removeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func removeZeroWidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF':
			return -1
		}
		return r
	}, s)
}

// NormalizeForComparison lowercases s and collapses all whitespace to single spaces.
func NormalizeForComparison(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
