// Package vocabulary holds recognition hint lists: ordered, de-duplicated, non-empty
// word lists passed to engines that accept custom words.
package vocabulary

import (
	"errors"
	"strings"
)

// ErrEmptyVocabulary is returned when a list would contain no words.
var ErrEmptyVocabulary = errors.New("vocabulary is empty")

// List is an immutable hint list.
type List struct {
	words []string
}

// New builds a List from words. Words are trimmed, empty entries dropped and
// case-sensitive duplicates removed keeping the first occurrence.
func New(words []string) (*List, error) {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, ErrEmptyVocabulary
	}
	return &List{words: out}, nil
}

// Words returns a copy of the words in order.
func (l *List) Words() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.words...)
}

// Len returns the number of words.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.words)
}

// Coverage returns the words that occur in text, compared case-insensitively.
func (l *List) Coverage(text string) []string {
	if l == nil {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, w := range l.words {
		if strings.Contains(lower, strings.ToLower(w)) {
			found = append(found, w)
		}
	}
	return found
}

// Combine concatenates lists in order into a new de-duplicated list. Nil lists are skipped.
func Combine(lists ...*List) (*List, error) {
	var words []string
	for _, l := range lists {
		if l != nil {
			words = append(words, l.words...)
		}
	}
	return New(words)
}
