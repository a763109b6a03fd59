package lexicon

import (
	"fmt"
	"slices"
	"strings"
)

var defaultCoreWords = map[string][]string{
	"ko": {"더", "또", "아니", "네", "싫어", "줘", "이거", "저거", "뭐", "어디"},
	"en": {"more", "want", "no", "yes", "help", "go", "stop", "my", "that", "what"},
}

// DefaultCoreWords returns a copy of the built-in core vocabulary for lang.
func DefaultCoreWords(lang string) ([]string, bool) {
	w, ok := defaultCoreWords[lang]
	return slices.Clone(w), ok
}

// NormalizeCoreWords trims entries, drops blanks and removes duplicates
// while keeping first-seen order.
func NormalizeCoreWords(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// ResolveCoreWords returns the normalised user list, or the defaults for
// lang when the list is empty.
func ResolveCoreWords(lang string, words []string) ([]string, error) {
	defaults, ok := DefaultCoreWords(lang)
	if !ok {
		return nil, fmt.Errorf("lexicon: unsupported core vocabulary language %q", lang)
	}
	if n := NormalizeCoreWords(words); len(n) > 0 {
		return n, nil
	}
	return defaults, nil
}
