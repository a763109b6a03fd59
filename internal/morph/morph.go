// Package morph holds rule-table heuristics for Korean word structure:
// particle stripping, predicate detection, semantic repetition, structure
// signatures and noun extraction. English inputs get the trivial
// lowercase-word equivalents where a caller needs one.
//
// The tables live in tables.go; this file only consumes them.
package morph

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/MrWong99/talktalk/pkg/therapy"
)

// byLengthDesc returns a copy of list sorted longest first (in runes).
func byLengthDesc(list []string) []string {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})
	return out
}

var (
	particlesLongest    = byLengthDesc(Particles)
	nounEndingsLongest  = byLengthDesc(NounEndings)
	commonEndingLongest = byLengthDesc(CommonEndings)
)

// longestSuffix returns the first entry of sorted that word ends with while
// leaving a non-empty remainder.
func longestSuffix(word string, sorted []string) (string, bool) {
	for _, s := range sorted {
		if len(word) > len(s) && strings.HasSuffix(word, s) {
			return s, true
		}
	}
	return "", false
}

// StripParticle removes the longest trailing particle from word.
func StripParticle(word string) string {
	if p, ok := longestSuffix(word, particlesLongest); ok {
		return strings.TrimSuffix(word, p)
	}
	return word
}

// RepeatedStem reports the first descriptive stem (in sorted key order)
// whose surface forms start two or more words of sentence.
func RepeatedStem(sentence string) (string, bool) {
	words := strings.Fields(sentence)
	stems := make([]string, 0, len(StemGroups))
	for s := range StemGroups {
		stems = append(stems, s)
	}
	slices.Sort(stems)

	for _, stem := range stems {
		n := 0
		for _, w := range words {
			for _, form := range StemGroups[stem] {
				if strings.HasPrefix(w, form) {
					n++
					break
				}
			}
		}
		if n >= 2 {
			return stem, true
		}
	}
	return "", false
}

// HasPredicate reports whether the last word of sentence ends in a
// predicate ending, optionally followed by closing punctuation.
func HasPredicate(sentence string) bool {
	words := strings.Fields(sentence)
	if len(words) == 0 {
		return false
	}
	last := strings.TrimRight(words[len(words)-1], ClosingPunct)
	if NounLookalikes[last] {
		return false
	}
	for _, e := range PredicateEndings {
		if strings.HasSuffix(last, e) {
			return true
		}
	}
	return false
}

// HasSpacingArtifact reports whether an ending was split off into its own
// token, as in "이거 뭐 야".
func HasSpacingArtifact(sentence string) bool {
	return spacingArtifact.MatchString(sentence)
}

// Signature returns a coarse structure signature. Korean words become
// "N<particle>", "V", "V<punct>" or "X"; other languages use the lowercased
// sentence.
func Signature(sentence string, lang therapy.Language) string {
	if lang != therapy.Korean {
		return strings.ToLower(sentence)
	}
	words := strings.Fields(sentence)
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if p, ok := longestSuffix(w, particlesLongest); ok {
			parts = append(parts, "N"+p)
			continue
		}
		if endsWithAny(w, VerbEndingChars) {
			parts = append(parts, "V")
			continue
		}
		if r, _ := utf8.DecodeLastRuneInString(w); strings.ContainsRune("!?~", r) {
			parts = append(parts, "V"+string(r))
			continue
		}
		parts = append(parts, "X")
	}
	return strings.Join(parts, " ")
}

// Nouns returns the distinct nouns of sentence in first-seen order. Korean
// words lose their longest noun ending and are kept when at least two
// characters remain; other languages return the lowercased words.
func Nouns(sentence string, lang therapy.Language) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	if lang != therapy.Korean {
		for _, w := range strings.Fields(strings.ToLower(sentence)) {
			add(w)
		}
		return out
	}
	for _, w := range strings.Fields(sentence) {
		noun := w
		if e, ok := longestSuffix(w, nounEndingsLongest); ok {
			noun = strings.TrimSuffix(w, e)
		}
		if utf8.RuneCountInString(noun) >= 2 {
			add(noun)
		}
	}
	return out
}

// Ending returns the closing morphology of word: its final punctuation
// mark, else its longest common ending, else its last two characters.
func Ending(word string) string {
	if word == "" {
		return ""
	}
	if r, _ := utf8.DecodeLastRuneInString(word); strings.ContainsRune(".!?~", r) {
		return string(r)
	}
	for _, e := range commonEndingLongest {
		if strings.HasSuffix(word, e) {
			return e
		}
	}
	runes := []rune(word)
	if len(runes) <= 2 {
		return word
	}
	return string(runes[len(runes)-2:])
}

func endsWithAny(w string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(w, s) {
			return true
		}
	}
	return false
}
