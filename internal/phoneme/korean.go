package phoneme

import (
	"strings"

	"github.com/MrWong99/talktalk/pkg/therapy"
)

const (
	hangulBase  = 0xAC00
	hangulLast  = 0xD7A3
	nucleusSpan = 21 * 28
	codaSpan    = 28
)

var (
	onsets = []string{
		"ㄱ", "ㄲ", "ㄴ", "ㄷ", "ㄸ", "ㄹ", "ㅁ", "ㅂ", "ㅃ", "ㅅ",
		"ㅆ", "ㅇ", "ㅈ", "ㅉ", "ㅊ", "ㅋ", "ㅌ", "ㅍ", "ㅎ",
	}
	nuclei = []string{
		"ㅏ", "ㅐ", "ㅑ", "ㅒ", "ㅓ", "ㅔ", "ㅕ", "ㅖ", "ㅗ", "ㅘ", "ㅙ",
		"ㅚ", "ㅛ", "ㅜ", "ㅝ", "ㅞ", "ㅟ", "ㅠ", "ㅡ", "ㅢ", "ㅣ",
	}
	codas = []string{
		"", "ㄱ", "ㄲ", "ㄳ", "ㄴ", "ㄵ", "ㄶ", "ㄷ", "ㄹ", "ㄺ",
		"ㄻ", "ㄼ", "ㄽ", "ㄾ", "ㄿ", "ㅀ", "ㅁ", "ㅂ", "ㅄ", "ㅅ",
		"ㅆ", "ㅇ", "ㅈ", "ㅊ", "ㅋ", "ㅌ", "ㅍ", "ㅎ",
	}
)

// Syllable is a composed Hangul block split into its jamo. Coda is empty for
// open syllables.
type Syllable struct {
	Onset   string
	Nucleus string
	Coda    string
}

// Decompose splits a precomposed Hangul syllable (U+AC00..U+D7A3). It
// reports false for any other rune, including standalone jamo.
func Decompose(r rune) (Syllable, bool) {
	if r < hangulBase || r > hangulLast {
		return Syllable{}, false
	}
	v := int(r - hangulBase)
	return Syllable{
		Onset:   onsets[v/nucleusSpan],
		Nucleus: nuclei[(v%nucleusSpan)/codaSpan],
		Coda:    codas[v%codaSpan],
	}, true
}

// IsHangul reports whether r is a precomposed Hangul syllable.
func IsHangul(r rune) bool {
	return r >= hangulBase && r <= hangulLast
}

// silentOnset is the placeholder consonant written in vowel-initial
// syllables. It is only a real phoneme (/ŋ/) in coda position.
const silentOnset = "ㅇ"

// HasPhonemeAt reports whether any syllable of word carries phoneme in the
// given position. Non-Hangul runes never match.
func HasPhonemeAt(word, phoneme string, pos therapy.Position) bool {
	if phoneme == silentOnset && pos == therapy.Onset {
		return false
	}
	for _, r := range word {
		s, ok := Decompose(r)
		if !ok {
			continue
		}
		if phoneme == silentOnset {
			if (pos == therapy.Coda || pos == therapy.Any) && s.Coda == silentOnset {
				return true
			}
			continue
		}
		switch pos {
		case therapy.Onset:
			if s.Onset == phoneme {
				return true
			}
		case therapy.Nucleus:
			if s.Nucleus == phoneme {
				return true
			}
		case therapy.Coda:
			if s.Coda != "" && s.Coda == phoneme {
				return true
			}
		case therapy.Any:
			if s.Onset == phoneme || s.Nucleus == phoneme || (s.Coda != "" && s.Coda == phoneme) {
				return true
			}
		}
	}
	return false
}

// FindMatches returns the whitespace-separated words of sentence that carry
// phoneme at pos. Each word counts once regardless of how many of its
// syllables qualify.
func FindMatches(sentence, phoneme string, pos therapy.Position, minOccurrences int) Match {
	matched := []string{}
	for _, w := range strings.Fields(sentence) {
		if HasPhonemeAt(w, phoneme, pos) {
			matched = append(matched, w)
		}
	}
	return newMatch(matched, minOccurrences)
}
