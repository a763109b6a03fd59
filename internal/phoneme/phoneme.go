// Package phoneme finds target phonemes in Korean and English sentences.
//
// Korean words are analyzed syllable by syllable: every precomposed Hangul
// block is split into onset, nucleus and coda, and the requested slot is
// compared against the target jamo. English words are converted to ARPAbet
// through a pronunciation dictionary with a grapheme-to-phoneme fallback for
// words the dictionary does not know.
//
// Matching is word-level in both languages: a word with several qualifying
// syllables or phonemes still counts once.
package phoneme

import (
	"cmp"
	"slices"

	"github.com/MrWong99/talktalk/pkg/therapy"
)

// Match is the result of scanning a sentence for a target phoneme.
type Match struct {
	// MatchedWords lists qualifying words in sentence order. Duplicates are kept.
	MatchedWords []string
	// Count is len(MatchedWords).
	Count int
	// MeetsMinimum reports Count >= the requested minimum.
	MeetsMinimum bool
}

func newMatch(words []string, minOccurrences int) Match {
	return Match{
		MatchedWords: words,
		Count:        len(words),
		MeetsMinimum: len(words) >= minOccurrences,
	}
}

// Analyzer dispatches phoneme matching on the request language.
// It is read-only after construction and safe for concurrent use.
type Analyzer struct {
	dict *Dictionary
}

// NewAnalyzer returns an Analyzer that uses dict for English lookups.
func NewAnalyzer(dict *Dictionary) *Analyzer {
	return &Analyzer{dict: dict}
}

// Find scans sentence for target in the given language.
func (a *Analyzer) Find(lang therapy.Language, sentence string, target therapy.Target) Match {
	if lang == therapy.English {
		return a.dict.FindMatchesEN(sentence, target.Phoneme, target.Min())
	}
	return FindMatches(sentence, target.Phoneme, target.Position, target.Min())
}

// Dictionary returns the English dictionary backing the Analyzer.
func (a *Analyzer) Dictionary() *Dictionary {
	return a.dict
}

// Info describes an ARPAbet consonant for display and prompt building.
type Info struct {
	IPA      string
	Examples string
}

// ARPAbetInfo maps the consonant targets offered to clinicians to their IPA
// symbol and example words.
var ARPAbetInfo = map[string]Info{
	"R":  {"/r/", "red, car, run"},
	"L":  {"/l/", "light, ball, let"},
	"S":  {"/s/", "sun, bus, sit"},
	"Z":  {"/z/", "zoo, nose, zip"},
	"TH": {"/θ/", "think, bath, three"},
	"DH": {"/ð/", "this, mother, the"},
	"SH": {"/ʃ/", "ship, fish, she"},
	"CH": {"/tʃ/", "chip, watch, chair"},
	"F":  {"/f/", "fish, leaf, fun"},
	"V":  {"/v/", "van, love, very"},
	"K":  {"/k/", "cat, back, key"},
	"G":  {"/g/", "go, big, get"},
	"T":  {"/t/", "top, bat, ten"},
	"D":  {"/d/", "dog, bed, day"},
	"P":  {"/p/", "pat, cup, pen"},
	"B":  {"/b/", "bat, cab, big"},
	"M":  {"/m/", "man, ham, mom"},
	"N":  {"/n/", "no, sun, new"},
	"NG": {"/ŋ/", "sing, ring, long"},
	"W":  {"/w/", "we, swim, water"},
	"Y":  {"/j/", "yes, you, yellow"},
	"HH": {"/h/", "hat, hello, house"},
}

// TargetInfo is one entry of [EnglishTargets].
type TargetInfo struct {
	Phoneme  string `json:"phoneme"`
	IPA      string `json:"ipa"`
	Examples string `json:"examples"`
}

// EnglishTargets lists [ARPAbetInfo] sorted by phoneme.
func EnglishTargets() []TargetInfo {
	out := make([]TargetInfo, 0, len(ARPAbetInfo))
	for p, info := range ARPAbetInfo {
		out = append(out, TargetInfo{Phoneme: p, IPA: info.IPA, Examples: info.Examples})
	}
	slices.SortFunc(out, func(a, b TargetInfo) int { return cmp.Compare(a.Phoneme, b.Phoneme) })
	return out
}
