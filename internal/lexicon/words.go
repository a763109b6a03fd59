package lexicon

import (
	"math"
	"strings"
)

// DefaultFamiliarity is returned for words with no lexical entry.
const DefaultFamiliarity = 0.5

var irregularHa = map[string]bool{
	"해요": true, "해": true, "했어요": true, "했어": true, "하세요": true, "합니다": true,
}

// verbEndings are stripped in order by NormalizeWord; the first match wins.
var verbEndings = []string{
	"었어요", "았어요", "겠어요", "을게요", "습니다", "세요", "어요", "아요",
	"예요", "이에요", "어", "아", "니", "지", "고", "면", "서", "다", "요",
	"네", "래", "자", "까",
}

var punctuation = map[string]bool{
	".": true, ",": true, "!": true, "?": true, "~": true,
	"...": true, "ㅋㅋ": true, "ㅎㅎ": true, "^^": true,
}

var particleOnly = map[string]bool{
	"이": true, "가": true, "은": true, "는": true, "을": true, "를": true,
	"의": true, "에": true, "에서": true, "로": true, "으로": true, "와": true,
	"과": true, "하고": true, "랑": true, "이랑": true, "도": true, "만": true,
	"부터": true, "까지": true, "보다": true, "처럼": true, "같이": true,
	"한테": true, "에게": true, "께": true, "더러": true, "마저": true,
	"조차": true, "밖에": true,
}

// NormalizeWord maps an inflected predicate to its dictionary form:
// "먹어요" becomes "먹다". Words with no recognised ending are returned as-is.
func NormalizeWord(word string) string {
	if irregularHa[word] {
		return "하다"
	}
	for _, e := range verbEndings {
		if stem, ok := strings.CutSuffix(word, e); ok && stem != "" {
			return stem + "다"
		}
	}
	return word
}

// Familiarity returns a 0-1 familiarity for word. Lookup tries the surface
// form, then its dictionary form, then progressively shorter prefixes.
func (l *Lexicon) Familiarity(word string) float64 {
	if e, ok := l.words[word]; ok {
		return familiarity(e)
	}
	if e, ok := l.words[NormalizeWord(word)]; ok {
		return familiarity(e)
	}
	runes := []rune(word)
	for n := len(runes) - 1; n > 0; n-- {
		if e, ok := l.words[string(runes[:n])]; ok {
			return familiarity(e)
		}
	}
	return DefaultFamiliarity
}

func familiarity(e Entry) float64 {
	return float64(e.Frequency) / 100
}

// AgeLevel returns the acquisition age of word or its dictionary form.
func (l *Lexicon) AgeLevel(word string) (int, bool) {
	if e, ok := l.words[word]; ok && e.Age > 0 {
		return e.Age, true
	}
	if e, ok := l.words[NormalizeWord(word)]; ok && e.Age > 0 {
		return e.Age, true
	}
	return 0, false
}

// AgeAppropriateness scores how suitable word is for a child of age (clamped
// to 3-7). Words above the child's level lose 0.15 per year, floored at 0.1.
// Unknown words are estimated from familiarity.
func (l *Lexicon) AgeAppropriateness(word string, age int) float64 {
	age = min(max(age, 3), 7)
	level, ok := l.AgeLevel(word)
	if !ok {
		f := l.Familiarity(word)
		switch {
		case f >= 0.8:
			return 0.9
		case f >= 0.6:
			return 0.7
		case f >= 0.4:
			return 0.5
		default:
			return 0.4
		}
	}
	diff := level - age
	if diff <= 0 {
		return 1.0
	}
	return max(0.1, 1-0.15*float64(diff))
}

// LexicalScore summarises the lexical suitability of a tokenised sentence.
type LexicalScore struct {
	Frequency          float64
	AgeAppropriateness float64
	Overall            float64
	DifficultWords     []string
}

// SentenceLexical scores tokens for a child of age. Punctuation and
// stand-alone particles are ignored; an empty remainder scores 0.5 across
// the board. Overall weighs age appropriateness 0.7 and frequency 0.3.
func (l *Lexicon) SentenceLexical(tokens []string, age int) LexicalScore {
	var words []string
	for _, tok := range tokens {
		if punctuation[tok] {
			continue
		}
		if particleOnly[tok] && len([]rune(tok)) <= 2 {
			continue
		}
		words = append(words, tok)
	}
	if len(words) == 0 {
		return LexicalScore{Frequency: 0.5, AgeAppropriateness: 0.5, Overall: 0.5, DifficultWords: []string{}}
	}

	var freqSum, ageSum float64
	difficult := []string{}
	for _, w := range words {
		freqSum += l.Familiarity(w)
		a := l.AgeAppropriateness(w, age)
		ageSum += a
		level, known := l.AgeLevel(w)
		if (known && level > age) || (!known && a < 0.6) {
			difficult = append(difficult, w)
		}
	}
	n := float64(len(words))
	freq := round3(freqSum / n)
	ageScore := round3(ageSum / n)
	return LexicalScore{
		Frequency:          freq,
		AgeAppropriateness: ageScore,
		Overall:            round3(0.3*freq + 0.7*ageScore),
		DifficultWords:     difficult,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
