package phoneme

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const defaultStemThreshold = 0.70

// RulePredictor predicts pronunciations for out-of-vocabulary words.
//
// It first tries to explain the word as an inflection of a dictionary entry
// ("runs", "hopping", "cried"). Candidate stems are produced by suffix rules
// and ranked in two stages:
//
//  1. Phonetic agreement: one of the stem's Double Metaphone codes must be a
//     prefix of one of the word's codes, or
//  2. Jaro-Winkler similarity between word and stem must reach the stem
//     threshold.
//
// The best stem's pronunciation is extended with the suffix's phonemes. When
// no stem qualifies, letter-to-sound rules produce a rough pronunciation.
type RulePredictor struct {
	dict      *Dictionary
	threshold float64
}

// PredictorOption configures a RulePredictor.
type PredictorOption func(*RulePredictor)

// WithStemThreshold sets the minimum Jaro-Winkler score for a stem without
// phonetic agreement. Default: 0.70.
func WithStemThreshold(t float64) PredictorOption {
	return func(p *RulePredictor) {
		p.threshold = t
	}
}

// NewRulePredictor returns a predictor resolving stems against dict.
func NewRulePredictor(dict *Dictionary, opts ...PredictorOption) *RulePredictor {
	p := &RulePredictor{dict: dict, threshold: defaultStemThreshold}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Predict implements Predictor.
func (p *RulePredictor) Predict(word string) []string {
	w := strings.ToLower(lettersOnly(word))
	if w == "" {
		return nil
	}
	if phones, ok := p.inflected(w); ok {
		return phones
	}
	return letterToSound(w)
}

type suffixKind int

const (
	suffixPlural suffixKind = iota
	suffixPast
	suffixProgressive
	suffixComparative
	suffixSuperlative
)

type stemCandidate struct {
	stem string
	kind suffixKind
}

// stemCandidates lists the possible (stem, suffix) decompositions of w.
func stemCandidates(w string) []stemCandidate {
	var out []stemCandidate
	add := func(stem string, k suffixKind) {
		if len(stem) >= 2 {
			out = append(out, stemCandidate{stem, k})
		}
	}
	trim := func(suffix string, k suffixKind) {
		if !strings.HasSuffix(w, suffix) {
			return
		}
		base := strings.TrimSuffix(w, suffix)
		add(base, k)
		add(base+"e", k)
		if n := len(base); n >= 2 && base[n-1] == base[n-2] {
			add(base[:n-1], k)
		}
	}

	if strings.HasSuffix(w, "ies") {
		add(strings.TrimSuffix(w, "ies")+"y", suffixPlural)
	}
	if strings.HasSuffix(w, "ied") {
		add(strings.TrimSuffix(w, "ied")+"y", suffixPast)
	}
	if strings.HasSuffix(w, "es") {
		add(strings.TrimSuffix(w, "es"), suffixPlural)
	}
	if strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		add(strings.TrimSuffix(w, "s"), suffixPlural)
	}
	trim("ed", suffixPast)
	trim("ing", suffixProgressive)
	trim("est", suffixSuperlative)
	trim("er", suffixComparative)
	return out
}

func (p *RulePredictor) inflected(w string) ([]string, bool) {
	wordCodes := metaphoneCodes(w)

	var (
		best      stemCandidate
		bestScore float64
		found     bool
	)
	for _, c := range stemCandidates(w) {
		if _, ok := p.dict.entries[c.stem]; !ok {
			continue
		}
		score := matchr.JaroWinkler(w, c.stem, false)
		if !codesAgree(wordCodes, metaphoneCodes(c.stem)) && score < p.threshold {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	if !found {
		return nil, false
	}

	base := p.dict.entries[best.stem]
	out := make([]string, 0, len(base)+3)
	out = append(out, base...)
	return append(out, suffixPhonemes(base, best.kind)...), true
}

var (
	sibilants = map[string]bool{"S": true, "Z": true, "SH": true, "ZH": true, "CH": true, "JH": true}
	voiceless = map[string]bool{"P": true, "T": true, "K": true, "F": true, "TH": true, "S": true, "SH": true, "CH": true}
)

func suffixPhonemes(stem []string, k suffixKind) []string {
	last := ""
	if len(stem) > 0 {
		last = stem[len(stem)-1]
	}
	switch k {
	case suffixPlural:
		switch {
		case sibilants[last]:
			return []string{"IH", "Z"}
		case voiceless[last]:
			return []string{"S"}
		default:
			return []string{"Z"}
		}
	case suffixPast:
		switch {
		case last == "T" || last == "D":
			return []string{"IH", "D"}
		case voiceless[last]:
			return []string{"T"}
		default:
			return []string{"D"}
		}
	case suffixProgressive:
		return []string{"IH", "NG"}
	case suffixComparative:
		return []string{"ER"}
	case suffixSuperlative:
		return []string{"AH", "S", "T"}
	}
	return nil
}

func metaphoneCodes(w string) map[string]struct{} {
	codes := make(map[string]struct{}, 2)
	p, s := matchr.DoubleMetaphone(w)
	if p != "" {
		codes[p] = struct{}{}
	}
	if s != "" {
		codes[s] = struct{}{}
	}
	return codes
}

// codesAgree reports whether some stem code is a prefix of some word code.
// An inflected form keeps its stem's consonant skeleton and appends to it.
func codesAgree(word, stem map[string]struct{}) bool {
	for w := range word {
		for s := range stem {
			if strings.HasPrefix(w, s) {
				return true
			}
		}
	}
	return false
}

// graphemes is checked longest first at every position.
var graphemes = []struct {
	letters string
	phones  []string
}{
	{"tch", []string{"CH"}},
	{"igh", []string{"AY"}},
	{"th", []string{"TH"}},
	{"sh", []string{"SH"}},
	{"ch", []string{"CH"}},
	{"ph", []string{"F"}},
	{"wh", []string{"W"}},
	{"ck", []string{"K"}},
	{"ng", []string{"NG"}},
	{"qu", []string{"K", "W"}},
	{"gh", nil},
	{"ee", []string{"IY"}},
	{"ea", []string{"IY"}},
	{"oo", []string{"UW"}},
	{"ai", []string{"EY"}},
	{"ay", []string{"EY"}},
	{"oa", []string{"OW"}},
	{"ou", []string{"AW"}},
	{"ow", []string{"AW"}},
	{"oi", []string{"OY"}},
	{"oy", []string{"OY"}},
	{"ar", []string{"AA", "R"}},
	{"or", []string{"AO", "R"}},
	{"er", []string{"ER"}},
	{"ir", []string{"ER"}},
	{"ur", []string{"ER"}},
}

var letters = map[byte][]string{
	'a': {"AE"}, 'b': {"B"}, 'd': {"D"}, 'e': {"EH"}, 'f': {"F"}, 'g': {"G"},
	'h': {"HH"}, 'i': {"IH"}, 'j': {"JH"}, 'k': {"K"}, 'l': {"L"}, 'm': {"M"},
	'n': {"N"}, 'o': {"AA"}, 'p': {"P"}, 'q': {"K"}, 'r': {"R"}, 's': {"S"},
	't': {"T"}, 'u': {"AH"}, 'v': {"V"}, 'w': {"W"}, 'x': {"K", "S"}, 'z': {"Z"},
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}

// silentH lists word starts whose h is not pronounced.
var silentH = []string{"hour", "honest", "honor", "honour", "heir"}

var longVowels = map[byte][]string{
	'a': {"EY"}, 'e': {"IY"}, 'i': {"AY"}, 'o': {"OW"}, 'u': {"UW"},
}

// letterToSound applies grapheme rules left to right. It is a last resort
// and only needs to get consonants right for target detection, so silent
// letters are dropped before the rules run.
func letterToSound(w string) []string {
	switch {
	case len(w) > 2 && (strings.HasPrefix(w, "kn") || strings.HasPrefix(w, "gn")):
		w = w[1:]
	case len(w) > 2 && strings.HasPrefix(w, "wr"):
		w = w[1:]
	}
	for _, h := range silentH {
		if strings.HasPrefix(w, h) {
			w = w[1:]
			break
		}
	}

	var tail []string
	long := -1
	switch {
	case len(w) > 3 && strings.HasSuffix(w, "le") && !isVowel(w[len(w)-3]):
		w, tail = w[:len(w)-2], []string{"AH", "L"}
	case len(w) > 2 && w[len(w)-1] == 'e' && !isVowel(w[len(w)-2]):
		w = w[:len(w)-1]
		// Vowel, consonant, silent e: the vowel says its name.
		if n := len(w); n >= 2 && isVowel(w[n-2]) && (n < 3 || !isVowel(w[n-3])) {
			long = n - 2
		}
	case len(w) > 2 && strings.HasSuffix(w, "mb"):
		w = w[:len(w)-1]
	}

	var out []string
	for i := 0; i < len(w); {
		matched := false
		for _, g := range graphemes {
			if strings.HasPrefix(w[i:], g.letters) {
				out = append(out, g.phones...)
				i += len(g.letters)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		c := w[i]
		if i > 0 && c == w[i-1] && !isVowel(c) {
			i++
			continue
		}
		switch {
		case c == 'c':
			if i+1 < len(w) && strings.IndexByte("eiy", w[i+1]) >= 0 {
				out = append(out, "S")
			} else {
				out = append(out, "K")
			}
		case c == 'y':
			switch {
			case i == 0:
				out = append(out, "Y")
			case i == len(w)-1:
				out = append(out, "IY")
			default:
				out = append(out, "IH")
			}
		case i == long:
			out = append(out, longVowels[c]...)
		default:
			out = append(out, letters[c]...)
		}
		i++
	}
	return append(out, tail...)
}
