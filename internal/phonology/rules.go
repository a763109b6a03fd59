// Package phonology detects Korean phonological rule environments between
// adjacent syllables: nasalization, fortition, liaison and liquidization.
//
// Detectors look at the coda of syllable i and the onset of syllable i+1,
// where the syllable sequence is the text's Hangul blocks with everything
// else (spaces, punctuation, Latin letters) removed. Positions are rune
// indices into the original text.
package phonology

import (
	"fmt"

	"github.com/MrWong99/talktalk/internal/phoneme"
)

// Finding is one detected rule environment.
type Finding struct {
	// Position is the rune index in the text the rule applies to.
	Position int
	// Description is a human readable summary, e.g. "국물: ㄱ -> ㅇ (before ㅁ)".
	Description string
}

// Rule is a named detector.
type Rule struct {
	Name   string
	Detect func(text string) []Finding
}

// Rules are applied in this order by Check.
var Rules = []Rule{
	{"Nasalization", DetectNasalization},
	{"Fortition", DetectFortition},
	{"Liaison", DetectLiaison},
	{"Liquidization", DetectLiquidization},
}

var (
	nasalization = map[string]string{"ㄱ": "ㅇ", "ㄷ": "ㄴ", "ㅂ": "ㅁ"}
	nasalOnsets  = map[string]bool{"ㄴ": true, "ㅁ": true}

	fortition         = map[string]string{"ㄱ": "ㄲ", "ㄷ": "ㄸ", "ㅂ": "ㅃ", "ㅅ": "ㅆ", "ㅈ": "ㅉ"}
	fortitionTriggers = map[string]bool{
		"ㄱ": true, "ㄷ": true, "ㅂ": true, "ㅅ": true, "ㅈ": true,
		"ㅊ": true, "ㅋ": true, "ㅌ": true, "ㅍ": true,
	}
)

type syllable struct {
	index int
	char  rune
	phoneme.Syllable
}

func syllables(text string) []syllable {
	var out []syllable
	i := 0
	for _, r := range text {
		if s, ok := phoneme.Decompose(r); ok {
			out = append(out, syllable{index: i, char: r, Syllable: s})
		}
		i++
	}
	return out
}

// pairs calls fn for every adjacent syllable pair.
func pairs(text string, fn func(a, b syllable)) {
	s := syllables(text)
	for i := 0; i+1 < len(s); i++ {
		fn(s[i], s[i+1])
	}
}

// DetectNasalization finds a plain obstruent coda (ㄱ ㄷ ㅂ) before a nasal
// onset (ㄴ ㅁ), as in 국물 [궁물].
func DetectNasalization(text string) []Finding {
	var out []Finding
	pairs(text, func(a, b syllable) {
		nasal, ok := nasalization[a.Coda]
		if ok && nasalOnsets[b.Onset] {
			out = append(out, Finding{a.index, fmt.Sprintf("%c%c: %s -> %s (before %s)", a.char, b.char, a.Coda, nasal, b.Onset)})
		}
	})
	return out
}

// DetectFortition finds a plain onset (ㄱ ㄷ ㅂ ㅅ ㅈ) after an obstruent
// coda, as in 학교 [학꾜]. The position is the tensed syllable.
func DetectFortition(text string) []Finding {
	var out []Finding
	pairs(text, func(a, b syllable) {
		tense, ok := fortition[b.Onset]
		if ok && fortitionTriggers[a.Coda] {
			out = append(out, Finding{b.index, fmt.Sprintf("%c%c: %s -> %s (after coda %s)", a.char, b.char, b.Onset, tense, a.Coda)})
		}
	})
	return out
}

// DetectLiaison finds any coda followed by the silent onset ㅇ, as in 음악 [으막].
func DetectLiaison(text string) []Finding {
	var out []Finding
	pairs(text, func(a, b syllable) {
		if a.Coda != "" && b.Onset == "ㅇ" {
			out = append(out, Finding{a.index, fmt.Sprintf("%c%c: coda %s -> onset of next syllable", a.char, b.char, a.Coda)})
		}
	})
	return out
}

// DetectLiquidization finds ㄴ next to ㄹ across a syllable boundary, as in
// 신라 [실라] and 설날 [설랄].
func DetectLiquidization(text string) []Finding {
	var out []Finding
	pairs(text, func(a, b syllable) {
		switch {
		case a.Coda == "ㄴ" && b.Onset == "ㄹ":
			out = append(out, Finding{a.index, fmt.Sprintf("%c%c: ㄴ -> ㄹ (before ㄹ)", a.char, b.char)})
		case a.Coda == "ㄹ" && b.Onset == "ㄴ":
			out = append(out, Finding{b.index, fmt.Sprintf("%c%c: ㄴ -> ㄹ (after ㄹ)", a.char, b.char)})
		}
	})
	return out
}

// Mode selects how Check treats detected environments.
type Mode string

const (
	// Avoid passes only texts without any rule environment.
	Avoid Mode = "avoid"
	// Require passes only texts with at least one rule environment.
	Require Mode = "require"
)

// Report is the outcome of Check.
type Report struct {
	Passed bool
	// Messages lists every finding prefixed with its rule name.
	Messages []string
}

// Check runs every rule over text and evaluates the result against mode.
func Check(text string, mode Mode) Report {
	var msgs []string
	for _, r := range Rules {
		for _, f := range r.Detect(text) {
			msgs = append(msgs, r.Name+": "+f.Description)
		}
	}
	found := len(msgs) > 0
	if mode == Require {
		return Report{Passed: found, Messages: msgs}
	}
	return Report{Passed: !found, Messages: msgs}
}
