// Package score ranks validated sentences.
//
// Each sentence gets four sub-scores on a 0-100 scale (word frequency,
// communicative-function match, phoneme match bonus and length fit), which
// are combined with request-dependent [Weights]. A diversity penalty is then
// applied in rank order so that near-identical sentences do not crowd the
// top of the list.
package score

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/MrWong99/talktalk/internal/lexicon"
	"github.com/MrWong99/talktalk/internal/morph"
	"github.com/MrWong99/talktalk/internal/validate"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

const (
	// compareWindow bounds how many already-ranked sentences a candidate is
	// compared against.
	compareWindow    = 10
	structurePenalty = 10.0
	nounPenalty      = 5.0
	maxPenalty       = 50.0
	// englishFrequency stands in for the missing English frequency table.
	englishFrequency = 50.0
)

// Breakdown holds the sub-scores of one sentence.
type Breakdown struct {
	Frequency  float64 `json:"frequency"`
	Function   float64 `json:"function"`
	MatchBonus float64 `json:"match_bonus"`
	LengthFit  float64 `json:"length_fit"`
	// DiversityPenalty is the uncapped similarity penalty, as a non-positive
	// number. The final score subtracts at most maxPenalty of it.
	DiversityPenalty float64 `json:"diversity_penalty"`
}

// Sentence is a validated sentence with its final score.
type Sentence struct {
	Sentence     string
	MatchedWords []string
	WordCount    int
	Difficulty   therapy.Difficulty
	Score        float64
	Breakdown    Breakdown
	// Lexical is the vocabulary fit for the requested age. It is only
	// computed for Korean sentences.
	Lexical *lexicon.LexicalScore
}

// Scorer computes scores against a lexicon. It is safe for concurrent use.
type Scorer struct {
	lex *lexicon.Lexicon
}

// New returns a Scorer backed by lex.
func New(lex *lexicon.Lexicon) *Scorer {
	return &Scorer{lex: lex}
}

type ranked struct {
	Sentence
	base      float64
	signature string
	nouns     []string
}

// Score scores every passed result and returns them sorted by final score,
// highest first. Ties keep base-score order.
func (s *Scorer) Score(results []validate.Result, req *therapy.Request) []Sentence {
	weights := WeightsFor(req)

	prelim := make([]ranked, 0, len(results))
	for _, r := range results {
		if !r.Passed {
			continue
		}
		bd := s.breakdown(r.Sentence, r.MatchedWords, req)
		var lex *lexicon.LexicalScore
		if req.Language == therapy.Korean {
			ls := s.lex.SentenceLexical(strings.Fields(r.Sentence), req.Age)
			lex = &ls
		}
		prelim = append(prelim, ranked{
			Sentence: Sentence{
				Sentence:     r.Sentence,
				MatchedWords: r.MatchedWords,
				WordCount:    r.WordCount,
				Difficulty:   r.Difficulty,
				Breakdown:    bd,
				Lexical:      lex,
			},
			base:      composite(bd, weights),
			signature: morph.Signature(r.Sentence, req.Language),
			nouns:     morph.Nouns(r.Sentence, req.Language),
		})
	}
	slices.SortStableFunc(prelim, func(a, b ranked) int {
		return cmp.Compare(b.base, a.base)
	})

	out := make([]Sentence, 0, len(prelim))
	for i := range prelim {
		cur := &prelim[i]
		penalty := diversityPenalty(cur, prelim[:min(i, compareWindow)])
		cur.Score = round2(max(0, cur.base-min(penalty, maxPenalty)))
		cur.Breakdown.DiversityPenalty = -round2(penalty)
		out = append(out, cur.Sentence)
	}
	slices.SortStableFunc(out, func(a, b Sentence) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

func (s *Scorer) breakdown(sentence string, matched []string, req *therapy.Request) Breakdown {
	bd := Breakdown{
		Frequency:  englishFrequency,
		MatchBonus: float64(min(len(matched)*30, 100)),
		LengthFit:  100,
	}
	if req.Language == therapy.Korean {
		bd.Frequency = round2(s.lex.SentenceFrequency(strings.TrimSpace(sentence)))
		if req.Function != "" && MatchesFunction(sentence, req.Function) {
			bd.Function = 100
		}
	}
	return bd
}

func composite(bd Breakdown, w Weights) float64 {
	return bd.Frequency*w.Frequency +
		bd.Function*w.Function +
		bd.MatchBonus*w.MatchBonus +
		bd.LengthFit*w.LengthFit
}

// diversityPenalty compares cur against the sentences ranked before it.
func diversityPenalty(cur *ranked, accepted []ranked) float64 {
	var p float64
	for _, other := range accepted {
		if cur.signature == other.signature {
			p += structurePenalty
		}
		for _, n := range cur.nouns {
			if slices.Contains(other.nouns, n) {
				p += nounPenalty
			}
		}
	}
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
