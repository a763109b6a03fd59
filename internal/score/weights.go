package score

import (
	"regexp"

	"github.com/MrWong99/talktalk/pkg/therapy"
)

// Weights are the relative contributions of the four sub-scores.
type Weights struct {
	Frequency  float64
	Function   float64
	MatchBonus float64
	LengthFit  float64
}

// BaseWeights apply when every sub-score is available.
var BaseWeights = Weights{Frequency: 0.4, Function: 0.3, MatchBonus: 0.2, LengthFit: 0.1}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Frequency + w.Function + w.MatchBonus + w.LengthFit
}

// WeightsFor zeroes the sub-scores req cannot use and rescales the rest to
// sum to one. Frequency and function are Korean-only, function needs a
// requested communicative function and the match bonus needs a phoneme
// target.
func WeightsFor(req *therapy.Request) Weights {
	w := BaseWeights
	if req.Language != therapy.Korean {
		w.Frequency, w.Function = 0, 0
	} else if req.Function == "" {
		w.Function = 0
	}
	if req.Approach == therapy.CoreVocabulary {
		w.MatchBonus = 0
	}

	total := w.Sum()
	if total <= 0 {
		return Weights{LengthFit: 1}
	}
	return Weights{
		Frequency:  w.Frequency / total,
		Function:   w.Function / total,
		MatchBonus: w.MatchBonus / total,
		LengthFit:  w.LengthFit / total,
	}
}

// functionPatterns recognise Korean communicative functions.
var functionPatterns = map[therapy.Function][]*regexp.Regexp{
	therapy.FunctionRequest: {
		regexp.MustCompile(`줘|주세요|줄래|싶어|싶어요|하고\s*싶|먹고\s*싶|갖고\s*싶`),
	},
	therapy.FunctionReject: {
		regexp.MustCompile(`싫어|싫어요|안\s*해|안\s*할래|하기\s*싫|안\s*먹|안\s*갈`),
	},
	therapy.FunctionHelp: {
		regexp.MustCompile(`도와|도와줘|도와주세요|어떻게|어떡해|모르겠|못\s*하겠`),
	},
	therapy.FunctionChoice: {
		regexp.MustCompile(`할래\?|먹을래\?|갈래\?|이거\s*저거|뭐\s*할|어떤\s*거`),
	},
	therapy.FunctionAttention: {
		regexp.MustCompile(`봐봐|이거\s*봐|저거\s*봐|여기\s*봐|보세요|있어요`),
	},
	therapy.FunctionQuestion: {
		regexp.MustCompile(`뭐야|뭐예요|어디|언제|누가|왜|어떻게|\?$`),
	},
}

// MatchesFunction reports whether sentence expresses fn.
func MatchesFunction(sentence string, fn therapy.Function) bool {
	for _, re := range functionPatterns[fn] {
		if re.MatchString(sentence) {
			return true
		}
	}
	return false
}
