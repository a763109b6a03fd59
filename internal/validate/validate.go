// Package validate applies the hard constraints every candidate sentence
// must satisfy before it can be scored.
//
// Checks run in a fixed order and stop at the first failure:
//
//  1. word count equals the requested sentence length
//  2. no descriptive stem repeated (Korean)
//  3. short sentences end in a predicate (Korean, three words or fewer)
//  4. optional child-safety guardrail and phonological-rule mode
//  5. approach branch: core-vocabulary membership, or the target phoneme
//
// A failed check is data, not an error: the [Result] carries a
// [FailReason] from a closed set so that callers can aggregate failures
// without inspecting message text.
package validate

import (
	"fmt"
	"strings"

	"github.com/MrWong99/talktalk/internal/lexicon"
	"github.com/MrWong99/talktalk/internal/morph"
	"github.com/MrWong99/talktalk/internal/phoneme"
	"github.com/MrWong99/talktalk/internal/phonology"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

// FailReason classifies a failed validation. The zero value means passed.
type FailReason string

const (
	FailWordCount          FailReason = "word_count"
	FailPhoneme            FailReason = "phoneme"
	FailSemanticRepetition FailReason = "semantic_repetition"
	FailNoPredicate        FailReason = "no_predicate"
	FailCoreVocabulary     FailReason = "core_vocabulary"
	FailOther              FailReason = "other"
)

// FailReasons lists every reason in reporting order.
var FailReasons = []FailReason{
	FailWordCount, FailPhoneme, FailSemanticRepetition,
	FailNoPredicate, FailCoreVocabulary, FailOther,
}

// Result is the verdict for one candidate.
type Result struct {
	Sentence string
	Passed   bool
	// MatchedWords holds the target-bearing words, duplicates kept. It is
	// never nil.
	MatchedWords []string
	WordCount    int
	Difficulty   therapy.Difficulty
	Reason       FailReason
	// Detail is a human-readable explanation such as "expected 4, got 2".
	Detail string
}

// Message renders the failure as "<reason>: <detail>". It is empty for a
// passed result.
func (r Result) Message() string {
	if r.Passed {
		return ""
	}
	if r.Detail == "" {
		return string(r.Reason)
	}
	return string(r.Reason) + ": " + r.Detail
}

// Validator checks candidates against a request. It holds only read-only
// lookup tables and is safe for concurrent use.
type Validator struct {
	analyzer  *phoneme.Analyzer
	guardrail *lexicon.Lexicon
}

// Option configures a Validator.
type Option func(*Validator)

// WithGuardrail rejects sentences containing a forbidden word of lex.
func WithGuardrail(lex *lexicon.Lexicon) Option {
	return func(v *Validator) {
		v.guardrail = lex
	}
}

// New returns a Validator that matches phonemes with analyzer.
func New(analyzer *phoneme.Analyzer, opts ...Option) *Validator {
	v := &Validator{analyzer: analyzer}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate returns one Result per candidate, in input order.
func (v *Validator) Validate(cands []therapy.Candidate, req *therapy.Request) []Result {
	var core map[string]bool
	if req.Approach == therapy.CoreVocabulary {
		core = coreWordSet(req)
	}
	results := make([]Result, len(cands))
	for i, c := range cands {
		results[i] = v.validateOne(c, req, core)
	}
	return results
}

// Passed filters results down to the passing ones.
func Passed(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func (v *Validator) validateOne(c therapy.Candidate, req *therapy.Request, core map[string]bool) Result {
	sentence := strings.TrimSpace(c.Sentence)
	words := strings.Fields(sentence)
	res := Result{
		Sentence:     c.Sentence,
		MatchedWords: []string{},
		WordCount:    len(words),
		Difficulty:   therapy.ParseDifficulty(string(c.Difficulty)),
	}
	fail := func(reason FailReason, detail string) Result {
		res.Reason = reason
		res.Detail = detail
		return res
	}

	if len(words) != req.SentenceLength {
		return fail(FailWordCount, fmt.Sprintf("expected %d, got %d", req.SentenceLength, len(words)))
	}

	korean := req.Language == therapy.Korean
	if korean {
		if stem, ok := morph.RepeatedStem(sentence); ok {
			return fail(FailSemanticRepetition, fmt.Sprintf("stem %q repeated", stem))
		}
		if len(words) <= 3 && !morph.HasPredicate(sentence) {
			return fail(FailNoPredicate, "sentence has no predicate ending")
		}
	}

	if v.guardrail != nil {
		if w, ok := v.guardrail.ContainsForbidden(sentence); ok {
			return fail(FailOther, fmt.Sprintf("forbidden word %q", w))
		}
	}
	if korean {
		if msg, ok := checkRules(sentence, req.PhonologicalRules); !ok {
			return fail(FailOther, msg)
		}
	}

	if req.Approach == therapy.CoreVocabulary {
		if morph.HasSpacingArtifact(sentence) {
			return fail(FailCoreVocabulary, "ending split from its word")
		}
		if !containsCoreWord(words, req.Language, core) {
			return fail(FailCoreVocabulary, "no core word found")
		}
		res.Passed = true
		return res
	}

	if req.Target == nil || req.Target.Phoneme == "" {
		res.Passed = true
		return res
	}
	m := v.analyzer.Find(req.Language, sentence, *req.Target)
	res.MatchedWords = m.MatchedWords
	if !m.MeetsMinimum {
		return fail(FailPhoneme, fmt.Sprintf("found %d, need %d", m.Count, req.Target.Min()))
	}
	res.Passed = true
	return res
}

func checkRules(sentence string, mode therapy.RulesMode) (string, bool) {
	var pm phonology.Mode
	switch mode {
	case therapy.RulesAvoid:
		pm = phonology.Avoid
	case therapy.RulesTrain:
		pm = phonology.Require
	default:
		return "", true
	}
	rep := phonology.Check(sentence, pm)
	if rep.Passed {
		return "", true
	}
	if pm == phonology.Require {
		return "phonological_rules: no rule environment found", false
	}
	return "phonological_rules: " + strings.Join(rep.Messages, "; "), false
}

func coreWordSet(req *therapy.Request) map[string]bool {
	words, err := lexicon.ResolveCoreWords(string(req.Language), req.CoreWords)
	if err != nil {
		return nil
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if req.Language == therapy.English {
			w = strings.ToLower(w)
		}
		set[w] = true
	}
	return set
}

const tokenPunct = ".,!?~\"'"

func containsCoreWord(words []string, lang therapy.Language, core map[string]bool) bool {
	for _, w := range words {
		w = strings.Trim(w, tokenPunct)
		if lang == therapy.English {
			if core[strings.ToLower(w)] {
				return true
			}
			continue
		}
		if core[w] || core[morph.StripParticle(w)] {
			return true
		}
	}
	return false
}
