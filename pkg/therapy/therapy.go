// Package therapy defines the request and response types shared by every
// stage of the sentence pipeline and by the HTTP layer.
//
// These types are the lingua franca between the generator, the validator,
// the scorer and the API. Each stage keeps its own intermediate types; only
// data that crosses package boundaries lives here.
package therapy

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Language is a supported generation language.
type Language string

const (
	Korean  Language = "ko"
	English Language = "en"
)

// Diagnosis is the clinical category the sentences are generated for.
type Diagnosis string

const (
	// SSD is Speech Sound Disorder.
	SSD Diagnosis = "SSD"
	// ASD is Autism Spectrum Disorder.
	ASD Diagnosis = "ASD"
	// LD is Language Delay.
	LD Diagnosis = "LD"
)

// Approach is the therapy approach driving generation and validation.
type Approach string

const (
	MinimalPairs       Approach = "minimal_pairs"
	MaximalOppositions Approach = "maximal_oppositions"
	Complexity         Approach = "complexity"
	CoreVocabulary     Approach = "core_vocabulary"
)

// AllowedApproaches maps each diagnosis to the approaches it may be paired with.
var AllowedApproaches = map[Diagnosis][]Approach{
	SSD: {MinimalPairs, MaximalOppositions, Complexity},
	ASD: {CoreVocabulary},
	LD:  {CoreVocabulary},
}

// Function is a communicative function a sentence may serve.
type Function string

const (
	FunctionRequest   Function = "request"
	FunctionReject    Function = "reject"
	FunctionHelp      Function = "help"
	FunctionChoice    Function = "choice"
	FunctionAttention Function = "attention"
	FunctionQuestion  Function = "question"
)

// IsValid reports whether f is one of the known communicative functions.
func (f Function) IsValid() bool {
	switch f {
	case FunctionRequest, FunctionReject, FunctionHelp, FunctionChoice, FunctionAttention, FunctionQuestion:
		return true
	}
	return false
}

// Position is a syllable slot.
type Position string

const (
	Onset   Position = "onset"
	Nucleus Position = "nucleus"
	Coda    Position = "coda"
	Any     Position = "any"
)

// IsValid reports whether p is a known syllable position.
func (p Position) IsValid() bool {
	switch p {
	case Onset, Nucleus, Coda, Any:
		return true
	}
	return false
}

// Difficulty is the declared difficulty tier of a sentence. The zero value
// means "not declared".
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty returns s as a Difficulty when it is one of the known tiers
// and the empty Difficulty otherwise.
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Hard:
		return d
	}
	return ""
}

// RulesMode controls how Korean phonological rule environments are treated.
type RulesMode string

const (
	RulesAvoid RulesMode = "avoid"
	RulesAllow RulesMode = "allow"
	RulesTrain RulesMode = "train"
)

// Target describes the phoneme a sentence must exercise.
type Target struct {
	Phoneme        string   `json:"phoneme"`
	Position       Position `json:"position"`
	MinOccurrences int      `json:"minOccurrences"`
}

// Min returns MinOccurrences, defaulting to 1.
func (t Target) Min() int {
	if t.MinOccurrences <= 0 {
		return 1
	}
	return t.MinOccurrences
}

// Request is one generation request. It is immutable for the duration of a
// pipeline run.
type Request struct {
	Language          Language  `json:"language"`
	Age               int       `json:"age"`
	Count             int       `json:"count"`
	Target            *Target   `json:"target,omitempty"`
	SentenceLength    int       `json:"sentenceLength"`
	Diagnosis         Diagnosis `json:"diagnosis"`
	Approach          Approach  `json:"therapyApproach"`
	Theme             string    `json:"theme,omitempty"`
	Function          Function  `json:"communicativeFunction,omitempty"`
	CoreWords         []string  `json:"core_words,omitempty"`
	PhonologicalRules RulesMode `json:"phonological_rules_mode,omitempty"`
}

// ErrInvalidRequest wraps every error returned by Request.Validate.
var ErrInvalidRequest = errors.New("therapy: invalid request")

// Validate checks field ranges and cross-field constraints. All violations
// are reported together; the joined error wraps ErrInvalidRequest.
func (r *Request) Validate() error {
	var errs []error

	switch r.Language {
	case Korean, English:
	default:
		errs = append(errs, fmt.Errorf("language %q must be one of ko, en", r.Language))
	}
	if r.Age < 3 || r.Age > 7 {
		errs = append(errs, fmt.Errorf("age %d must be between 3 and 7", r.Age))
	}
	if r.Count < 1 || r.Count > 20 {
		errs = append(errs, fmt.Errorf("count %d must be between 1 and 20", r.Count))
	}
	if r.SentenceLength < 2 || r.SentenceLength > 6 {
		errs = append(errs, fmt.Errorf("sentenceLength %d must be between 2 and 6", r.SentenceLength))
	}
	if r.Target != nil {
		n := utf8.RuneCountInString(r.Target.Phoneme)
		if n < 1 || n > 3 {
			errs = append(errs, fmt.Errorf("target.phoneme %q must be 1-3 characters", r.Target.Phoneme))
		}
		if !r.Target.Position.IsValid() {
			errs = append(errs, fmt.Errorf("target.position %q must be one of onset, nucleus, coda, any", r.Target.Position))
		}
		if r.Target.MinOccurrences != 0 && (r.Target.MinOccurrences < 1 || r.Target.MinOccurrences > 3) {
			errs = append(errs, fmt.Errorf("target.minOccurrences %d must be between 1 and 3", r.Target.MinOccurrences))
		}
	}
	if r.Function != "" && !r.Function.IsValid() {
		errs = append(errs, fmt.Errorf("communicativeFunction %q is not supported", r.Function))
	}
	switch r.PhonologicalRules {
	case "", RulesAvoid, RulesAllow, RulesTrain:
	default:
		errs = append(errs, fmt.Errorf("phonological_rules_mode %q must be one of avoid, allow, train", r.PhonologicalRules))
	}

	allowed, ok := AllowedApproaches[r.Diagnosis]
	switch {
	case !ok:
		errs = append(errs, fmt.Errorf("diagnosis %q must be one of SSD, ASD, LD", r.Diagnosis))
	case !slices.Contains(allowed, r.Approach):
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}
		slices.Sort(names)
		errs = append(errs, fmt.Errorf("therapyApproach %q is not allowed for diagnosis %q. Allowed: %s",
			r.Approach, r.Diagnosis, strings.Join(names, ", ")))
	}
	if r.Approach != CoreVocabulary && r.Target == nil {
		errs = append(errs, errors.New("target is required for non-core_vocabulary therapyApproach"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
}

// Candidate is a raw sentence proposed by the generator.
type Candidate struct {
	Sentence   string
	Difficulty Difficulty
}
