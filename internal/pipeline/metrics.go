package pipeline

import (
	"log/slog"
	"math"

	"github.com/MrWong99/talktalk/internal/morph"
	"github.com/MrWong99/talktalk/internal/score"
	"github.com/MrWong99/talktalk/internal/validate"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

// Metrics describes the quality of one run. It is derived after all stages
// complete and is only used for reporting.
type Metrics struct {
	GeneratedCount   int
	ValidationPassed int
	// ValidationRate is the pass percentage, 0-100.
	ValidationRate float64
	FailReasons    map[validate.FailReason]int
	// UniqueStructures counts distinct structure signatures among the
	// returned sentences.
	UniqueStructures int
	// VocabularyDiversity is unique nouns over all nouns, 0-100.
	VocabularyDiversity float64
	SemanticDuplicates  int
	FinalCount          int
}

func computeMetrics(results []validate.Result, final []score.Sentence, lang therapy.Language) Metrics {
	m := Metrics{
		GeneratedCount: len(results),
		FailReasons:    make(map[validate.FailReason]int),
		FinalCount:     len(final),
	}
	for _, r := range results {
		if r.Passed {
			m.ValidationPassed++
			continue
		}
		reason := r.Reason
		if reason == "" {
			reason = validate.FailOther
		}
		m.FailReasons[reason]++
		if reason == validate.FailSemanticRepetition {
			m.SemanticDuplicates++
		}
	}
	if m.GeneratedCount > 0 {
		m.ValidationRate = float64(m.ValidationPassed) / float64(m.GeneratedCount) * 100
	}

	structures := make(map[string]struct{})
	var nouns []string
	for _, s := range final {
		structures[morph.Signature(s.Sentence, lang)] = struct{}{}
		nouns = append(nouns, morph.Nouns(s.Sentence, lang)...)
	}
	m.UniqueStructures = len(structures)
	if len(nouns) > 0 {
		unique := make(map[string]struct{}, len(nouns))
		for _, n := range nouns {
			unique[n] = struct{}{}
		}
		m.VocabularyDiversity = float64(len(unique)) / float64(len(nouns)) * 100
	}
	return m
}

// log writes the run report.
func (m Metrics) log(l *slog.Logger) {
	reasons := make([]any, 0, len(validate.FailReasons))
	for _, r := range validate.FailReasons {
		if n := m.FailReasons[r]; n > 0 {
			reasons = append(reasons, slog.Int(string(r), n))
		}
	}
	l.Info("pipeline report",
		"generated", m.GeneratedCount,
		"passed", m.ValidationPassed,
		"validation_rate", math.Round(m.ValidationRate),
		slog.Group("fail_reasons", reasons...),
		"unique_structures", m.UniqueStructures,
		"vocabulary_diversity", math.Round(m.VocabularyDiversity),
		"semantic_duplicates", m.SemanticDuplicates,
		"final", m.FinalCount,
	)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
