package validate

import (
	"log/slog"
	"strings"

	"github.com/MrWong99/talktalk/pkg/therapy"
)

// ValidateContrastSets keeps the sets whose sentences both have exactly
// the requested number of tokens, whose target sentence carries the target
// phoneme, and whose contrast words occur inside a token of their sentence.
// Substring matching tolerates attached Korean particles.
func (v *Validator) ValidateContrastSets(sets []therapy.ContrastSet, req *therapy.Request) []therapy.ContrastSet {
	out := make([]therapy.ContrastSet, 0, len(sets))
	for i, cs := range sets {
		tt, ct := cs.TargetSentence.Tokens, cs.ContrastSentence.Tokens
		if len(tt) != req.SentenceLength || len(ct) != req.SentenceLength {
			slog.Debug("contrast set rejected: token count",
				"index", i, "target", len(tt), "contrast", len(ct), "expected", req.SentenceLength)
			continue
		}
		if req.Target != nil && req.Target.Phoneme != "" {
			m := v.analyzer.Find(req.Language, cs.TargetSentence.Text, *req.Target)
			if !m.MeetsMinimum {
				slog.Debug("contrast set rejected: phoneme",
					"index", i, "text", cs.TargetSentence.Text, "found", m.Count, "need", req.Target.Min())
				continue
			}
		}
		if !wordInTokens(cs.TargetWord, tt) {
			slog.Debug("contrast set rejected: target word missing", "index", i, "word", cs.TargetWord)
			continue
		}
		if !wordInTokens(cs.ContrastWord, ct) {
			slog.Debug("contrast set rejected: contrast word missing", "index", i, "word", cs.ContrastWord)
			continue
		}
		out = append(out, cs)
	}
	return out
}

func wordInTokens(word string, tokens []string) bool {
	if word == "" {
		return true
	}
	for _, t := range tokens {
		if strings.Contains(t, word) {
			return true
		}
	}
	return false
}
