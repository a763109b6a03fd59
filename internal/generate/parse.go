package generate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/MrWong99/talktalk/pkg/therapy"
)

// Format names the payload shape a model response was parsed from.
type Format string

const (
	FormatItems     Format = "items"
	FormatSets      Format = "sets"
	FormatSentences Format = "sentences"
	FormatQuoted    Format = "quoted"
	FormatUnknown   Format = "unknown"
)

// Batch is one parsed generation response.
type Batch struct {
	Candidates   []therapy.Candidate
	ContrastSets []therapy.ContrastSet
	Format       Format
}

type rawResponse struct {
	Items     []json.RawMessage `json:"items"`
	Sets      []json.RawMessage `json:"sets"`
	Sentences []json.RawMessage `json:"sentences"`
}

type rawItem struct {
	Tokens     []json.RawMessage `json:"tokens"`
	Sentence   *string           `json:"sentence"`
	Text       *string           `json:"text"`
	Difficulty any               `json:"difficulty"`
}

type rawSentence struct {
	Tokens []json.RawMessage `json:"tokens"`
}

type rawSet struct {
	TargetWord            string       `json:"target_word"`
	TargetWordCamel       string       `json:"targetWord"`
	ContrastWord          string       `json:"contrast_word"`
	ContrastWordCamel     string       `json:"contrastWord"`
	TargetSentence        *rawSentence `json:"target_sentence"`
	TargetSentenceCamel   *rawSentence `json:"targetSentence"`
	ContrastSentence      *rawSentence `json:"contrast_sentence"`
	ContrastSentenceCamel *rawSentence `json:"contrastSentence"`
}

var (
	enumeration  = regexp.MustCompile(`^\d+[.)]\s*`)
	quotedString = regexp.MustCompile(`"([^"]+)"`)
)

// NormalizeSentence trims whitespace, a leading enumeration such as "1. "
// or "2) " and surrounding quotes.
func NormalizeSentence(s string) string {
	s = strings.TrimSpace(s)
	s = enumeration.ReplaceAllString(s, "")
	return strings.Trim(s, `"'`)
}

// Parse converts raw model output into a Batch. It accepts {"items": ...},
// {"sets": ...} and {"sentences": ...} payloads as well as a bare array of
// items or strings, optionally wrapped in a markdown code fence. Content
// that is not JSON falls back to extracting every double-quoted string.
// Parse never fails on malformed entries; they are skipped.
func Parse(content string) *Batch {
	cleaned := stripMarkdown(content)
	if strings.HasPrefix(cleaned, "[") {
		var list []json.RawMessage
		if json.Unmarshal([]byte(cleaned), &list) == nil {
			return parseItems(list)
		}
	}

	var raw rawResponse
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		b := &Batch{Format: FormatQuoted}
		for _, m := range quotedString.FindAllStringSubmatch(content, -1) {
			b.Candidates = append(b.Candidates, therapy.Candidate{Sentence: NormalizeSentence(m[1])})
		}
		return b
	}

	switch {
	case raw.Items != nil:
		return parseItems(raw.Items)
	case raw.Sets != nil:
		return parseSets(raw.Sets)
	case raw.Sentences != nil:
		b := &Batch{Format: FormatSentences}
		for _, r := range raw.Sentences {
			var s string
			if json.Unmarshal(r, &s) == nil {
				b.Candidates = append(b.Candidates, therapy.Candidate{Sentence: NormalizeSentence(s)})
			}
		}
		return b
	}
	return &Batch{Format: FormatUnknown}
}

// parseItems accepts item objects and plain strings side by side.
func parseItems(items []json.RawMessage) *Batch {
	b := &Batch{Format: FormatItems}
	for _, r := range items {
		var s string
		if json.Unmarshal(r, &s) == nil {
			if s = NormalizeSentence(s); s != "" {
				b.Candidates = append(b.Candidates, therapy.Candidate{Sentence: s})
			}
			continue
		}
		var it rawItem
		if json.Unmarshal(r, &it) != nil {
			continue
		}
		var sentence string
		switch {
		case len(it.Tokens) > 0:
			sentence = strings.Join(tokenStrings(it.Tokens), " ")
		case it.Sentence != nil:
			sentence = *it.Sentence
		case it.Text != nil:
			sentence = *it.Text
		}
		if sentence == "" {
			continue
		}
		c := therapy.Candidate{Sentence: NormalizeSentence(sentence)}
		if d, ok := it.Difficulty.(string); ok {
			c.Difficulty = therapy.ParseDifficulty(d)
		}
		b.Candidates = append(b.Candidates, c)
	}
	return b
}

func parseSets(sets []json.RawMessage) *Batch {
	b := &Batch{Format: FormatSets}
	for _, r := range sets {
		var s rawSet
		if json.Unmarshal(r, &s) != nil {
			continue
		}
		target, tok := tokenized(first(s.TargetSentence, s.TargetSentenceCamel))
		contrast, cok := tokenized(first(s.ContrastSentence, s.ContrastSentenceCamel))
		if tok {
			b.Candidates = append(b.Candidates, therapy.Candidate{Sentence: target.Text})
		}
		if cok {
			b.Candidates = append(b.Candidates, therapy.Candidate{Sentence: contrast.Text})
		}
		if tok && cok {
			b.ContrastSets = append(b.ContrastSets, therapy.ContrastSet{
				TargetWord:       cmpOr(s.TargetWord, s.TargetWordCamel),
				ContrastWord:     cmpOr(s.ContrastWord, s.ContrastWordCamel),
				TargetSentence:   target,
				ContrastSentence: contrast,
			})
		}
	}
	return b
}

func first(a, b *rawSentence) *rawSentence {
	if a != nil {
		return a
	}
	return b
}

func cmpOr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func tokenized(s *rawSentence) (therapy.TokenizedSentence, bool) {
	if s == nil {
		return therapy.TokenizedSentence{}, false
	}
	tokens := tokenStrings(s.Tokens)
	if len(tokens) == 0 {
		return therapy.TokenizedSentence{}, false
	}
	return therapy.TokenizedSentence{
		Text:   NormalizeSentence(strings.Join(tokens, " ")),
		Tokens: tokens,
	}, true
}

// tokenStrings keeps string and numeric tokens; anything else is dropped.
func tokenStrings(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var v any
		if json.Unmarshal(r, &v) != nil {
			continue
		}
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strings.TrimSpace(fmt.Sprint(t)))
		}
	}
	return out
}

// stripMarkdown removes an optional ```json fence around the payload.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
