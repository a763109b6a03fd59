// Package lexicon provides read-only lexical lookups for Korean child
// vocabulary: corpus frequency, age-of-acquisition levels and the
// forbidden-word list used by the child-safety guardrail.
//
// A Lexicon is built once at startup from a Data snapshot, either the
// embedded YAML seed (Default) or a PostgreSQL database (Store.Load), and
// shared by every request without locking.
package lexicon

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/lexicon.yaml
var embeddedData []byte

// DefaultFrequency is returned for words with no frequency entry.
const DefaultFrequency = 50

// Entry is the lexical record of one word.
type Entry struct {
	// Frequency is corpus familiarity on a 0-100 scale.
	Frequency int `yaml:"freq"`
	// Age is the youngest age at which the word is expected. Zero means unknown.
	Age int `yaml:"age,omitempty"`
}

// Data is a raw lexicon snapshot.
type Data struct {
	Words     map[string]Entry `yaml:"words"`
	Forbidden []string         `yaml:"forbidden"`
}

// Lexicon answers lexical queries. It is immutable and safe for concurrent use.
type Lexicon struct {
	words     map[string]Entry
	forbidden []string
}

// New builds a Lexicon from d. Forbidden words are lowercased and blanks dropped.
func New(d *Data) *Lexicon {
	l := &Lexicon{words: make(map[string]Entry, len(d.Words))}
	for w, e := range d.Words {
		l.words[w] = e
	}
	for _, f := range d.Forbidden {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			l.forbidden = append(l.forbidden, f)
		}
	}
	return l
}

// DecodeYAML reads a Data snapshot from YAML. Unknown keys are rejected.
func DecodeYAML(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var d Data
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("lexicon: decode yaml: %w", err)
	}
	return &d, nil
}

var defaultLexicon = sync.OnceValues(func() (*Lexicon, error) {
	d, err := DecodeYAML(bytes.NewReader(embeddedData))
	if err != nil {
		return nil, err
	}
	return New(d), nil
})

// Default returns the Lexicon compiled into the binary.
func Default() (*Lexicon, error) {
	return defaultLexicon()
}

// EmbeddedData returns a fresh copy of the compiled-in snapshot, e.g. for
// seeding a database.
func EmbeddedData() (*Data, error) {
	return DecodeYAML(bytes.NewReader(embeddedData))
}

// Size returns the number of words and forbidden entries.
func (l *Lexicon) Size() (words, forbidden int) {
	return len(l.words), len(l.forbidden)
}

// Frequency returns the 0-100 corpus frequency of the longest known prefix
// of word (the whole word included), or DefaultFrequency.
func (l *Lexicon) Frequency(word string) int {
	runes := []rune(word)
	for n := len(runes); n > 0; n-- {
		if e, ok := l.words[string(runes[:n])]; ok {
			return e.Frequency
		}
	}
	return DefaultFrequency
}

// SentenceFrequency averages Frequency over the whitespace-separated words
// of sentence. An empty sentence scores DefaultFrequency.
func (l *Lexicon) SentenceFrequency(sentence string) float64 {
	words := strings.Fields(sentence)
	if len(words) == 0 {
		return DefaultFrequency
	}
	total := 0
	for _, w := range words {
		total += l.Frequency(w)
	}
	return float64(total) / float64(len(words))
}

// ContainsForbidden reports the first forbidden entry found in sentence,
// compared case-insensitively as a substring.
func (l *Lexicon) ContainsForbidden(sentence string) (string, bool) {
	lower := strings.ToLower(sentence)
	for _, f := range l.forbidden {
		if strings.Contains(lower, f) {
			return f, true
		}
	}
	return "", false
}
