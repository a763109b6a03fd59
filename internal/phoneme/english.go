package phoneme

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"
)

//go:embed data/kids.dict
var embeddedDict []byte

// Predictor guesses the ARPAbet phonemes of a word the dictionary does not
// contain. Implementations return phonemes without stress digits.
type Predictor interface {
	Predict(word string) []string
}

// Dictionary maps lowercase English words to ARPAbet phoneme sequences.
// It is read-only after construction and safe for concurrent use.
type Dictionary struct {
	entries   map[string][]string
	predictor Predictor
}

// DictOption configures a Dictionary.
type DictOption func(*Dictionary)

// WithPredictor replaces the default out-of-vocabulary predictor.
func WithPredictor(p Predictor) DictOption {
	return func(d *Dictionary) {
		d.predictor = p
	}
}

// LoadDictionary parses CMUdict-formatted text from r. Lines starting with
// ";;;" are comments. Only the first pronunciation of a word is kept;
// alternates written as WORD(2) are ignored.
func LoadDictionary(r io.Reader, opts ...DictOption) (*Dictionary, error) {
	d := &Dictionary{entries: make(map[string][]string)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, ";;;") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("phoneme: dictionary line %d: missing pronunciation", line)
		}
		word := strings.ToLower(fields[0])
		if strings.HasSuffix(word, ")") {
			continue
		}
		if _, dup := d.entries[word]; dup {
			continue
		}
		phones := make([]string, 0, len(fields)-1)
		for _, p := range fields[1:] {
			phones = append(phones, stripStress(p))
		}
		d.entries[word] = phones
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("phoneme: read dictionary: %w", err)
	}

	for _, o := range opts {
		o(d)
	}
	if d.predictor == nil {
		d.predictor = NewRulePredictor(d)
	}
	return d, nil
}

// LoadDictionaryFile parses the CMUdict-formatted file at path.
func LoadDictionaryFile(path string, opts ...DictOption) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("phoneme: open dictionary: %w", err)
	}
	defer f.Close()
	return LoadDictionary(f, opts...)
}

var defaultDict = sync.OnceValues(func() (*Dictionary, error) {
	return LoadDictionary(bytes.NewReader(embeddedDict))
})

// DefaultDictionary returns the dictionary compiled into the binary. The
// result is parsed once and shared.
func DefaultDictionary() (*Dictionary, error) {
	return defaultDict()
}

// Len returns the number of dictionary entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Lookup returns the dictionary pronunciation of word, if any.
func (d *Dictionary) Lookup(word string) ([]string, bool) {
	p, ok := d.entries[strings.ToLower(strings.TrimSpace(word))]
	return p, ok
}

// Phonemes returns the ARPAbet phonemes of word without stress digits. Words
// missing from the dictionary are handed to the predictor. An empty word
// yields nil.
func (d *Dictionary) Phonemes(word string) []string {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return nil
	}
	if p, ok := d.entries[w]; ok {
		return p
	}
	return d.predictor.Predict(w)
}

// HasTargetPhoneme reports whether word's pronunciation contains target
// (case-insensitive, e.g. "r" or "TH").
func (d *Dictionary) HasTargetPhoneme(word, target string) bool {
	t := strings.ToUpper(strings.TrimSpace(target))
	for _, p := range d.Phonemes(word) {
		if p == t {
			return true
		}
	}
	return false
}

// FindMatchesEN returns the lowercased words of sentence whose pronunciation
// contains target. Non-letters are stripped from each word before lookup.
func (d *Dictionary) FindMatchesEN(sentence, target string, minOccurrences int) Match {
	matched := []string{}
	for _, w := range strings.Fields(sentence) {
		clean := lettersOnly(w)
		if clean != "" && d.HasTargetPhoneme(clean, target) {
			matched = append(matched, strings.ToLower(clean))
		}
	}
	return newMatch(matched, minOccurrences)
}

func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

func stripStress(p string) string {
	return strings.TrimRight(strings.ToUpper(p), "012")
}
