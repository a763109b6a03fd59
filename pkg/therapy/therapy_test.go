package therapy_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/talktalk/pkg/therapy"
)

func validKoreanRequest() therapy.Request {
	return therapy.Request{
		Language:       therapy.Korean,
		Age:            5,
		Count:          5,
		Target:         &therapy.Target{Phoneme: "ㄹ", Position: therapy.Onset, MinOccurrences: 1},
		SentenceLength: 4,
		Diagnosis:      therapy.SSD,
		Approach:       therapy.Complexity,
	}
}

func TestRequestValidate_Valid(t *testing.T) {
	t.Parallel()

	req := validKoreanRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate()=%v, want nil", err)
	}

	core := therapy.Request{
		Language:       therapy.English,
		Age:            3,
		Count:          1,
		SentenceLength: 2,
		Diagnosis:      therapy.ASD,
		Approach:       therapy.CoreVocabulary,
		CoreWords:      []string{"more"},
	}
	if err := core.Validate(); err != nil {
		t.Fatalf("Validate(core vocabulary without target)=%v, want nil", err)
	}
}

func TestRequestValidate_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *therapy.Request)
		wantMsg string
	}{
		{"age too low", func(r *therapy.Request) { r.Age = 2 }, "age 2"},
		{"count too high", func(r *therapy.Request) { r.Count = 21 }, "count 21"},
		{"length out of range", func(r *therapy.Request) { r.SentenceLength = 7 }, "sentenceLength 7"},
		{"language", func(r *therapy.Request) { r.Language = "ja" }, `language "ja"`},
		{"approach not allowed", func(r *therapy.Request) { r.Approach = therapy.CoreVocabulary }, "not allowed for diagnosis"},
		{"missing target", func(r *therapy.Request) { r.Target = nil }, "target is required"},
		{"phoneme too long", func(r *therapy.Request) { r.Target.Phoneme = "ㄹㄹㄹㄹ" }, "1-3 characters"},
		{"bad position", func(r *therapy.Request) { r.Target.Position = "middle" }, "target.position"},
		{"bad min occurrences", func(r *therapy.Request) { r.Target.MinOccurrences = 4 }, "minOccurrences 4"},
		{"bad function", func(r *therapy.Request) { r.Function = "greet" }, "communicativeFunction"},
		{"bad rules mode", func(r *therapy.Request) { r.PhonologicalRules = "ignore" }, "phonological_rules_mode"},
		{"unknown diagnosis", func(r *therapy.Request) { r.Diagnosis = "XYZ" }, `diagnosis "XYZ"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := validKoreanRequest()
			tgt := *req.Target
			req.Target = &tgt
			tt.mutate(&req)

			err := req.Validate()
			if err == nil {
				t.Fatal("Validate()=nil, want error")
			}
			if !errors.Is(err, therapy.ErrInvalidRequest) {
				t.Errorf("errors.Is(err, ErrInvalidRequest)=false for %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRequestValidate_ReportsAllViolations(t *testing.T) {
	t.Parallel()

	req := validKoreanRequest()
	req.Age = 9
	req.Count = 0
	err := req.Validate()
	if err == nil {
		t.Fatal("Validate()=nil, want error")
	}
	for _, want := range []string{"age 9", "count 0"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	t.Parallel()

	tests := map[string]therapy.Difficulty{
		"easy":    therapy.Easy,
		" Hard ":  therapy.Hard,
		"medium":  therapy.Medium,
		"extreme": "",
		"":        "",
	}
	for in, want := range tests {
		if got := therapy.ParseDifficulty(in); got != want {
			t.Errorf("ParseDifficulty(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestTargetMin(t *testing.T) {
	t.Parallel()

	if got := (therapy.Target{}).Min(); got != 1 {
		t.Errorf("Target{}.Min()=%d, want 1", got)
	}
	if got := (therapy.Target{MinOccurrences: 3}).Min(); got != 3 {
		t.Errorf("Target{MinOccurrences:3}.Min()=%d, want 3", got)
	}
}
