package validate

import (
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/talktalk/internal/lexicon"
	"github.com/MrWong99/talktalk/internal/phoneme"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

func testAnalyzer(t *testing.T) *phoneme.Analyzer {
	t.Helper()
	dict, err := phoneme.DefaultDictionary()
	if err != nil {
		t.Fatalf("DefaultDictionary: %v", err)
	}
	return phoneme.NewAnalyzer(dict)
}

func koreanRequest() *therapy.Request {
	return &therapy.Request{
		Language:       therapy.Korean,
		Age:            5,
		Count:          10,
		Target:         &therapy.Target{Phoneme: "ㄹ", Position: therapy.Onset, MinOccurrences: 1},
		SentenceLength: 4,
		Diagnosis:      therapy.SSD,
		Approach:       therapy.MinimalPairs,
	}
}

func englishRequest() *therapy.Request {
	return &therapy.Request{
		Language:       therapy.English,
		Age:            5,
		Count:          10,
		Target:         &therapy.Target{Phoneme: "R", Position: therapy.Any, MinOccurrences: 1},
		SentenceLength: 4,
		Diagnosis:      therapy.SSD,
		Approach:       therapy.MinimalPairs,
	}
}

func coreRequest(lang therapy.Language, words ...string) *therapy.Request {
	return &therapy.Request{
		Language:       lang,
		Age:            5,
		Count:          5,
		SentenceLength: 3,
		Diagnosis:      therapy.ASD,
		Approach:       therapy.CoreVocabulary,
		CoreWords:      words,
	}
}

func validateOne(t *testing.T, v *Validator, sentence string, req *therapy.Request) Result {
	t.Helper()
	res := v.Validate([]therapy.Candidate{{Sentence: sentence}}, req)
	if len(res) != 1 {
		t.Fatalf("Validate returned %d results, want 1", len(res))
	}
	return res[0]
}

func TestValidate(t *testing.T) {
	t.Parallel()
	v := New(testAnalyzer(t))

	tests := []struct {
		name       string
		req        *therapy.Request
		sentence   string
		wantPassed bool
		wantReason FailReason
		wantDetail string
		wantWords  []string
	}{
		{"korean valid", koreanRequest(), "라면이 정말 너무 맛있어요", true, "", "", []string{"라면이"}},
		{"korean word count", koreanRequest(), "라면이 맛있어", false, FailWordCount, "expected 4, got 2", []string{}},
		{"korean no phoneme", koreanRequest(), "사과가 정말 너무 맛있어요", false, FailPhoneme, "found 0, need 1", []string{}},
		{"korean second valid", koreanRequest(), "달리기를 정말 하고 싶어요", true, "", "", []string{"달리기를"}},
		{"semantic repetition", koreanRequest(), "맛있는 라면을 맛있게 먹어요", false, FailSemanticRepetition, `stem "맛있" repeated`, []string{}},
		{"english valid", englishRequest(), "The red car runs", true, "", "", []string{"red", "car", "runs"}},
		{"english word count", englishRequest(), "Red car", false, FailWordCount, "expected 4, got 2", []string{}},
		{"core word present", coreRequest(therapy.Korean, "줘"), "이거 밥 줘", true, "", "", []string{}},
		{"core default words", coreRequest(therapy.Korean), "고양이가 밥을 먹어요", false, FailCoreVocabulary, "no core word found", []string{}},
		{"core spacing artifact", coreRequest(therapy.Korean), "이거 뭐 야", false, FailCoreVocabulary, "ending split from its word", []string{}},
		{"core with particle", coreRequest(therapy.Korean, "이거"), "이거는 내 거야", true, "", "", []string{}},
		{"english core", coreRequest(therapy.English), "I want more!", true, "", "", []string{}},
		{"english core missing", coreRequest(therapy.English), "I like cats", false, FailCoreVocabulary, "no core word found", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := validateOne(t, v, tt.sentence, tt.req)
			if got.Passed != tt.wantPassed {
				t.Fatalf("Passed=%v, want %v (%s)", got.Passed, tt.wantPassed, got.Message())
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason=%q, want %q", got.Reason, tt.wantReason)
			}
			if got.Detail != tt.wantDetail {
				t.Errorf("Detail=%q, want %q", got.Detail, tt.wantDetail)
			}
			if !slices.Equal(got.MatchedWords, tt.wantWords) {
				t.Errorf("MatchedWords=%v, want %v", got.MatchedWords, tt.wantWords)
			}
			if got.MatchedWords == nil {
				t.Error("MatchedWords must not be nil")
			}
		})
	}
}

func TestValidate_NoPredicate(t *testing.T) {
	t.Parallel()
	req := koreanRequest()
	req.SentenceLength = 2
	req.Target = &therapy.Target{Phoneme: "ㅁ", Position: therapy.Onset}

	got := validateOne(t, New(testAnalyzer(t)), "엄마 마음", req)
	if got.Passed || got.Reason != FailNoPredicate {
		t.Errorf("got Passed=%v Reason=%q, want no_predicate failure", got.Passed, got.Reason)
	}
}

func TestValidate_LengthInvariant(t *testing.T) {
	t.Parallel()
	req := koreanRequest()
	cands := []therapy.Candidate{
		{Sentence: "라면이 정말 너무 맛있어요"},
		{Sentence: "라면이 맛있어"},
		{Sentence: "  라면이   정말  너무   맛있어요  "},
		{Sentence: "라면이 정말 너무 너무 맛있어요"},
		{Sentence: ""},
	}
	for _, r := range Passed(New(testAnalyzer(t)).Validate(cands, req)) {
		if r.WordCount != req.SentenceLength {
			t.Errorf("passed result %q has WordCount=%d, want %d", r.Sentence, r.WordCount, req.SentenceLength)
		}
	}
}

func TestValidate_MultipleSentences(t *testing.T) {
	t.Parallel()
	results := New(testAnalyzer(t)).Validate([]therapy.Candidate{
		{Sentence: "라면이 정말 너무 맛있어요"},
		{Sentence: "사과가 맛있어"},
		{Sentence: "달리기를 정말 하고 싶어요"},
	}, koreanRequest())

	if len(results) != 3 {
		t.Fatalf("len(results)=%d, want 3", len(results))
	}
	if n := len(Passed(results)); n != 2 {
		t.Errorf("passed=%d, want 2", n)
	}
}

func TestValidate_Difficulty(t *testing.T) {
	t.Parallel()
	results := New(testAnalyzer(t)).Validate([]therapy.Candidate{
		{Sentence: "라면이 정말 너무 맛있어요", Difficulty: "EASY"},
		{Sentence: "라면이 정말 너무 맛있어요", Difficulty: "extreme"},
	}, koreanRequest())

	if results[0].Difficulty != therapy.Easy {
		t.Errorf("Difficulty=%q, want easy", results[0].Difficulty)
	}
	if results[1].Difficulty != "" {
		t.Errorf("Difficulty=%q, want empty for unknown tier", results[1].Difficulty)
	}
}

func TestValidate_Guardrail(t *testing.T) {
	t.Parallel()
	lex, err := lexicon.Default()
	if err != nil {
		t.Fatalf("lexicon.Default: %v", err)
	}
	v := New(testAnalyzer(t), WithGuardrail(lex))

	got := validateOne(t, v, "라면이랑 술을 같이 먹어요", koreanRequest())
	if got.Passed || got.Reason != FailOther {
		t.Errorf("got Passed=%v Reason=%q, want other failure", got.Passed, got.Reason)
	}
	if got := validateOne(t, v, "라면이 정말 너무 맛있어요", koreanRequest()); !got.Passed {
		t.Errorf("clean sentence rejected: %s", got.Message())
	}
}

func TestValidate_PhonologicalRules(t *testing.T) {
	t.Parallel()
	v := New(testAnalyzer(t))
	// 라면이 carries a liaison environment (ㄴ + ㅇ).
	const sentence = "라면이 정말 너무 맛있어요"

	tests := []struct {
		mode       therapy.RulesMode
		wantPassed bool
	}{
		{"", true},
		{therapy.RulesAllow, true},
		{therapy.RulesTrain, true},
		{therapy.RulesAvoid, false},
	}
	for _, tt := range tests {
		req := koreanRequest()
		req.PhonologicalRules = tt.mode
		got := validateOne(t, v, sentence, req)
		if got.Passed != tt.wantPassed {
			t.Errorf("mode %q: Passed=%v, want %v (%s)", tt.mode, got.Passed, tt.wantPassed, got.Message())
		}
		if !tt.wantPassed && got.Reason != FailOther {
			t.Errorf("mode %q: Reason=%q, want other", tt.mode, got.Reason)
		}
	}
}

func TestResult_Message(t *testing.T) {
	t.Parallel()
	r := Result{Reason: FailWordCount, Detail: "expected 4, got 2"}
	if got := r.Message(); got != "word_count: expected 4, got 2" {
		t.Errorf("Message()=%q", got)
	}
	if got := (Result{Passed: true}).Message(); got != "" {
		t.Errorf("Message() on passed=%q, want empty", got)
	}
}

func TestValidateContrastSets(t *testing.T) {
	t.Parallel()
	req := koreanRequest()
	req.SentenceLength = 3

	tokenized := func(tokens ...string) therapy.TokenizedSentence {
		return therapy.TokenizedSentence{Text: strings.Join(tokens, " "), Tokens: tokens}
	}
	valid := therapy.ContrastSet{
		TargetWord:       "라면",
		ContrastWord:     "나무",
		TargetSentence:   tokenized("라면을", "정말", "좋아해요"),
		ContrastSentence: tokenized("나무를", "정말", "좋아해요"),
	}
	shortSet := valid
	shortSet.ContrastSentence = tokenized("나무를", "좋아해요")
	noPhoneme := valid
	noPhoneme.TargetWord = "사과"
	noPhoneme.TargetSentence = tokenized("사과가", "정말", "좋아해요")
	missingWord := valid
	missingWord.ContrastWord = "바다"

	got := New(testAnalyzer(t)).ValidateContrastSets(
		[]therapy.ContrastSet{valid, shortSet, noPhoneme, missingWord}, req)
	if len(got) != 1 || got[0].TargetWord != "라면" {
		t.Errorf("ValidateContrastSets kept %+v, want only the valid set", got)
	}
}
