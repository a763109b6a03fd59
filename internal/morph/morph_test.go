package morph

import (
	"slices"
	"testing"

	"github.com/MrWong99/talktalk/pkg/therapy"
)

func TestStripParticle(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"라면이":  "라면",
		"학교에서": "학교",
		"친구랑":  "친구",
		"친구이랑": "친구",
		"줘":    "줘",
		"이":    "이",
		"물을":   "물",
		"엄마한테": "엄마",
	}
	for in, want := range tests {
		if got := StripParticle(in); got != want {
			t.Errorf("StripParticle(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestRepeatedStem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sentence string
		stem     string
		want     bool
	}{
		{"맛있는 라면을 맛있게 먹어요", "맛있", true},
		{"예쁜 꽃이 예뻐요", "예쁘", true},
		{"라면이 정말 너무 맛있어요", "", false},
		{"큰 곰이 커요", "크", true},
		{"크레용으로 그림을 그려요", "", false},
	}
	for _, tt := range tests {
		stem, ok := RepeatedStem(tt.sentence)
		if ok != tt.want || stem != tt.stem {
			t.Errorf("RepeatedStem(%q)=%q,%v, want %q,%v", tt.sentence, stem, ok, tt.stem, tt.want)
		}
	}
}

func TestHasPredicate(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"이거 밥 줘":  true,
		"라면이 맛있어": true,
		"엄마 마음":   false,
		"물 주세요!":  true,
		"뭐야?":     true,
		"사과 과자":   false,
		"아빠 차":    false,
		"":        false,
		"엄마 언니":   false,
		"우리 할머니":  false,
		"아기 고래":   false,
		"엄마 바지":   false,
		"파란 바다":   false,
		"큰 상어":    false,
		"같이 놀자":   true,
		"이거 할래?":  true,
		"사과 먹을래?": true,
		"밥 먹었니?":  true,
		"이거 맞지?":  true,
		"우리 가자!":  true,
	}
	for in, want := range tests {
		if got := HasPredicate(in); got != want {
			t.Errorf("HasPredicate(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestHasSpacingArtifact(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"이거 뭐 야":   true,
		"사과 예요":    true,
		"이거 뭐 야?":  true,
		"이거 뭐야":    false,
		"요요 놀이 해요": false,
		"사과 이에요":   true,
		"우유 더 주세요": false,
	}
	for in, want := range tests {
		if got := HasSpacingArtifact(in); got != want {
			t.Errorf("HasSpacingArtifact(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sentence string
		lang     therapy.Language
		want     string
	}{
		{"강아지가 밥을 먹어요", therapy.Korean, "N가 N을 V"},
		{"라면이 정말 너무 맛있어요", therapy.Korean, "N이 X X V"},
		{"정말 멋있다!", therapy.Korean, "X V!"},
		{"친구랑 학교에서 놀아", therapy.Korean, "N랑 N에서 V"},
		{"The Red Car", therapy.English, "the red car"},
	}
	for _, tt := range tests {
		if got := Signature(tt.sentence, tt.lang); got != tt.want {
			t.Errorf("Signature(%q)=%q, want %q", tt.sentence, got, tt.want)
		}
	}
}

func TestNouns(t *testing.T) {
	t.Parallel()

	got := Nouns("강아지가 밥을 먹어요", therapy.Korean)
	if want := []string{"강아지", "먹어요"}; !slices.Equal(got, want) {
		t.Errorf("Nouns(ko)=%v, want %v", got, want)
	}
	got = Nouns("라면이 라면을 좋아해", therapy.Korean)
	if want := []string{"라면", "좋아해"}; !slices.Equal(got, want) {
		t.Errorf("Nouns(ko dup)=%v, want %v", got, want)
	}
	got = Nouns("The cat the Dog", therapy.English)
	if want := []string{"the", "cat", "dog"}; !slices.Equal(got, want) {
		t.Errorf("Nouns(en)=%v, want %v", got, want)
	}
}

func TestEnding(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"맛있어요": "어요",
		"먹자":   "자",
		"좋아!":  "!",
		"싶어요":  "어요",
		"주세요":  "세요",
		"라면":   "라면",
		"바나나":  "나나",
		"선생님":  "생님",
		"":     "",
	}
	for in, want := range tests {
		if got := Ending(in); got != want {
			t.Errorf("Ending(%q)=%q, want %q", in, got, want)
		}
	}
}
