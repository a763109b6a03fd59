package generate

import (
	"fmt"
	"strings"

	"github.com/MrWong99/talktalk/internal/lexicon"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

// SystemPrompt is sent with every generation request.
const SystemPrompt = "You are a helpful assistant that generates therapy sentences for children. Always respond in valid JSON format."

type localized struct{ ko, en string }

func (l localized) in(lang therapy.Language) string {
	if lang == therapy.English {
		return l.en
	}
	return l.ko
}

var themeDescriptions = map[string]localized{
	"daily":          {"일상생활 (먹기, 자기, 놀기, 옷 입기 등)", "daily life (eating, sleeping, playing, dressing, etc.)"},
	"animals":        {"동물 (강아지, 고양이, 토끼, 새 등)", "animals (dogs, cats, rabbits, birds, etc.)"},
	"food":           {"음식 (과일, 채소, 간식, 음료 등)", "food (fruits, vegetables, snacks, drinks, etc.)"},
	"family":         {"가족 (엄마, 아빠, 형제, 조부모 등)", "family (mom, dad, siblings, grandparents, etc.)"},
	"school":         {"학교/유치원 (선생님, 친구, 공부, 놀이 등)", "school (teacher, friends, studying, playing, etc.)"},
	"nature":         {"자연 (날씨, 계절, 꽃, 나무 등)", "nature (weather, seasons, flowers, trees, etc.)"},
	"transportation": {"교통수단 (자동차, 버스, 비행기, 자전거 등)", "transportation (cars, buses, airplanes, bicycles, etc.)"},
	"toys":           {"장난감 (인형, 블록, 공, 그림 등)", "toys (dolls, blocks, balls, drawings, etc.)"},
}

var functionDescriptions = map[therapy.Function]localized{
	therapy.FunctionRequest:   {"요청하기 (물건, 도움, 행동을 요청하는 문장)", "requesting (sentences asking for objects, help, or actions)"},
	therapy.FunctionReject:    {"거부하기 (싫어요, 아니요 등 거부 표현)", "rejecting (expressing 'no', 'I don't want', refusal)"},
	therapy.FunctionHelp:      {"도움 요청하기 (도와주세요, 열어주세요 등)", "asking for help (please help, open it for me, etc.)"},
	therapy.FunctionChoice:    {"선택하기 (이것 또는 저것 선택 표현)", "making choices (choosing between options)"},
	therapy.FunctionAttention: {"주의 끌기 (봐주세요, 여기요 등)", "getting attention (look at me, over here, etc.)"},
	therapy.FunctionQuestion:  {"질문하기 (뭐야?, 어디야?, 왜? 등)", "asking questions (what, where, why, etc.)"},
}

var ageGuidelines = map[int]localized{
	3: {"3세: 매우 간단한 문장, 1-2개 핵심 단어, 의성어/의태어 활용", "3 years: very simple sentences, 1-2 key words, use onomatopoeia"},
	4: {"4세: 간단한 문장, 기본 문법, 친숙한 단어 위주", "4 years: simple sentences, basic grammar, familiar vocabulary"},
	5: {"5세: 기본 문장, 조사 사용, 간단한 접속 표현", "5 years: basic sentences, proper particles, simple conjunctions"},
	6: {"6세: 복합 문장 가능, 다양한 조사, 시제 표현", "6 years: compound sentences possible, varied particles, tense expressions"},
	7: {"7세: 복잡한 문장 구조, 추상적 개념, 비유 표현", "7 years: complex sentence structures, abstract concepts, figurative language"},
}

var positionDescriptions = map[therapy.Position]localized{
	therapy.Onset:   {"초성 (음절의 첫소리)", "onset (beginning of syllable)"},
	therapy.Nucleus: {"중성 (모음)", "nucleus (vowel)"},
	therapy.Coda:    {"종성 (음절의 끝소리/받침)", "coda (end of syllable)"},
	therapy.Any:     {"모든 위치 (초성, 중성, 종성 모두 가능)", "any position (onset, nucleus, or coda)"},
}

// BuildPrompt renders the user prompt asking for batch items that satisfy req.
// Minimal-pair and maximal-opposition requests ask for contrast sets,
// complexity requests for difficulty-tagged items and core-vocabulary
// requests for items built around the core words.
func BuildPrompt(req *therapy.Request, batch int) string {
	lang := req.Language
	var sb strings.Builder

	if lang == therapy.English {
		sb.WriteString("You are a specialized AI assistant helping speech-language pathologists.\n")
	} else {
		sb.WriteString("당신은 아동 언어치료사를 돕는 전문 문장 생성 AI입니다.\n")
	}
	switch req.Approach {
	case therapy.MinimalPairs, therapy.MaximalOppositions:
		fmt.Fprintf(&sb, localized{
			"%s 치료를 위한 대조 세트 %d개를 생성해주세요.\n",
			"Please generate %[2]d contrast sets for %[1]s therapy.\n",
		}.in(lang), approachName(req.Approach, lang), batch)
	case therapy.Complexity:
		fmt.Fprintf(&sb, localized{
			"복잡성 기반 치료를 위한 문장 %d개를 난이도별로 생성해주세요.\n",
			"Please generate %d sentences for complexity-based therapy with varying difficulty levels.\n",
		}.in(lang), batch)
	default:
		fmt.Fprintf(&sb, localized{
			"핵심 어휘 치료를 위한 문장 %d개를 생성해주세요.\n",
			"Please generate %d sentences for core vocabulary therapy.\n",
		}.in(lang), batch)
	}

	writeRequirements(&sb, req)

	switch req.Approach {
	case therapy.MinimalPairs, therapy.MaximalOppositions:
		sb.WriteString(localized{contrastGuideKO, contrastGuideEN}.in(lang))
	case therapy.Complexity:
		sb.WriteString(localized{complexityGuideKO, complexityGuideEN}.in(lang))
	default:
		sb.WriteString(localized{coreGuideKO, coreGuideEN}.in(lang))
	}

	fmt.Fprintf(&sb, localized{
		"\n\n%d개를 생성해주세요. 모든 tokens 배열은 정확히 %d개 요소여야 합니다. JSON 출력만 허용됩니다.",
		"\n\nGenerate %d entries. Every tokens array must have exactly %d elements. JSON output only.",
	}.in(lang), batch, req.SentenceLength)
	return sb.String()
}

func approachName(a therapy.Approach, lang therapy.Language) string {
	if a == therapy.MinimalPairs {
		return localized{"최소대립쌍", "minimal pairs"}.in(lang)
	}
	return localized{"최대대립", "maximal oppositions"}.in(lang)
}

func writeRequirements(sb *strings.Builder, req *therapy.Request) {
	lang := req.Language
	guide, ok := ageGuidelines[req.Age]
	if !ok {
		guide = ageGuidelines[5]
	}
	if lang == therapy.English {
		fmt.Fprintf(sb, "\n## Requirements\n- Language: English\n- Target child age: %d years old\n- %s\n", req.Age, guide.en)
		fmt.Fprintf(sb, "- **The tokens array must have exactly %d elements**; the server joins tokens with spaces\n", req.SentenceLength)
	} else {
		fmt.Fprintf(sb, "\n## 생성 조건\n- 언어: 한국어\n- 대상 아동 연령: %d세\n- %s\n", req.Age, guide.ko)
		fmt.Fprintf(sb, "- **tokens 배열의 길이가 정확히 %d개여야 합니다** (서버가 tokens를 띄어쓰기로 join합니다)\n", req.SentenceLength)
	}

	if t := req.Target; t != nil {
		fmt.Fprintf(sb, localized{
			"- 목표 음소: '%s'\n- 음소 위치: %s\n- 최소 출현 횟수: %d회 이상\n",
			"- Target phoneme: '%s'\n- Phoneme position: %s\n- Minimum occurrences: %d or more\n",
		}.in(lang), t.Phoneme, positionDescriptions[t.Position].in(lang), t.Min())
	}
	if req.Approach == therapy.CoreVocabulary {
		words, err := lexicon.ResolveCoreWords(string(lang), req.CoreWords)
		if err == nil {
			quoted := make([]string, len(words))
			for i, w := range words {
				quoted[i] = fmt.Sprintf("%q", w)
			}
			fmt.Fprintf(sb, localized{"- 핵심 어휘 목록 (반드시 사용!): %s\n", "- Core vocabulary (MUST USE!): %s\n"}.in(lang),
				strings.Join(quoted, ", "))
		}
	}
	fmt.Fprintf(sb, localized{"- 진단명: %s\n", "- Diagnosis: %s\n"}.in(lang), req.Diagnosis)
	if req.Theme != "" {
		desc := req.Theme
		if d, ok := themeDescriptions[req.Theme]; ok {
			desc = d.in(lang)
		}
		fmt.Fprintf(sb, localized{"- 주제: %s\n", "- Theme: %s\n"}.in(lang), desc)
	}
	if d, ok := functionDescriptions[req.Function]; ok {
		fmt.Fprintf(sb, localized{"- 의사소통 기능: %s\n", "- Communicative function: %s\n"}.in(lang), d.in(lang))
	}
	sb.WriteString(localized{
		"- 아동에게 긍정적이고 안전한 내용만 생성하세요\n",
		"- Only positive and child-safe content\n",
	}.in(lang))
}

const contrastGuideKO = `
## 대조 세트 설명
- 목표 음소와 대조 음소가 포함된 단어 쌍을 만들고, 각 단어를 포함한 문장을 하나씩 만듭니다
- 예: '라면' vs '나면', '달' vs '탈'

## 출력 형식
{"sets": [
  {
    "target_word": "라면",
    "contrast_word": "나면",
    "target_sentence": {"tokens": ["맛있는", "라면을", "먹어요"]},
    "contrast_sentence": {"tokens": ["봄이", "나면", "좋아요"]}
  }
]}`

const contrastGuideEN = `
## Contrast sets
- Build word pairs with the target phoneme and a contrasting phoneme, plus one sentence for each word
- Example: 'rat' vs 'bat', 'sun' vs 'fun'

## Output format
{"sets": [
  {
    "target_word": "rat",
    "contrast_word": "bat",
    "target_sentence": {"tokens": ["The", "rat", "ran", "fast"]},
    "contrast_sentence": {"tokens": ["The", "bat", "flew", "away"]}
  }
]}`

const complexityGuideKO = `
## 난이도 기준
- easy: 목표 음소가 단순한 위치에 있고 주변 음소가 쉬운 경우
- medium: 목표 음소가 자음군이나 약간 복잡한 환경에 있는 경우
- hard: 목표 음소가 복잡한 음운 환경에 있는 경우
- easy, medium, hard를 균등하게 분배하세요

## 출력 형식
{"items": [
  {"tokens": ["라면을", "맛있게", "먹어요"], "difficulty": "easy"}
]}`

const complexityGuideEN = `
## Difficulty levels
- easy: target phoneme in a simple position with easy surrounding phonemes
- medium: target phoneme in consonant clusters or slightly complex environments
- hard: target phoneme in complex clusters or difficult phonological environments
- Distribute easy, medium and hard evenly

## Output format
{"items": [
  {"tokens": ["The", "rabbit", "runs", "fast"], "difficulty": "easy"}
]}`

const coreGuideKO = `
## 핵심 어휘 접근법
- 각 문장에 위 핵심 어휘 중 하나가 반드시 포함되어야 합니다
- 같은 핵심 어휘를 여러 다른 문맥에서 사용하세요

## 출력 형식
{"items": [
  {"core_word": "줘", "tokens": ["우유", "좀", "줘"]}
]}`

const coreGuideEN = `
## Core vocabulary approach
- Each sentence MUST include one of the core words listed above
- Use the same core word in several different contexts

## Output format
{"items": [
  {"core_word": "want", "tokens": ["I", "want", "more", "cookies"]}
]}`
