package morph

import "regexp"

// Particles are the case and auxiliary particles recognized at the end of a
// Korean word.
var Particles = []string{
	"은", "는", "이", "가", "을", "를", "에", "에서", "으로", "로",
	"와", "과", "하고", "이랑", "랑", "도", "만", "까지", "부터",
	"의", "에게", "한테", "께", "보다",
}

// NounEndings are stripped from a word to recover its noun.
var NounEndings = []string{
	"이", "가", "은", "는", "을", "를", "에", "에서", "으로", "로",
	"와", "과", "도", "만", "의", "에게", "한테",
}

// VerbEndingChars mark a word as a predicate in structure signatures.
var VerbEndingChars = []string{"요", "어", "아", "야", "다", "지", "네", "래"}

// PredicateEndings close a complete Korean utterance. Syllables that also
// end everyday nouns (니, 래, 지, 자) are only listed inside longer endings:
// 할래 but not 고래, 있지 but not 바지.
var PredicateEndings = []string{
	"요", "다", "어", "아", "야", "네", "까", "해", "줘", "봐",
	"와", "워", "서", "라", "게", "죠", "냐", "걸", "돼", "져",
	// -ㄹ래 intention
	"할래", "갈래", "볼래", "줄래", "올래", "잘래", "살래", "놀래", "을래",
	// -지 confirmation
	"있지", "없지", "맞지", "좋지", "했지", "겠지", "었지", "았지", "렇지", "먹지", "하지",
	// -니 question
	"하니", "가니", "보니", "오니", "자니", "먹니", "있니", "없니", "했니", "좋니", "갔니", "왔니", "었니", "았니",
	// -자 suggestion
	"하자", "가자", "먹자", "놀자", "보자", "찾자", "씻자", "읽자", "만들자", "자자",
}

// NounLookalikes are common nouns whose final syllable is also a predicate
// ending. A sentence ending in one of them has no predicate.
var NounLookalikes = map[string]bool{
	"바다": true, "판다": true, "요요": true, "그네": true, "가게": true,
	"카메라": true, "고릴라": true, "상어": true, "문어": true, "오징어": true,
	"고등어": true, "붕어": true, "영어": true, "단어": true, "치아": true,
	"올해": true, "교과서": true, "기와": true,
}

// ClosingPunct may follow a predicate ending.
const ClosingPunct = ".!?~"

// StemGroups maps a descriptive predicate stem to the word prefixes it
// surfaces as. Two words of the same group in one sentence are a semantic
// repetition.
var StemGroups = map[string][]string{
	"예쁘":  {"예쁘", "예쁜", "예뻐", "예뻤"},
	"맛있":  {"맛있"},
	"재미있": {"재미있", "재밌"},
	"좋":   {"좋아", "좋은", "좋다", "좋게", "좋네"},
	"크":   {"크다", "크게", "큰", "커요", "커서", "커다"},
	"작":   {"작은", "작아", "작다", "작게"},
	"귀엽":  {"귀엽", "귀여"},
	"신나":  {"신나", "신난", "신났"},
	"빠르":  {"빠르", "빠른", "빨라", "빨리"},
	"무섭":  {"무섭", "무서"},
	"깨끗":  {"깨끗"},
	"행복":  {"행복"},
	"멋있":  {"멋있", "멋진", "멋져"},
	"슬프":  {"슬프", "슬픈", "슬퍼"},
}

// spacingArtifact matches an inflectional ending that was split off into
// its own token, e.g. "이거 뭐 야" or "사과 예요".
var spacingArtifact = regexp.MustCompile(`(?:^|\s)(?:야|요|예요|이야|에요|이에요|이요|냐|니)[.!?~]*(?:\s|$)`)

// CommonEndings are sentence-final endings used to group sentences by their
// closing morphology. Longest match wins.
var CommonEndings = []string{
	"어요", "아요", "해요", "세요", "예요", "이에요", "에요", "까요",
	"네요", "래요", "지요", "죠", "자", "야", "어", "아", "다", "지", "줘",
}
