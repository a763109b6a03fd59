package therapy

// MatchedWord is a span of the sentence that carries the target phoneme.
// Offsets are rune indices into Item.Text; EndIndex is exclusive.
type MatchedWord struct {
	Word       string     `json:"word"`
	StartIndex int        `json:"startIndex"`
	EndIndex   int        `json:"endIndex"`
	Positions  []Position `json:"positions"`
}

// Item is one sentence in a successful response.
type Item struct {
	ID           string        `json:"id"`
	Text         string        `json:"text"`
	Target       *Target       `json:"target,omitempty"`
	MatchedWords []MatchedWord `json:"matchedWords"`
	WordCount    int           `json:"wordCount"`
	Score        float64       `json:"score"`
	Difficulty   Difficulty    `json:"difficulty,omitempty"`
	Tokens       []string      `json:"tokens,omitempty"`
	Diagnosis    Diagnosis     `json:"diagnosis"`
	Approach     Approach      `json:"approach"`
	Theme        string        `json:"theme,omitempty"`
	Function     Function      `json:"function,omitempty"`

	// AgeAppropriateness (0-1) and DifficultWords describe how well the
	// vocabulary fits the requested age. Korean only.
	AgeAppropriateness float64  `json:"ageAppropriateness,omitempty"`
	DifficultWords     []string `json:"difficultWords,omitempty"`
}

// TokenizedSentence is a sentence together with its token list.
type TokenizedSentence struct {
	Text   string   `json:"text"`
	Tokens []string `json:"tokens"`
}

// ContrastSet pairs a target sentence with a minimally (or maximally)
// contrasting one.
type ContrastSet struct {
	TargetWord       string            `json:"targetWord"`
	ContrastWord     string            `json:"contrastWord"`
	TargetSentence   TokenizedSentence `json:"targetSentence"`
	ContrastSentence TokenizedSentence `json:"contrastSentence"`
}

// Meta summarizes a generation run.
type Meta struct {
	RequestedCount      int     `json:"requestedCount"`
	GeneratedCount      int     `json:"generatedCount"`
	AverageScore        float64 `json:"averageScore"`
	ProcessingTimeMs    int64   `json:"processingTimeMs"`
	ValidationRate      float64 `json:"validationRate"`
	UniqueStructures    int     `json:"uniqueStructures"`
	VocabularyDiversity float64 `json:"vocabularyDiversity"`
}

// Data is the payload of a successful response.
type Data struct {
	Items        []Item        `json:"items"`
	ContrastSets []ContrastSet `json:"contrastSets,omitempty"`
	Meta         Meta          `json:"meta"`
}

// Response is the success envelope.
type Response struct {
	Success bool `json:"success"`
	Data    Data `json:"data"`
}

// ErrorCode classifies an error response.
type ErrorCode string

const (
	CodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	CodeGenerationFailed    ErrorCode = "GENERATION_FAILED"
	CodeInsufficientResults ErrorCode = "INSUFFICIENT_RESULTS"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeServiceUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
)

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}
