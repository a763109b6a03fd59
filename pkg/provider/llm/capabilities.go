package llm

import "strings"

// modelFamily maps a model-name prefix to its limits. Order matters: the
// first matching prefix wins.
type modelFamily struct {
	prefix string
	window int
	output int
	noJSON bool
}

var modelFamilies = []modelFamily{
	{prefix: "gpt-4o", window: 128_000, output: 16_384},
	{prefix: "gpt-4.1", window: 1_047_576, output: 32_768},
	{prefix: "gpt-4", window: 8_192, output: 4_096, noJSON: true},
	{prefix: "gpt-3.5-turbo", window: 16_385, output: 4_096},
	{prefix: "o1", window: 200_000, output: 100_000},
	{prefix: "o3", window: 200_000, output: 100_000},
	{prefix: "gemini-1.5-pro", window: 2_097_152, output: 8_192},
	{prefix: "gemini", window: 1_048_576, output: 65_536},
	{prefix: "claude", window: 200_000, output: 8_192},
}

// LookupCapabilities returns the known limits for model, matched by name
// prefix. Unknown models get a 128k window and 4096 output tokens.
// jsonMode reports whether the calling backend can enforce JSON output at all;
// it is ANDed with the model's own support.
func LookupCapabilities(model string, jsonMode bool) ModelCapabilities {
	caps := ModelCapabilities{
		ContextWindow:    128_000,
		MaxOutputTokens:  4_096,
		SupportsJSONMode: jsonMode,
	}
	lower := strings.ToLower(model)
	for _, f := range modelFamilies {
		if strings.HasPrefix(lower, f.prefix) {
			caps.ContextWindow = f.window
			caps.MaxOutputTokens = f.output
			caps.SupportsJSONMode = jsonMode && !f.noJSON
			break
		}
	}
	return caps
}
