package llm

import "testing"

func TestLookupCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model    string
		jsonMode bool
		want     ModelCapabilities
	}{
		{"gpt-4o-mini", true, ModelCapabilities{128_000, 16_384, true}},
		{"GPT-4o", true, ModelCapabilities{128_000, 16_384, true}},
		{"gpt-4", true, ModelCapabilities{8_192, 4_096, false}},
		{"gpt-3.5-turbo", true, ModelCapabilities{16_385, 4_096, true}},
		{"gemini-3-flash-preview", true, ModelCapabilities{1_048_576, 65_536, true}},
		{"gemini-1.5-pro-latest", false, ModelCapabilities{2_097_152, 8_192, false}},
		{"claude-sonnet-4", false, ModelCapabilities{200_000, 8_192, false}},
		{"qwen2.5:7b", false, ModelCapabilities{128_000, 4_096, false}},
		{"my-custom-model", true, ModelCapabilities{128_000, 4_096, true}},
	}
	for _, tt := range tests {
		if got := LookupCapabilities(tt.model, tt.jsonMode); got != tt.want {
			t.Errorf("LookupCapabilities(%q, %v) = %+v, want %+v", tt.model, tt.jsonMode, got, tt.want)
		}
	}
}
