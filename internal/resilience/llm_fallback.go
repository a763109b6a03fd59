package resilience

import (
	"context"

	"github.com/MrWong99/talktalk/pkg/provider/llm"
)

// LLMFallback implements [llm.Provider] with failover across several LLM
// backends, each behind its own circuit breaker.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another backend, tried after those already added.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete sends req to the first healthy backend. The request is fitted to
// each backend's limits first, so a fallback without JSON mode gets a plain
// text request.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return ExecuteWithResult(ctx, f.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, fitRequest(req, p.Capabilities()))
	})
}

func fitRequest(req llm.CompletionRequest, caps llm.ModelCapabilities) llm.CompletionRequest {
	if !caps.SupportsJSONMode {
		req.JSONMode = false
	}
	if caps.MaxOutputTokens > 0 && req.MaxTokens > caps.MaxOutputTokens {
		req.MaxTokens = caps.MaxOutputTokens
	}
	return req
}

// Capabilities returns the primary's capabilities. Prompts are sized for the
// primary even when a fallback ends up answering.
func (f *LLMFallback) Capabilities() llm.ModelCapabilities {
	return f.group.Primary().Capabilities()
}

// States reports each backend's breaker state, primary first.
func (f *LLMFallback) States() []BreakerState {
	return f.group.States()
}
