// Package generate is the boundary to the language model. It renders a
// prompt from a therapy request, sends it to an [llm.Provider] and turns
// whatever comes back into candidate sentences.
//
// The parser is deliberately forgiving: models return items, contrast sets
// or bare sentence lists, sometimes wrapped in markdown, sometimes not JSON
// at all. Only transport failures surface as errors.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/talktalk/internal/observe"
	"github.com/MrWong99/talktalk/pkg/provider/llm"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

const (
	defaultTemperature = 0.8
	defaultMaxTokens   = 8192
)

// Generator produces candidate sentences with an LLM. It is safe for
// concurrent use.
type Generator struct {
	llm         llm.Provider
	name        string
	temperature float64
	maxTokens   int
	metrics     *observe.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemperature sets the sampling temperature. Default: 0.8.
func WithTemperature(t float64) Option {
	return func(g *Generator) { g.temperature = t }
}

// WithMaxTokens caps the completion length. Default: 8192.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// WithMetrics records LLM latency and request counts to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithProviderName labels metrics with name. Default: "llm".
func WithProviderName(name string) Option {
	return func(g *Generator) { g.name = name }
}

// New returns a Generator backed by provider.
func New(provider llm.Provider, opts ...Option) *Generator {
	g := &Generator{
		llm:         provider,
		name:        "llm",
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate asks the model for batch candidates matching req.
func (g *Generator) Generate(ctx context.Context, req *therapy.Request, batch int) (*Batch, error) {
	ctx, span := observe.StartSpan(ctx, "generate.Generate")
	defer span.End()
	log := observe.Logger(ctx)

	prompt := BuildPrompt(req, batch)
	caps := g.llm.Capabilities()
	creq := llm.CompletionRequest{
		SystemPrompt: SystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		Temperature:  g.temperature,
		MaxTokens:    min(g.maxTokens, caps.MaxOutputTokens),
		JSONMode:     caps.SupportsJSONMode,
	}
	if caps.MaxOutputTokens <= 0 {
		creq.MaxTokens = g.maxTokens
	}

	log.Info("llm call started", "prompt_len", len(prompt), "batch", batch, "json_mode", creq.JSONMode)
	start := time.Now()
	resp, err := g.llm.Complete(ctx, creq)
	elapsed := time.Since(start)
	if g.metrics != nil {
		g.metrics.LLMDuration.Record(ctx, elapsed.Seconds())
	}
	if err != nil {
		if g.metrics != nil {
			g.metrics.RecordProviderRequest(ctx, g.name, "llm", "error")
			g.metrics.RecordProviderError(ctx, g.name, "llm")
		}
		observe.Fail(span, err)
		return nil, fmt.Errorf("generate: complete: %w", err)
	}
	if g.metrics != nil {
		g.metrics.RecordProviderRequest(ctx, g.name, "llm", "ok")
	}

	if resp == nil || resp.Content == "" {
		log.Warn("llm returned empty content", "duration", elapsed)
		return &Batch{Format: FormatUnknown}, nil
	}
	if resp.Truncated {
		log.Warn("llm response hit the token limit, keeping what parses", "max_tokens", creq.MaxTokens, "batch", batch)
	}
	b := Parse(resp.Content)
	log.Info("llm response parsed",
		"duration", elapsed,
		"format", b.Format,
		"candidates", len(b.Candidates),
		"contrast_sets", len(b.ContrastSets),
		"total_tokens", resp.Usage.TotalTokens,
	)
	if b.Format == FormatQuoted {
		slog.Debug("llm response was not JSON", "content", truncate(resp.Content, 500))
	}
	return b, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
