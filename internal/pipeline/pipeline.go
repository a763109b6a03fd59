// Package pipeline runs the sentence pipeline for one request: generate
// candidates, validate them, retry while too few survive, score the pool
// and assemble the response.
//
// A run never fails because of low yield. Generation errors are logged and
// the loop moves on; the caller gets whatever survived together with enough
// metadata to explain a shortfall. [Pipeline.Run] only returns an error for
// an invalid request or a cancelled context.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/talktalk/internal/diversify"
	"github.com/MrWong99/talktalk/internal/generate"
	"github.com/MrWong99/talktalk/internal/observe"
	"github.com/MrWong99/talktalk/internal/score"
	"github.com/MrWong99/talktalk/internal/validate"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

// Generator proposes candidates. [generate.Generator] is the production
// implementation.
type Generator interface {
	Generate(ctx context.Context, req *therapy.Request, batch int) (*generate.Batch, error)
}

// Config tunes the retry loop and the optional diversity selection.
type Config struct {
	// MaxAttempts bounds the number of generation calls per run.
	MaxAttempts int
	// Oversample multiplies Count to get the number of validated candidates
	// a run aims for.
	Oversample int
	// BatchFactor inflates each request to the model to absorb validation
	// losses.
	BatchFactor float64
	// Diversify enables the greedy diversity selection after scoring.
	Diversify bool
	// MaxSimilar caps sentences sharing a pattern key during selection.
	MaxSimilar int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 1,
		Oversample:  3,
		BatchFactor: 1.5,
		MaxSimilar:  diversify.DefaultMaxSimilar,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Oversample <= 0 {
		c.Oversample = d.Oversample
	}
	if c.BatchFactor <= 0 {
		c.BatchFactor = d.BatchFactor
	}
	if c.MaxSimilar <= 0 {
		c.MaxSimilar = d.MaxSimilar
	}
	return c
}

// Result is the outcome of one run.
type Result struct {
	Items        []therapy.Item
	ContrastSets []therapy.ContrastSet
	Meta         therapy.Meta
	Metrics      Metrics
}

// Data returns the response payload for r.
func (r *Result) Data() therapy.Data {
	return therapy.Data{Items: r.Items, ContrastSets: r.ContrastSets, Meta: r.Meta}
}

// Pipeline is safe for concurrent use. Each Run is independent; the
// validator, scorer and their lookup tables are shared read-only.
type Pipeline struct {
	gen       Generator
	validator *validate.Validator
	scorer    *score.Scorer
	metrics   *observe.Metrics
	cfg       atomic.Pointer[Config]
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig sets the initial tuning. Zero fields take their defaults.
func WithConfig(c Config) Option {
	return func(p *Pipeline) { p.SetConfig(c) }
}

// WithMetrics records run metrics to m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New wires a pipeline from its stages.
func New(gen Generator, validator *validate.Validator, scorer *score.Scorer, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:       gen,
		validator: validator,
		scorer:    scorer,
		now:       time.Now,
	}
	p.SetConfig(DefaultConfig())
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// SetConfig replaces the tuning for subsequent runs. Runs in flight keep the
// config they started with.
func (p *Pipeline) SetConfig(c Config) {
	c = c.withDefaults()
	p.cfg.Store(&c)
}

// Config returns the current tuning.
func (p *Pipeline) Config() Config {
	return *p.cfg.Load()
}

// Run executes the pipeline for req.
func (p *Pipeline) Run(ctx context.Context, req *therapy.Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cfg := p.Config()
	start := p.now()

	ctx, span := observe.StartSpan(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("language", string(req.Language)),
		attribute.String("approach", string(req.Approach)),
		attribute.Int("count", req.Count),
	)
	p.metrics.ActiveRequests.Add(ctx, 1)
	defer p.metrics.ActiveRequests.Add(ctx, -1)

	log := observe.Logger(ctx)
	target := req.Count * cfg.Oversample
	if req.Target != nil {
		log.Info("pipeline started", "count", req.Count, "phoneme", req.Target.Phoneme,
			"position", req.Target.Position, "approach", req.Approach)
	} else {
		log.Info("pipeline started", "count", req.Count, "approach", req.Approach)
	}

	var (
		results   []validate.Result
		validated []validate.Result
		sets      []therapy.ContrastSet
	)
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			observe.Fail(span, err)
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		deficit := target - len(validated)
		if deficit <= 0 {
			log.Info("enough candidates, skipping generation", "attempt", attempt)
			break
		}
		batchSize := int(float64(deficit) * cfg.BatchFactor)
		log.Info("generation attempt", "attempt", attempt, "max_attempts", cfg.MaxAttempts, "batch", batchSize)
		p.metrics.GenerationAttempts.Add(ctx, 1)

		genStart := p.now()
		batch, err := p.gen.Generate(ctx, req, batchSize)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				observe.Fail(span, ctxErr)
				return nil, fmt.Errorf("pipeline: %w", ctxErr)
			}
			log.Error("generation attempt failed", "attempt", attempt, "duration", p.now().Sub(genStart), "err", err)
			continue
		}
		log.Info("generation complete", "candidates", len(batch.Candidates),
			"contrast_sets", len(batch.ContrastSets), "duration", p.now().Sub(genStart))

		attemptResults := p.validateStage(ctx, batch.Candidates, req)
		passed := validate.Passed(attemptResults)
		results = append(results, attemptResults...)
		validated = append(validated, passed...)

		if len(batch.ContrastSets) > 0 {
			ok := p.validator.ValidateContrastSets(batch.ContrastSets, req)
			log.Debug("contrast sets validated", "received", len(batch.ContrastSets), "kept", len(ok))
			sets = append(sets, ok...)
			if len(sets) > req.Count {
				sets = sets[:req.Count]
			}
		}
		log.Info("attempt complete", "attempt", attempt, "validated_total", len(validated))
		if len(validated) >= target {
			break
		}
	}

	_, scoreSpan := observe.StartSpan(ctx, "pipeline.Score")
	final := p.scorer.Score(validated, req)
	scoreSpan.End()
	log.Info("scoring complete", "scored", len(final))

	if cfg.Diversify {
		_, divSpan := observe.StartSpan(ctx, "pipeline.Diversify")
		final = diversify.Diversify(final, target, cfg.MaxSimilar)
		divSpan.End()
	}

	m := computeMetrics(results, final, req.Language)
	m.log(log)

	items := make([]therapy.Item, len(final))
	var total float64
	for i, s := range final {
		items[i] = toItem(s, req)
		total += s.Score
	}
	elapsed := p.now().Sub(start)

	res := &Result{
		Items:        items,
		ContrastSets: sets,
		Metrics:      m,
		Meta: therapy.Meta{
			RequestedCount:      req.Count,
			GeneratedCount:      len(items),
			ProcessingTimeMs:    elapsed.Milliseconds(),
			ValidationRate:      round(m.ValidationRate, 1),
			UniqueStructures:    m.UniqueStructures,
			VocabularyDiversity: round(m.VocabularyDiversity, 1),
		},
	}
	if len(final) > 0 {
		res.Meta.AverageScore = round(total/float64(len(final)), 2)
	}

	p.metrics.PipelineDuration.Record(ctx, elapsed.Seconds())
	p.metrics.RecordSentences(ctx, string(req.Language), string(req.Approach), len(items))
	log.Info("pipeline complete", "items", len(items), "requested", req.Count, "duration", elapsed)
	return res, nil
}

func (p *Pipeline) validateStage(ctx context.Context, cands []therapy.Candidate, req *therapy.Request) []validate.Result {
	ctx, span := observe.StartSpan(ctx, "pipeline.Validate")
	defer span.End()

	results := p.validator.Validate(cands, req)
	counts := make(map[string]int)
	for _, r := range results {
		if r.Passed {
			counts["passed"]++
		} else {
			counts[string(r.Reason)]++
		}
	}
	for result, n := range counts {
		p.metrics.RecordCandidates(ctx, result, n)
	}
	span.SetAttributes(attribute.Int("candidates", len(results)), attribute.Int("passed", counts["passed"]))

	if failed := len(results) - counts["passed"]; failed > 0 {
		delete(counts, "passed")
		observe.Logger(ctx).Warn("candidates rejected", "passed", len(results)-failed, "total", len(results), "reasons", counts)
	}
	return results
}

// toItem converts a scored sentence into a response item. Spans are only
// computed when the request has a target; repeated words map to successive
// occurrences.
func toItem(s score.Sentence, req *therapy.Request) therapy.Item {
	item := therapy.Item{
		ID:           uuid.NewString(),
		Text:         s.Sentence,
		Target:       req.Target,
		MatchedWords: []therapy.MatchedWord{},
		WordCount:    s.WordCount,
		Score:        s.Score,
		Difficulty:   s.Difficulty,
		Tokens:       strings.Fields(s.Sentence),
		Diagnosis:    req.Diagnosis,
		Approach:     req.Approach,
		Theme:        req.Theme,
		Function:     req.Function,
	}
	if s.Lexical != nil {
		item.AgeAppropriateness = s.Lexical.AgeAppropriateness
		if len(s.Lexical.DifficultWords) > 0 {
			item.DifficultWords = s.Lexical.DifficultWords
		}
	}
	if req.Target == nil {
		return item
	}

	from := make(map[string]int)
	for _, w := range s.MatchedWords {
		if w == "" {
			continue
		}
		offset := from[w]
		idx := strings.Index(s.Sentence[offset:], w)
		if idx < 0 {
			if offset == 0 {
				continue
			}
			// Fewer occurrences than matches; fall back to the first one.
			offset, idx = 0, strings.Index(s.Sentence, w)
		}
		byteStart := offset + idx
		from[w] = byteStart + len(w)
		start := utf8.RuneCountInString(s.Sentence[:byteStart])
		item.MatchedWords = append(item.MatchedWords, therapy.MatchedWord{
			Word:       w,
			StartIndex: start,
			EndIndex:   start + utf8.RuneCountInString(w),
			Positions:  []therapy.Position{req.Target.Position},
		})
	}
	return item
}
