package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidLLMProviders lists known LLM provider names. Used by [Validate] to
// warn about unrecognised names.
var ValidLLMProviders = []string{
	"openai", "gemini", "anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown keys are rejected. Secrets may reference environment variables,
// see [ExpandSecrets].
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ExpandSecrets(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandSecrets replaces $VAR and ${VAR} references in provider API keys,
// base URLs and the PostgreSQL DSN with the environment's values. Other
// fields are taken literally.
func ExpandSecrets(cfg *Config) {
	expand := func(e *ProviderEntry) {
		e.APIKey = os.ExpandEnv(e.APIKey)
		e.BaseURL = os.ExpandEnv(e.BaseURL)
	}
	expand(&cfg.Providers.LLM)
	for i := range cfg.Providers.LLMFallbacks {
		expand(&cfg.Providers.LLMFallbacks[i])
	}
	cfg.Lexicon.PostgresDSN = os.ExpandEnv(cfg.Lexicon.PostgresDSN)
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout %s must not be negative", cfg.Server.RequestTimeout))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Providers
	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	}
	validateProviderName("providers.llm", cfg.Providers.LLM)
	for i, fb := range cfg.Providers.LLMFallbacks {
		prefix := fmt.Sprintf("providers.llm_fallbacks[%d]", i)
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		validateProviderName(prefix, fb)
	}
	if cfg.Providers.Circuit.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("providers.circuit_breaker.max_failures %d must not be negative", cfg.Providers.Circuit.MaxFailures))
	}

	// Pipeline
	p := cfg.Pipeline
	if p.MaxAttempts != 0 && (p.MaxAttempts < 1 || p.MaxAttempts > 3) {
		errs = append(errs, fmt.Errorf("pipeline.max_attempts %d is out of range [1, 3]", p.MaxAttempts))
	}
	if p.Oversample < 0 {
		errs = append(errs, fmt.Errorf("pipeline.oversample %d must not be negative", p.Oversample))
	}
	if p.BatchFactor != 0 && p.BatchFactor < 1 {
		errs = append(errs, fmt.Errorf("pipeline.batch_factor %.2f must be at least 1", p.BatchFactor))
	}
	if p.MaxSimilar < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_similar %d must not be negative", p.MaxSimilar))
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		errs = append(errs, fmt.Errorf("pipeline.temperature %.2f is out of range [0, 2]", p.Temperature))
	}
	if p.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_tokens %d must not be negative", p.MaxTokens))
	}

	// Lexicon
	if cfg.Lexicon.Source != "" && !cfg.Lexicon.Source.IsValid() {
		errs = append(errs, fmt.Errorf("lexicon.source %q is invalid; valid values: embedded, postgres", cfg.Lexicon.Source))
	}
	if cfg.Lexicon.Source == LexiconPostgres && cfg.Lexicon.PostgresDSN == "" {
		errs = append(errs, errors.New("lexicon.postgres_dsn is required when lexicon.source is postgres"))
	}
	if cfg.Lexicon.Source != LexiconPostgres && cfg.Lexicon.Seed {
		slog.Warn("lexicon.seed has no effect unless lexicon.source is postgres")
	}

	// Telemetry
	if r := cfg.Telemetry.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio %.2f is out of range [0, 1]", r))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if the entry names an unknown provider.
func validateProviderName(field string, e ProviderEntry) {
	if e.Name == "" || slices.Contains(ValidLLMProviders, e.Name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"field", field,
		"name", e.Name,
		"known", ValidLLMProviders,
	)
}
