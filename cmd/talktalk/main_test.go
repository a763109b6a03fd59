package main

import (
	"errors"
	"slices"
	"testing"

	"github.com/MrWong99/talktalk/internal/config"
	"github.com/MrWong99/talktalk/internal/resilience"
)

func TestRegisterBuiltinProviders(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	got := reg.LLMNames()
	for _, want := range config.ValidLLMProviders {
		if !slices.Contains(got, want) {
			t.Errorf("LLMNames() missing %q: %v", want, got)
		}
	}
}

func TestBuildLLM(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	cfg := &config.Config{Providers: config.ProvidersConfig{
		LLM: config.ProviderEntry{Name: "gemini", APIKey: "test-key", Model: "gemini-3-flash-preview"},
		LLMFallbacks: []config.ProviderEntry{
			{Name: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"},
		},
	}}
	fb, err := buildLLM(cfg, reg)
	if err != nil {
		t.Fatalf("buildLLM: %v", err)
	}
	states := fb.States()
	if len(states) != 2 || states[0].Name != "gemini/gemini-3-flash-preview" || states[1].Name != "openai/gpt-4o-mini" {
		t.Errorf("States() = %+v", states)
	}
	for _, s := range states {
		if s.State != resilience.StateClosed {
			t.Errorf("%s state = %v, want closed", s.Name, s.State)
		}
	}
	if caps := fb.Capabilities(); !caps.SupportsJSONMode {
		t.Errorf("Capabilities() = %+v, want gemini JSON mode", caps)
	}
}

func TestBuildLLM_Errors(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	unknown := &config.Config{Providers: config.ProvidersConfig{LLM: config.ProviderEntry{Name: "watson", Model: "x"}}}
	if _, err := buildLLM(unknown, reg); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("buildLLM(unknown) err = %v, want ErrProviderNotRegistered", err)
	}

	noKey := &config.Config{Providers: config.ProvidersConfig{LLM: config.ProviderEntry{Name: "openai", Model: "gpt-4o"}}}
	if _, err := buildLLM(noKey, reg); err == nil {
		t.Error("buildLLM(openai without key) returned nil error")
	}
}

func TestOptString(t *testing.T) {
	t.Parallel()
	opts := map[string]any{"backend": "anyllm", "n": 3}
	if got := optString(opts, "backend"); got != "anyllm" {
		t.Errorf("optString(backend) = %q, want anyllm", got)
	}
	if got := optString(opts, "n"); got != "" {
		t.Errorf("optString(n) = %q, want empty", got)
	}
	if got := optString(nil, "backend"); got != "" {
		t.Errorf("optString(nil) = %q, want empty", got)
	}
}
