package config_test

import (
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/MrWong99/talktalk/internal/config"
	"github.com/MrWong99/talktalk/pkg/provider/llm"
	"github.com/MrWong99/talktalk/pkg/provider/llm/mock"
)

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()
	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q.IsValid()=false, want true", l)
		}
	}
	if config.LogLevel("trace").IsValid() {
		t.Error(`"trace".IsValid()=true, want false`)
	}
}

func TestLexiconSource_IsValid(t *testing.T) {
	t.Parallel()
	if !config.LexiconEmbedded.IsValid() || !config.LexiconPostgres.IsValid() {
		t.Error("known lexicon sources reported invalid")
	}
	if config.LexiconSource("sqlite").IsValid() {
		t.Error(`"sqlite".IsValid()=true, want false`)
	}
}

func TestRegistry_CreateLLM(t *testing.T) {
	t.Parallel()

	reg := config.NewRegistry()
	want := &mock.Provider{}
	var gotEntry config.ProviderEntry
	reg.RegisterLLM("gemini", func(e config.ProviderEntry) (llm.Provider, error) {
		gotEntry = e
		return want, nil
	})

	p, err := reg.CreateLLM(config.ProviderEntry{Name: "gemini", Model: "gemini-3-flash-preview"})
	if err != nil {
		t.Fatalf("CreateLLM: %v", err)
	}
	if p != want {
		t.Error("CreateLLM returned a different provider")
	}
	if gotEntry.Model != "gemini-3-flash-preview" {
		t.Errorf("factory got Model=%q", gotEntry.Model)
	}
}

func TestRegistry_NotRegistered(t *testing.T) {
	t.Parallel()
	_, err := config.NewRegistry().CreateLLM(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("CreateLLM() err=%v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	boom := errors.New("missing api key")
	reg.RegisterLLM("openai", func(config.ProviderEntry) (llm.Provider, error) { return nil, boom })
	if _, err := reg.CreateLLM(config.ProviderEntry{Name: "openai"}); !errors.Is(err, boom) {
		t.Fatalf("CreateLLM() err=%v, want %v", err, boom)
	}
}

func TestRegistry_LLMNames(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	for _, n := range []string{"openai", "anthropic", "gemini"} {
		reg.RegisterLLM(n, func(config.ProviderEntry) (llm.Provider, error) { return &mock.Provider{}, nil })
	}
	if got, want := reg.LLMNames(), []string{"anthropic", "gemini", "openai"}; !slices.Equal(got, want) {
		t.Errorf("LLMNames()=%v, want %v", got, want)
	}
}

func TestLogLevel_Level(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   config.LogLevel
		want slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := tt.in.Level(); got != tt.want {
			t.Errorf("LogLevel(%q).Level()=%v, want %v", tt.in, got, tt.want)
		}
	}
}
