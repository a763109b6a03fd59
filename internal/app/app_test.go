package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/talktalk/internal/app"
	"github.com/MrWong99/talktalk/internal/config"
	"github.com/MrWong99/talktalk/internal/observe"
	"github.com/MrWong99/talktalk/internal/resilience"
	"github.com/MrWong99/talktalk/pkg/provider/llm"
	llmmock "github.com/MrWong99/talktalk/pkg/provider/llm/mock"
	"github.com/MrWong99/talktalk/pkg/therapy"
)

// testConfig returns a minimal config using the embedded lexicon.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: "127.0.0.1:0",
			LogLevel:   config.LogInfo,
		},
		Providers: config.ProvidersConfig{
			LLM: config.ProviderEntry{Name: "gemini", Model: "gemini-3-flash-preview"},
		},
		Pipeline: config.PipelineConfig{MaxAttempts: 1},
	}
}

func testOptions(t *testing.T) []app.Option {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return []app.Option{app.WithMetrics(m), app.WithGatherer(prometheus.NewRegistry())}
}

const modelReply = `{"items":[
  {"tokens":["라면을","맛있게","먹어요"],"difficulty":"easy"},
  {"tokens":["노래를","크게","불러요"],"difficulty":"medium"},
  {"tokens":["고양이가","자요"]}
]}`

func koreanRequest() *therapy.Request {
	return &therapy.Request{
		Language:       therapy.Korean,
		Age:            5,
		Count:          2,
		Target:         &therapy.Target{Phoneme: "ㄹ", Position: therapy.Onset},
		SentenceLength: 3,
		Diagnosis:      therapy.SSD,
		Approach:       therapy.Complexity,
	}
}

func TestNew_RequiresProvider(t *testing.T) {
	t.Parallel()
	if _, err := app.New(context.Background(), testConfig(), nil, testOptions(t)...); err == nil {
		t.Fatal("New(nil provider) returned nil error")
	}
}

func TestNew_DictionaryPath(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Lexicon.DictionaryPath = filepath.Join(t.TempDir(), "missing.dict")
	_, err := app.New(context.Background(), cfg, &llmmock.Provider{}, testOptions(t)...)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("New with missing dictionary: err=%v, want os.ErrNotExist", err)
	}

	path := filepath.Join(t.TempDir(), "cmudict.dict")
	if err := os.WriteFile(path, []byte("KNIGHT  N AY1 T\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Lexicon.DictionaryPath = path
	a, err := app.New(context.Background(), cfg, &llmmock.Provider{}, testOptions(t)...)
	if err != nil {
		t.Fatalf("New with dictionary file: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	provider := &llmmock.Provider{
		CompleteResponse:  &llm.CompletionResponse{Content: modelReply},
		ModelCapabilities: llm.ModelCapabilities{MaxOutputTokens: 8192, SupportsJSONMode: true},
	}
	a, err := app.New(context.Background(), testConfig(), provider, testOptions(t)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := a.Run(context.Background(), koreanRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("len(Items)=%d, want 2: %+v", len(res.Items), res.Items)
	}
	if calls := provider.Calls(); len(calls) != 1 || !calls[0].Req.JSONMode {
		t.Errorf("provider calls = %+v, want one JSON-mode call", calls)
	}
}

func TestApplyConfig(t *testing.T) {
	t.Parallel()

	var level slog.LevelVar
	cfg := testConfig()
	opts := append(testOptions(t), app.WithLevelVar(&level))
	a, err := app.New(context.Background(), cfg, &llmmock.Provider{}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := a.Pipeline()

	tuned := *cfg
	tuned.Server.LogLevel = config.LogDebug
	tuned.Pipeline.MaxAttempts = 3
	tuned.Pipeline.Diversify = true
	a.ApplyConfig(cfg, &tuned)

	if level.Level() != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", level.Level())
	}
	if a.Pipeline() != before {
		t.Error("loop tuning must update the pipeline in place")
	}
	if got := a.Pipeline().Config(); got.MaxAttempts != 3 || !got.Diversify {
		t.Errorf("pipeline config = %+v, want max_attempts=3 diversify=true", got)
	}

	guarded := tuned
	guarded.Pipeline.Guardrail = true
	a.ApplyConfig(&tuned, &guarded)
	if a.Pipeline() == before {
		t.Error("guardrail change must rebuild the pipeline")
	}
	if got := a.Pipeline().Config(); got.MaxAttempts != 3 {
		t.Errorf("rebuilt pipeline config = %+v, want max_attempts=3", got)
	}
}

func TestServe_HTTPAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	primary := &llmmock.Provider{CompleteErr: errors.New("503 unavailable")}
	secondary := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: modelReply}}
	fb := resilience.NewLLMFallback(primary, "gemini", resilience.FallbackConfig{})
	fb.AddFallback("openai", secondary)

	opts := append(testOptions(t), app.WithListener(ln))
	a, err := app.New(context.Background(), testConfig(), fb, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()
	base := "http://" + ln.Addr().String()

	body := `{"language":"ko","age":5,"count":2,"target":{"phoneme":"ㄹ","position":"onset"},
		"sentenceLength":3,"diagnosis":"SSD","therapyApproach":"complexity"}`
	resp, err := http.Post(base+"/api/v2/generate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	var out therapy.Response
	err = json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success || len(out.Data.Items) != 2 {
		t.Errorf("POST /api/v2/generate = %d %+v", resp.StatusCode, out)
	}

	resp, err = http.Get(base + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	err = json.NewDecoder(resp.Body).Decode(&ready)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode readyz: %v", err)
	}
	if ready.Status != "ok" || ready.Checks["lexicon"] != "ok" || ready.Checks["llm"] != "ok" {
		t.Errorf("readyz = %+v", ready)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestPipelineConfig(t *testing.T) {
	t.Parallel()
	got := app.PipelineConfig(config.PipelineConfig{
		MaxAttempts: 2, Oversample: 4, BatchFactor: 2, Diversify: true, MaxSimilar: 3,
		Guardrail: true, Temperature: 0.5,
	})
	if got.MaxAttempts != 2 || got.Oversample != 4 || got.BatchFactor != 2 || !got.Diversify || got.MaxSimilar != 3 {
		t.Errorf("PipelineConfig() = %+v", got)
	}
}
