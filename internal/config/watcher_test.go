package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/talktalk/internal/config"
)

const watcherValidYAML = `
server:
  log_level: info
providers:
  llm:
    name: gemini
    model: gemini-3-flash-preview
pipeline:
  max_attempts: 1
`

const watcherUpdatedYAML = `
server:
  log_level: debug
providers:
  llm:
    name: gemini
    model: gemini-3-flash-preview
pipeline:
  max_attempts: 3
  diversify: true
`

const watcherInvalidYAML = `
server:
  log_level: bananas
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

// runWatcher starts w.Run and stops it when the test ends.
func runWatcher(t *testing.T, w *config.Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, nil, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := w.Current()
	if cfg == nil {
		t.Fatal("Current() returned nil after initial load")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
}

func TestWatcher_RunDetectsChange(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	var mu sync.Mutex
	var callbackOld, callbackNew *config.Config
	called := make(chan struct{}, 1)

	w, err := config.NewWatcher(cfgPath, func(old, new *config.Config) {
		mu.Lock()
		callbackOld = old
		callbackNew = new
		mu.Unlock()
		select {
		case called <- struct{}{}:
		default:
		}
	}, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runWatcher(t, w)

	time.Sleep(100 * time.Millisecond)
	writeFile(t, cfgPath, watcherUpdatedYAML)
	// Some filesystems have coarse mtime resolution.
	future := time.Now().Add(2 * time.Second)
	_ = os.Chtimes(cfgPath, future, future)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked within timeout")
	}

	mu.Lock()
	defer mu.Unlock()
	if callbackOld == nil || callbackNew == nil {
		t.Fatal("callback received nil configs")
	}
	if callbackOld.Server.LogLevel != config.LogInfo {
		t.Errorf("old log_level: got %q, want %q", callbackOld.Server.LogLevel, config.LogInfo)
	}
	if callbackNew.Pipeline.MaxAttempts != 3 || !callbackNew.Pipeline.Diversify {
		t.Errorf("new pipeline: got %+v", callbackNew.Pipeline)
	}
	if cur := w.Current(); cur.Server.LogLevel != config.LogDebug {
		t.Errorf("Current() log_level: got %q, want %q", cur.Server.LogLevel, config.LogDebug)
	}
}

// recorder captures onChange invocations.
type recorder struct {
	mu    sync.Mutex
	calls [][2]*config.Config
}

func (r *recorder) onChange(old, new *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]*config.Config{old, new})
}

func (r *recorder) snapshot() [][2]*config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]*config.Config(nil), r.calls...)
}

func newReloadWatcher(t *testing.T) (string, *config.Watcher, *recorder) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)
	rec := &recorder{}
	w, err := config.NewWatcher(cfgPath, rec.onChange)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	return cfgPath, w, rec
}

func TestWatcher_Reload(t *testing.T) {
	t.Parallel()
	cfgPath, w, rec := newReloadWatcher(t)
	initial := w.Current()

	writeFile(t, cfgPath, watcherUpdatedYAML)
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("onChange called %d times, want 1", len(calls))
	}
	if calls[0][0] != initial {
		t.Error("onChange old config is not the initial config")
	}
	if calls[0][1] != w.Current() || w.Current().Server.LogLevel != config.LogDebug {
		t.Errorf("Current() = %+v, want the reloaded config", w.Current().Server)
	}
}

func TestWatcher_ReloadUnchangedContent(t *testing.T) {
	t.Parallel()
	_, w, rec := newReloadWatcher(t)

	if err := w.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("onChange called %d times for identical content", n)
	}
}

func TestWatcher_ReloadInvalidKeepsCurrent(t *testing.T) {
	t.Parallel()
	cfgPath, w, rec := newReloadWatcher(t)
	initial := w.Current()

	writeFile(t, cfgPath, watcherInvalidYAML)
	if err := w.Reload(); err == nil {
		t.Fatal("Reload of invalid file returned nil error")
	}
	if w.Current() != initial {
		t.Error("invalid file replaced the current config")
	}

	// Fixing the file applies it against the last good config.
	writeFile(t, cfgPath, watcherUpdatedYAML)
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload after fix: %v", err)
	}
	calls := rec.snapshot()
	if len(calls) != 1 || calls[0][0] != initial {
		t.Fatalf("onChange calls = %d, want 1 starting from the initial config", len(calls))
	}
}

func TestWatcher_ReloadMissingFile(t *testing.T) {
	t.Parallel()
	cfgPath, w, _ := newReloadWatcher(t)
	if err := os.Remove(cfgPath); err != nil {
		t.Fatal(err)
	}
	if err := w.Reload(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Reload() = %v, want os.ErrNotExist", err)
	}
	if w.Current() == nil {
		t.Error("Current() is nil after failed reload")
	}
}

func TestWatcher_CallbackMayReadCurrent(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	var w *config.Watcher
	var seen *config.Config
	w, err := config.NewWatcher(cfgPath, func(_, _ *config.Config) {
		seen = w.Current()
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	writeFile(t, cfgPath, watcherUpdatedYAML)
	done := make(chan error, 1)
	go func() { done <- w.Reload() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Reload: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Reload deadlocked when the callback read Current")
	}
	if seen == nil || seen.Server.LogLevel != config.LogDebug {
		t.Errorf("Current() inside callback = %+v, want the new config", seen)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()
	_, err := config.NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("NewWatcher(missing) = %v, want os.ErrNotExist", err)
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, nil, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_RunIgnoresTouch(t *testing.T) {
	t.Parallel()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	rec := &recorder{}
	w, err := config.NewWatcher(cfgPath, rec.onChange, config.WithInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	runWatcher(t, w)

	future := time.Now().Add(time.Second)
	if err := os.Chtimes(cfgPath, future, future); err != nil {
		t.Fatalf("touch: %v", err)
	}
	time.Sleep(150 * time.Millisecond)

	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("onChange fired %d times for a touch without content change", n)
	}
}
