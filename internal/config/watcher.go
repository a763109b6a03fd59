package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher keeps the config file and the running service in sync. It polls
// the file and invokes onChange each time the content changes into a new
// valid [Config]. A broken edit is reported once and the last good config
// stays current until the file is fixed.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)

	mu      sync.Mutex // guards current
	current *Config

	// reload serialises polls, callbacks included, and guards the fields
	// below.
	reload  sync.Mutex
	seen    fingerprint
	applied [sha256.Size]byte
}

// fingerprint identifies one observed version of the file.
type fingerprint struct {
	mtime time.Time
	size  int64
	sum   [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher performs the initial load of path. It fails when the file is
// missing or invalid. Polling starts with [Watcher.Run].
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}

	cfg, fp, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.seen = fp
	w.applied = fp.sum
	return w, nil
}

// Current returns the most recently applied config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run polls until ctx is cancelled. It always returns nil so it can run
// inside an errgroup next to the server.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.poll(false); err != nil {
				slog.Warn("config watcher: keeping previous configuration", "path", w.path, "err", err)
			}
		}
	}
}

// Reload re-reads the file now, even if its modification time is unchanged.
// The returned error describes an unreadable or invalid file; the current
// config is kept in that case.
func (w *Watcher) Reload() error {
	return w.poll(true)
}

// poll applies the file if it changed. Unless force is set, an unchanged
// mtime and size skip the read, and an invalid version is only reported the
// first time it is seen.
func (w *Watcher) poll(force bool) error {
	w.reload.Lock()
	defer w.reload.Unlock()

	if !force {
		info, err := os.Stat(w.path)
		if err != nil {
			return err
		}
		if info.ModTime().Equal(w.seen.mtime) && info.Size() == w.seen.size {
			return nil
		}
	}

	cfg, fp, err := w.read()
	if fp.sum != ([sha256.Size]byte{}) {
		repeated := fp.sum == w.seen.sum
		w.seen = fp
		if err != nil && repeated && !force {
			return nil
		}
	}
	if err != nil {
		return err
	}
	if fp.sum == w.applied {
		return nil
	}

	w.mu.Lock()
	old := w.current
	w.current = cfg
	w.mu.Unlock()
	w.applied = fp.sum
	slog.Info("config watcher: configuration reloaded", "path", w.path)

	if w.onChange != nil {
		w.onChange(old, cfg)
	}
	return nil
}

// read loads and validates the file. The fingerprint is filled in whenever
// the file could be read, even if it does not parse.
func (w *Watcher) read() (*Config, fingerprint, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, fingerprint{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fingerprint{}, err
	}
	fp := fingerprint{mtime: info.ModTime(), size: info.Size(), sum: sha256.Sum256(data)}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fp, err
	}
	return cfg, fp, nil
}
