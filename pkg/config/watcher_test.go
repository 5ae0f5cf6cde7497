package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "engine:\n  parallelism: 1\n")

	var reloads atomic.Int32
	w, err := NewWatcher(path, 20*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Keep writing until the watcher has registered and fired once.
	deadline := time.Now().Add(5 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		if err := os.WriteFile(path, []byte("engine:\n  parallelism: 2\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
	if reloads.Load() == 0 {
		t.Fatal("expected at least one reload")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	path := writeConfig(t, "engine:\n  parallelism: 1\n")

	w, err := NewWatcher(path, time.Millisecond, func() error { return nil })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.watcher.Close()

	sibling := filepath.Join(filepath.Dir(path), "other.yaml")
	if w.relevant(eventFor(sibling)) {
		t.Error("sibling file should not trigger a reload")
	}
	if !w.relevant(eventFor(path)) {
		t.Error("config file write should trigger a reload")
	}
}

func TestWatcher_RejectsSecondWatch(t *testing.T) {
	path := writeConfig(t, "engine:\n  parallelism: 1\n")

	w, err := NewWatcher(path, time.Millisecond, func() error { return nil })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	if err := w.Watch(context.Background()); !errors.Is(err, ErrWatcherRunning) {
		t.Errorf("expected ErrWatcherRunning, got %v", err)
	}
	w.watcher.Close()
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	if _, err := NewWatcher("", time.Second, nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	defer d.stop()

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.trigger(func() { calls.Add(1) })
	}

	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly one call, got %d", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)

	var calls atomic.Int32
	d.trigger(func() { calls.Add(1) })
	d.stop()
	d.trigger(func() { calls.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("expected no calls after stop, got %d", got)
	}
}

func eventFor(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Write}
}
