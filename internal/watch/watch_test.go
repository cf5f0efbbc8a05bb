package watch

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

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Dirs: []string{"content"}}, nil); err == nil {
		t.Fatalf("expected error for nil rebuild function")
	}
	if _, err := New(Config{}, func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error for missing directories")
	}
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()

	var rebuilds atomic.Int32
	watcher, err := New(Config{
		Dirs:     []string{dir},
		Debounce: 20 * time.Millisecond,
	}, func(context.Context) error {
		rebuilds.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "post.md"), []byte("---\ntitle: t\n---\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for rebuilds.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("expected a rebuild after a file change")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWatcher_SurvivesRebuildFailure(t *testing.T) {
	dir := t.TempDir()

	var rebuilds atomic.Int32
	watcher, err := New(Config{
		Dirs:     []string{dir},
		Debounce: 20 * time.Millisecond,
	}, func(context.Context) error {
		rebuilds.Add(1)
		return errors.New("render broke")
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := os.WriteFile(filepath.Join(dir, "post.md"), []byte("body"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		deadline := time.After(2 * time.Second)
		want := int32(i + 1)
		for rebuilds.Load() < want {
			select {
			case <-deadline:
				t.Fatalf("expected rebuild %d despite earlier failure", want)
			case <-time.After(10 * time.Millisecond):
			}
		}
	}

	select {
	case err := <-done:
		t.Fatalf("watcher exited unexpectedly: %v", err)
	default:
	}
}

func TestRelevant(t *testing.T) {
	w := &Watcher{}
	cases := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "content/post.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "content/post.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "content/.post.md.swp", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "content/post.md~", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "content/post.tmp", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		if got := w.relevant(tc.event); got != tc.want {
			t.Fatalf("relevant(%v) = %v, want %v", tc.event, got, tc.want)
		}
	}
}
