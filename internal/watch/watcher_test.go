package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return cond()
}

func TestWatcherInvokesHandlerOnWrite(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w, err := New([]string{dir}, rec.handle, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "script.py")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 5*time.Second, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("handler never invoked for a supported file write")
	}
	if got := rec.snapshot()[0]; got != path {
		t.Errorf("handler got %q, want %q", got, path)
	}
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w, err := New([]string{dir}, rec.handle, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(time.Second)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("handler invoked for unsupported file: %v", got)
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w, err := New([]string{dir}, rec.handle, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "script.py")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("x = 1\n"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !waitFor(t, 5*time.Second, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("handler never invoked")
	}
	// Let any stragglers flush before counting.
	time.Sleep(time.Second)
	if got := len(rec.snapshot()); got != 1 {
		t.Errorf("rapid writes produced %d handler calls, want 1", got)
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := New([]string{t.TempDir()}, func(context.Context, string) {}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
