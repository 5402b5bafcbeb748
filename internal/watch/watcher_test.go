// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

// startWatcher runs w in the background and returns a stop function that
// cancels it and fails the test if Run returned an error.
func startWatcher(t *testing.T, w *Watcher) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			select {
			case err := <-errCh:
				if err != nil {
					t.Errorf("Run() error: %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Error("Run() did not return after context cancellation")
			}
		})
	}
	t.Cleanup(stop)
	return stop
}

func writeSource(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitChanged(t *testing.T, ch <-chan []string) []string {
	t.Helper()

	select {
	case changed := <-ch:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
		return nil
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)
	done := make(chan struct{})

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 100 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			if calls == 1 {
				close(done)
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)

	for _, name := range []string{"c.py", "a.py", "b.py"} {
		writeSource(t, filepath.Join(dir, name), "x = 1\n")
		// separate events, still well inside the debounce window
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(200 * time.Millisecond)
	stop()

	mu.Lock()
	defer mu.Unlock()

	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}
	if !slices.Equal(collected, []string{"a.py", "b.py", "c.py"}) {
		t.Errorf("changed = %v, want sorted [a.py b.py c.py]", collected)
	}
}

func TestWatcherOnlyPythonSourcesByDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	callbackFired := make(chan []string, 10)

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 50 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			callbackFired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	startWatcher(t, w)

	writeSource(t, filepath.Join(dir, "README.md"), "# docs\n")
	writeSource(t, filepath.Join(dir, "__pycache__", "mod.cpython-312.pyc"), "\x00")
	time.Sleep(200 * time.Millisecond)

	writeSource(t, filepath.Join(dir, "mod.py"), "def f(): pass\n")

	changed := waitChanged(t, callbackFired)
	if !slices.Equal(changed, []string{"mod.py"}) {
		t.Errorf("changed = %v, want [mod.py]", changed)
	}
}

func TestWatcherNewSubpackage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	callbackFired := make(chan []string, 10)

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 50 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			callbackFired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	startWatcher(t, w)

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// give the event loop a chance to register the new directory
	time.Sleep(100 * time.Millisecond)
	writeSource(t, filepath.Join(sub, "__init__.py"), "")
	writeSource(t, filepath.Join(sub, "leaf.py"), "y = 2\n")

	deadline := time.After(5 * time.Second)
	seen := map[string]bool{}
	for !seen["sub/leaf.py"] {
		select {
		case changed := <-callbackFired:
			for _, c := range changed {
				seen[c] = true
			}
		case <-deadline:
			t.Fatalf("sub/leaf.py never reported, saw %v", seen)
		}
	}
}

func TestWatcherIgnorePatternsAndPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	output := filepath.Join(dir, "flat.py")
	callbackFired := make(chan []string, 10)

	w, err := New(Config{
		BaseDir:     dir,
		Ignore:      []string{"tests/**"},
		IgnorePaths: []string{output},
		Debounce:    50 * time.Millisecond,
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			callbackFired <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	startWatcher(t, w)

	writeSource(t, output, "# generated\n")
	time.Sleep(200 * time.Millisecond)

	writeSource(t, filepath.Join(dir, "core.py"), "z = 3\n")

	changed := waitChanged(t, callbackFired)
	if slices.Contains(changed, "flat.py") {
		t.Error("the ignored output file appeared in the changed set")
	}
	if !slices.Contains(changed, "core.py") {
		t.Errorf("expected core.py in changed set, got %v", changed)
	}
}

func TestWatcherContextCancel(t *testing.T) {
	t.Parallel()

	w, err := New(Config{
		BaseDir:  t.TempDir(),
		Debounce: 50 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	stop := startWatcher(t, w)
	time.Sleep(50 * time.Millisecond)
	stop()
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		ignored bool
	}{
		{".git/config", true},
		{"src/__pycache__/mod.cpython-312.pyc", true},
		{"mod.pyc", true},
		{".venv/lib/python3.12/site-packages/six.py", true},
		{"venv/bin/activate", true},
		{".mypy_cache/3.12/mod.json", true},
		{".pytest_cache/v/cache/nodeids", true},
		{"mod.py.swp", true},
		{"mod.py~", true},
		{"sub/.DS_Store", true},
		{"mod.py", false},
		{"sub/__init__.py", false},
		{"pyproject.toml", false},
		{".gitignore", false},
	}

	ignores := DefaultIgnores()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := matchAny(ignores, tt.path); got != tt.ignored {
				t.Errorf("matchAny(DefaultIgnores(), %q) = %v, want %v", tt.path, got, tt.ignored)
			}
		})
	}
}

func TestWatcherSkipIfBusy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu      sync.Mutex
		calls   int
		overlap bool
		active  bool
	)
	firstCallDone := make(chan struct{})

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 50 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		OnChange: func(_ context.Context, _ []string) error {
			mu.Lock()
			if active {
				overlap = true
			}
			active = true
			calls++
			callNum := calls
			mu.Unlock()

			if callNum == 1 {
				time.Sleep(300 * time.Millisecond)
				close(firstCallDone)
			}

			mu.Lock()
			active = false
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)

	writeSource(t, filepath.Join(dir, "first.py"), "1\n")
	time.Sleep(100 * time.Millisecond)
	writeSource(t, filepath.Join(dir, "second.py"), "2\n")

	select {
	case <-firstCallDone:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first callback")
	}
	time.Sleep(300 * time.Millisecond)
	stop()

	mu.Lock()
	defer mu.Unlock()

	if overlap {
		t.Error("rebuilds overlapped")
	}
	if calls < 1 || calls > 2 {
		t.Errorf("expected 1 or 2 callback invocations, got %d", calls)
	}
}

func TestWatcherClearScreenAndCallbackError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	done := make(chan struct{})

	var stdoutBuf, stderrBuf syncBuffer
	w, err := New(Config{
		BaseDir:     dir,
		Debounce:    50 * time.Millisecond,
		ClearScreen: true,
		Stdout:      &stdoutBuf,
		Stderr:      &stderrBuf,
		OnChange: func(_ context.Context, _ []string) error {
			defer close(done)
			return os.ErrPermission
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)

	writeSource(t, filepath.Join(dir, "mod.py"), "x = 1\n")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	time.Sleep(50 * time.Millisecond)
	stop()

	if out := stdoutBuf.String(); !strings.Contains(out, "\033[2J\033[H") {
		t.Errorf("expected ANSI clear sequence in stdout, got %q", out)
	}
	if msg := stderrBuf.String(); !strings.Contains(msg, "rebuild failed") {
		t.Errorf("expected callback error in stderr, got %q", msg)
	}
}

func TestWatcherInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New(Config{
		BaseDir:  t.TempDir(),
		Patterns: []string{"[invalid"},
	})
	if err == nil {
		t.Fatal("New() should return an error for an invalid glob pattern")
	}
	if !strings.Contains(err.Error(), "invalid watch pattern") {
		t.Errorf("error message should mention invalid watch pattern, got: %v", err)
	}
}

func TestWatcherDoubleRunError(t *testing.T) {
	t.Parallel()

	w, err := New(Config{
		BaseDir:  t.TempDir(),
		Debounce: 50 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	time.Sleep(50 * time.Millisecond)

	err = w.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Run called more than once") {
		t.Errorf("second Run() error = %v, want double-run error", err)
	}
	stop()
}

// syncBuffer is a bytes.Buffer safe for the watcher's timer goroutine and
// the test goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
