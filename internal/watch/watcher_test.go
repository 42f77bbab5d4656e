package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) record(files []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, files)
}

func (r *recorder) files() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool)
	for _, b := range r.batches {
		for _, f := range b {
			out[f] = true
		}
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcherReportsManifestChanges(t *testing.T) {
	tmpDir := t.TempDir()
	manifestPath := filepath.Join(tmpDir, "shop.module.yaml")
	if err := os.WriteFile(manifestPath, []byte("module: shop\n"), 0644); err != nil {
		t.Fatalf("Failed to create manifest: %v", err)
	}

	rec := &recorder{}
	w, err := New([]string{tmpDir}, 30*time.Millisecond, rec.record, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(manifestPath, []byte("module: shop\nversion: 1.0.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return rec.files()[manifestPath] })
	if rec.files()[filepath.Join(tmpDir, "notes.txt")] {
		t.Error("Expected non-manifest files to be ignored")
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	rec := &recorder{}
	w, err := New([]string{tmpDir}, 30*time.Millisecond, rec.record, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	sub := filepath.Join(tmpDir, "billing")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// give the watcher time to pick up the directory
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(sub, "billing.module.yml")
	if err := os.WriteFile(path, []byte("module: billing\n"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return rec.files()[path] })
}

func TestWatcherStartFailsOnMissingRoot(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing")}, 0, func([]string) {}, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err == nil {
		t.Error("Expected error for a missing root")
	}
}

func TestWatcherStop(t *testing.T) {
	w, err := New([]string{t.TempDir()}, 0, func([]string) {}, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
	// second stop is a no-op
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() returned error: %v", err)
	}
}

func TestDebouncerAdd(t *testing.T) {
	var mu sync.Mutex
	var files []string
	calls := 0

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		files = f
	})

	debouncer.Add("b.module.yaml")
	debouncer.Add("a.module.yaml")
	debouncer.Add("b.module.yaml") // duplicate

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	})

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("Expected 1 callback call, got %d", calls)
	}
	if len(files) != 2 || files[0] != "a.module.yaml" || files[1] != "b.module.yaml" {
		t.Errorf("Expected sorted unique files, got %v", files)
	}
}

func TestDebouncerMultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	var callCount int

	debouncer := NewDebouncer(20 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return callCount
	}

	debouncer.Add("file1.module.yaml")
	waitFor(t, func() bool { return count() == 1 })

	debouncer.Add("file2.module.yaml")
	waitFor(t, func() bool { return count() == 2 })
}

func TestDebouncerStop(t *testing.T) {
	called := make(chan struct{}, 1)
	debouncer := NewDebouncer(20 * time.Millisecond)
	debouncer.SetCallback(func([]string) { called <- struct{}{} })

	debouncer.Add("file.module.yaml")
	debouncer.Stop()
	debouncer.Add("late.module.yaml")

	select {
	case <-called:
		t.Error("Expected no callback after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerCallbacksDoNotOverlap(t *testing.T) {
	var active, maxActive atomic.Int32
	var mu sync.Mutex
	var seen []string

	debouncer := NewDebouncer(10 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, f...)
	})

	debouncer.Add("first.module.yaml")
	// let the first callback start, then queue more while it is still running
	time.Sleep(40 * time.Millisecond)
	debouncer.Add("second.module.yaml")
	time.Sleep(30 * time.Millisecond)
	debouncer.Add("third.module.yaml")

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	})

	if got := maxActive.Load(); got != 1 {
		t.Errorf("Expected callbacks to run one at a time, saw %d at once", got)
	}
}
