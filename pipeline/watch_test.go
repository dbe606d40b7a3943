package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/dbopen"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/journal"
)

const (
	watchInterval = 10 * time.Millisecond
	watchDebounce = 25 * time.Millisecond
)

// startWatcher runs w in the background and returns a stop function
// that cancels the loop and joins it. The join also runs on test
// cleanup so a failing assertion cannot leak the loop.
func startWatcher(t *testing.T, w *Watcher) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			if err := <-done; err != nil {
				t.Errorf("watch Run: %v", err)
			}
		})
	}
	t.Cleanup(stop)
	return stop
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func runCount(t *testing.T, j *journal.Journal) int {
	t.Helper()
	runs, err := j.Runs(context.Background(), 100)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	return len(runs)
}

func TestWatcher_ProcessesBacklog(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "a.pdf")

	j := journal.New(dbopen.OpenMemory(t, dbopen.WithSchema(journal.Schema)))
	stub := &stubExtractor{texts: map[string]string{"a.pdf": appleText}}
	w, err := NewWatcher(Config{Root: dir, Journal: j, Extractor: stub, Logger: quietLogger()},
		WatchOptions{Interval: watchInterval, Debounce: watchDebounce})
	if err != nil {
		t.Fatal(err)
	}
	stop := startWatcher(t, w)

	renamed := filepath.Join(dir, "2024_01_01_Kauf_Sparplan_US0378331005_Apple_Inc.pdf")
	waitFor(t, 3*time.Second, func() bool {
		_, err := os.Stat(renamed)
		return err == nil
	}, "backlog file was not renamed")

	stop()
	if got := w.Stats().Runs; got < 1 {
		t.Errorf("runs = %d, want at least 1", got)
	}
}

func TestWatcher_RenamesDroppedFiles(t *testing.T) {
	// WHAT: Two files dropped within the debounce window are renamed by
	// one triggered batch.
	// WHY: A broker download lands several statements in quick
	// succession; firing per file would split the collision registry
	// across runs.
	dir := t.TempDir()
	j := journal.New(dbopen.OpenMemory(t, dbopen.WithSchema(journal.Schema)))
	stub := &stubExtractor{texts: map[string]string{
		"a.pdf": appleText,
		"b.pdf": saleText,
	}}
	w, err := NewWatcher(Config{Root: dir, Journal: j, Extractor: stub, Logger: quietLogger()},
		WatchOptions{Interval: watchInterval, Debounce: watchDebounce})
	if err != nil {
		t.Fatal(err)
	}
	stop := startWatcher(t, w)

	// Let the initial (empty) batch land first so the drop below is a
	// detected change, then add both files inside one debounce window.
	waitFor(t, 3*time.Second, func() bool { return runCount(t, j) == 1 },
		"initial batch did not run")
	writeStub(t, dir, "a.pdf")
	writeStub(t, dir, "b.pdf")

	for _, want := range []string{
		"2024_01_01_Kauf_Sparplan_US0378331005_Apple_Inc.pdf",
		"2024_06_01_Verkauf_DE000A1EWWW0_adidas_AG.pdf",
	} {
		path := filepath.Join(dir, want)
		waitFor(t, 3*time.Second, func() bool {
			_, err := os.Stat(path)
			return err == nil
		}, "dropped file was not renamed to "+want)
	}
	waitFor(t, 3*time.Second, func() bool { return runCount(t, j) == 2 },
		"triggered batch not journaled")

	stop()
	for _, n := range []string{"a.pdf", "b.pdf"} {
		if _, err := os.Stat(filepath.Join(dir, n)); err == nil {
			t.Errorf("%s still present after rename", n)
		}
	}
}

func TestWatcher_OwnRenamesDoNotRetrigger(t *testing.T) {
	// WHAT: After a batch renames a file, the quiet folder triggers no
	// further runs.
	// WHY: The batch itself changes the listing; without settling on the
	// post-batch state the watcher would loop on its own output.
	dir := t.TempDir()
	j := journal.New(dbopen.OpenMemory(t, dbopen.WithSchema(journal.Schema)))
	stub := &stubExtractor{texts: map[string]string{"a.pdf": appleText}}
	w, err := NewWatcher(Config{Root: dir, Journal: j, Extractor: stub, Logger: quietLogger()},
		WatchOptions{Interval: watchInterval, Debounce: watchDebounce})
	if err != nil {
		t.Fatal(err)
	}
	stop := startWatcher(t, w)

	waitFor(t, 3*time.Second, func() bool { return runCount(t, j) == 1 },
		"initial batch did not run")
	writeStub(t, dir, "a.pdf")
	waitFor(t, 3*time.Second, func() bool { return runCount(t, j) == 2 },
		"triggered batch did not run")

	// Several poll and debounce cycles of quiet.
	time.Sleep(10*watchInterval + 4*watchDebounce)
	if got := runCount(t, j); got != 2 {
		t.Errorf("runs after quiet period = %d, want 2", got)
	}
	stop()
}

func TestNewWatcher_MissingRoot(t *testing.T) {
	_, err := NewWatcher(Config{Root: "/does/not/exist", Logger: quietLogger()}, WatchOptions{})
	if err == nil {
		t.Fatal("NewWatcher accepted a nonexistent root")
	}
}
