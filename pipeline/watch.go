package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// WatchOptions tunes the watch loop.
type WatchOptions struct {
	// Interval is the polling frequency. Default: 2s.
	Interval time.Duration

	// Debounce is the quiet period after a change is detected before a
	// batch fires. More changes during the window reset the timer, so a
	// multi-file download triggers one batch, not one per file.
	// Default: 1s.
	Debounce time.Duration
}

func (o *WatchOptions) defaults() {
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.Debounce <= 0 {
		o.Debounce = time.Second
	}
}

// Watcher polls the root for listing changes and runs a batch once the
// listing settles. Every triggered batch is a fresh run with its own
// run id, so the journal keeps one row per trigger.
type Watcher struct {
	cfg  Config
	opts WatchOptions

	logger *slog.Logger

	// state is the digest of the listing as of the last successful
	// batch. Failed batches do not advance it, so the next poll cycle
	// retries.
	state atomic.Uint64

	// Counters for observability (exported via Stats).
	checks  atomic.Int64
	changes atomic.Int64
	errs    atomic.Int64
	runs    atomic.Int64
	runNs   atomic.Int64
}

// WatchStats are point-in-time counters.
type WatchStats struct {
	Checks          int64         `json:"checks"`
	ChangesDetected int64         `json:"changes_detected"`
	Errors          int64         `json:"errors"`
	Runs            int64         `json:"runs"`
	AvgRunTime      time.Duration `json:"avg_run_time"`
}

// NewWatcher validates cfg and prepares a watcher. Call Run to start
// the loop.
func NewWatcher(cfg Config, opts WatchOptions) (*Watcher, error) {
	opts.defaults()
	// Surface a bad root or bad rules now, not on the first poll.
	if _, err := New(cfg); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{cfg: cfg, opts: opts, logger: logger}, nil
}

// Stats returns the current counters.
func (w *Watcher) Stats() WatchStats {
	s := WatchStats{
		Checks:          w.checks.Load(),
		ChangesDetected: w.changes.Load(),
		Errors:          w.errs.Load(),
		Runs:            w.runs.Load(),
	}
	if s.Runs > 0 {
		s.AvgRunTime = time.Duration(w.runNs.Load() / s.Runs)
	}
	return s
}

// Run blocks until ctx is cancelled, polling at opts.Interval. Files
// already in the root are processed immediately; after that, a batch
// fires whenever the listing changes and then stays quiet for the
// debounce window.
//
// A failing batch does not stop the watch: the error is logged and the
// batch is retried on the next poll cycle. Run's own error is reserved
// for the initial backlog batch, where a failure means the watch was
// misconfigured.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.logger

	// Clear the backlog before watching.
	if err := w.runBatch(ctx); err != nil {
		return fmt.Errorf("pipeline: initial batch: %w", err)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	var pending uint64
	havePending := false

	log.Info("watch: started",
		"root", w.cfg.Root, "interval", w.opts.Interval, "debounce", w.opts.Debounce)

	for {
		select {
		case <-ctx.Done():
			log.Info("watch: stopped")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case <-ticker.C:
			w.checks.Add(1)
			cur, err := w.fingerprint()
			if err != nil {
				w.errs.Add(1)
				log.Warn("watch: listing check failed", "error", err)
				continue
			}
			if cur != w.state.Load() && (!havePending || cur != pending) {
				w.changes.Add(1)
				pending, havePending = cur, true

				// (Re)start the debounce timer only when the pending
				// listing actually changed, not on every poll cycle.
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.NewTimer(w.opts.Debounce)
				debounceCh = debounceTimer.C
				log.Debug("watch: change detected, debouncing")
			}

		case <-debounceCh:
			debounceCh = nil
			if havePending {
				w.fire(ctx)
				havePending = false
			}
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	log := w.logger

	start := time.Now()
	if err := w.runBatch(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("watch: batch interrupted")
			return
		}
		w.errs.Add(1)
		log.Error("watch: batch failed", "error", err)
		return
	}
	w.runNs.Add(int64(time.Since(start)))
}

// runBatch runs one batch over the root and, on success, stores the
// post-batch listing digest so the batch's own renames do not read as
// a change on the next poll.
func (w *Watcher) runBatch(ctx context.Context) error {
	cfg := w.cfg
	cfg.RunID = ""

	p, err := New(cfg)
	if err != nil {
		return err
	}
	sum, err := p.Run(ctx)
	if err != nil {
		return err
	}
	w.runs.Add(1)

	cur, err := w.fingerprint()
	if err != nil {
		return err
	}
	w.state.Store(cur)

	w.logger.Info("watch: batch complete",
		"run_id", sum.RunID, "total", sum.Total(), "renamed", sum.Renamed,
		"skipped", sum.Skipped, "failed", sum.Failed)
	return nil
}

// fingerprint digests the current listing: every PDF path with its
// size and mtime. Two equal digests mean "nothing to do".
func (w *Watcher) fingerprint() (uint64, error) {
	files, err := discover(w.cfg.Root, w.cfg.Recursive)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	for _, path := range files {
		info, err := os.Lstat(path)
		if err != nil {
			// Vanished between listing and stat. The next poll settles.
			continue
		}
		fmt.Fprintf(h, "%s|%d|%d\n", path, info.Size(), info.ModTime().UnixNano())
	}
	return h.Sum64(), nil
}
