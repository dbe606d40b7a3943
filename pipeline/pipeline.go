// Package pipeline orchestrates a batch run: discover PDFs under a
// root, extract and classify each one, build its canonical name, and
// apply the rename. Every file ends in a recorded outcome; a failing
// file never stops the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/classify"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/docpipe"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/idgen"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/journal"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/rename"
)

// Extractor yields document text for one file. docpipe.Pipeline is the
// production implementation.
type Extractor interface {
	Extract(ctx context.Context, path string) (*docpipe.Document, error)
}

// Config configures a batch run.
type Config struct {
	// Root is the directory holding the PDFs. Renames never leave it.
	Root string

	// Recursive walks subdirectories of Root as well.
	Recursive bool

	// DryRun resolves every rename without touching the filesystem.
	DryRun bool

	// MaxFileSize bounds the PDFs read (default docpipe.DefaultMaxFileSize).
	// Oversized files are skipped before the extractor sees them.
	MaxFileSize int64

	// Rules are user rules checked before the built-in rule table.
	Rules []classify.Rule

	// Journal receives run and outcome rows. Nil disables persistence.
	Journal *journal.Journal

	// Extractor overrides the docpipe extractor. Nil uses docpipe.
	Extractor Extractor

	// RunID overrides the generated run identifier.
	RunID string

	// Logger for per-file progress. Nil uses slog.Default.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = docpipe.DefaultMaxFileSize
	}
	if c.Extractor == nil {
		c.Extractor = docpipe.New(docpipe.Config{
			MaxFileSize: c.MaxFileSize,
			Logger:      c.Logger,
		})
	}
	if c.RunID == "" {
		c.RunID = idgen.Prefixed("run_", idgen.Default)()
	}
}

// Pipeline runs batches. Create one per run: the rename executor's
// collision registry is scoped to a single batch.
type Pipeline struct {
	cfg        Config
	classifier *classify.Classifier
	executor   *rename.Executor
	logger     *slog.Logger
}

// New validates the configuration and binds the run to its root.
func New(cfg Config) (*Pipeline, error) {
	cfg.defaults()
	if cfg.Root == "" {
		return nil, errors.New("pipeline: root directory required")
	}
	ex, err := rename.NewExecutor(cfg.Root, cfg.DryRun)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{
		cfg:        cfg,
		classifier: classify.NewClassifier(cfg.Rules...),
		executor:   ex,
		logger:     cfg.Logger.With("run_id", cfg.RunID),
	}, nil
}

// canonicalNameRe matches filenames this tool generates. Files already
// carrying such a name are skipped without being reopened.
var canonicalNameRe = regexp.MustCompile(`^[0-9]{4}_[0-9]{2}_[0-9]{2}_.+\.pdf$`)

// Run processes every PDF under the root and returns the run summary.
// Per-file problems become outcomes, never errors; Run's own error is
// reserved for batch-level failures such as an unreadable root or a
// cancelled context.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	files, err := p.discover()
	if err != nil {
		return nil, fmt.Errorf("pipeline: discover: %w", err)
	}

	sum := &Summary{
		RunID:  p.cfg.RunID,
		Root:   p.executor.Root(),
		DryRun: p.cfg.DryRun,
	}

	if p.cfg.Journal != nil {
		if err := p.cfg.Journal.StartRun(ctx, sum.RunID, sum.Root, sum.DryRun); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	p.logger.Info("run started",
		"root", sum.Root, "files", len(files), "dry_run", sum.DryRun)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("pipeline: %w", err)
		}
		o := p.processOne(ctx, path)
		sum.Outcomes = append(sum.Outcomes, o)
		sum.count(o)
		p.logOutcome(o)
		p.record(ctx, sum.RunID, o)
	}

	if p.cfg.Journal != nil {
		if err := p.cfg.Journal.FinishRun(ctx, sum.RunID); err != nil {
			p.logger.Warn("finish run not recorded", "error", err)
		}
	}

	p.logger.Info("run finished",
		"total", sum.Total(), "renamed", sum.Renamed, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, nil
}

func (p *Pipeline) discover() ([]string, error) {
	return discover(p.executor.Root(), p.cfg.Recursive)
}

// discover lists the PDFs under root in deterministic (lexical) order.
func discover(root string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() && docpipe.IsPDF(e.Name()) {
				files = append(files, filepath.Join(root, e.Name()))
			}
		}
		return files, nil
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories hold trash and VCS internals, not statements.
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if docpipe.IsPDF(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// processOne takes a single file to its outcome.
func (p *Pipeline) processOne(ctx context.Context, path string) Outcome {
	o := Outcome{Path: path}

	base := filepath.Base(path)
	if canonicalNameRe.MatchString(base) {
		o.Status = StatusSkippedNamed
		o.NewName = base
		o.Detail = "filename already canonical"
		return o
	}

	// An oversized file never reaches the extractor. Stat failures fall
	// through; the extractor stats again and reports them properly.
	if info, err := os.Stat(path); err == nil && info.Size() > p.cfg.MaxFileSize {
		o.Status = StatusSkippedOversize
		o.Detail = fmt.Sprintf("%d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
		return o
	}

	doc, err := p.cfg.Extractor.Extract(ctx, path)
	if err != nil {
		switch {
		case errors.Is(err, docpipe.ErrTooLarge):
			o.Status = StatusSkippedOversize
		default:
			o.Status = StatusExtractError
		}
		o.Detail = err.Error()
		return o
	}

	rec, err := p.classifier.Extract(doc.RawText)
	if err != nil {
		switch {
		case errors.Is(err, classify.ErrNoDate):
			o.Status = StatusMissingField
		default:
			o.Status = StatusUnrecognized
		}
		o.Detail = err.Error()
		return o
	}
	o.Type = string(rec.Type)
	o.ISIN = rec.ISIN
	o.Asset = rec.Asset

	name, err := rename.Build(*rec)
	if err != nil {
		o.Status = StatusMissingField
		o.Detail = err.Error()
		return o
	}

	final, already, err := p.executor.Apply(path, name)
	if err != nil {
		switch {
		case errors.Is(err, rename.ErrUnsafeTarget):
			o.Status = StatusUnsafeTarget
		case errors.Is(err, rename.ErrCollisionExhausted):
			o.Status = StatusCollisionExhausted
		default:
			o.Status = StatusFSError
		}
		o.Detail = err.Error()
		return o
	}

	o.NewName = final
	if already {
		o.Status = StatusAlreadyNamed
	} else {
		o.Status = StatusRenamed
	}
	return o
}

func (p *Pipeline) logOutcome(o Outcome) {
	switch o.Status.Class() {
	case journal.ClassRenamed:
		p.logger.Info("renamed", "path", o.Path, "new_name", o.NewName, "type", o.Type)
	case journal.ClassSkipped:
		p.logger.Info("skipped", "path", o.Path, "status", string(o.Status), "detail", o.Detail)
	default:
		p.logger.Warn("failed", "path", o.Path, "status", string(o.Status), "detail", o.Detail)
	}
}

// record persists an outcome. Journal failures are logged and swallowed:
// losing a journal row must not stop the batch.
func (p *Pipeline) record(ctx context.Context, runID string, o Outcome) {
	if p.cfg.Journal == nil {
		return
	}
	err := p.cfg.Journal.Record(ctx, journal.Outcome{
		RunID:   runID,
		Path:    o.Path,
		NewName: o.NewName,
		Status:  string(o.Status),
		Class:   o.Status.Class(),
		DocType: o.Type,
		ISIN:    o.ISIN,
		Asset:   o.Asset,
		Detail:  o.Detail,
	})
	if err != nil {
		p.logger.Warn("outcome not recorded", "path", o.Path, "error", err)
	}
}
