// Package docpipe extracts text from PDF files.
//
// Extraction is pure Go via pdfcpu: the content stream of every page is
// decoded and its text operators reassembled into line-oriented text,
// because the field extractors downstream reason about individual lines.
// Alongside the text, the pipeline reports quality metrics that flag
// scanned PDFs with no usable text layer.
//
// Usage:
//
//	pipe := docpipe.New(docpipe.Config{})
//	doc, err := pipe.Extract(ctx, "/path/to/statement.pdf")
//	fmt.Println(len(doc.Pages), "pages")
package docpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrTooLarge is returned when a file exceeds Config.MaxFileSize.
	ErrTooLarge = errors.New("docpipe: file exceeds size limit")

	// ErrUnsupported is returned for files that are not PDFs.
	ErrUnsupported = errors.New("docpipe: unsupported file type")

	// ErrNoText is returned when a PDF yields no text at all.
	ErrNoText = errors.New("docpipe: no text content")
)

// Pipeline is the PDF extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// IsPDF reports whether path carries a PDF extension, in any case.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Extract reads the PDF at path and returns its text and quality
// metrics. Oversized files fail with ErrTooLarge before any read, and a
// PDF without a text layer fails with ErrNoText carrying a scan hint.
func (p *Pipeline) Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !IsPDF(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), p.cfg.MaxFileSize)
	}

	p.logger.Debug("extracting pdf", "path", path, "size", info.Size())

	pages, quality, err := extractPDF(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	if len(pages) == 0 {
		if quality != nil && quality.LikelyScanned() {
			return nil, fmt.Errorf("%w: %s appears to be a scan without a text layer", ErrNoText, path)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoText, path)
	}

	return &Document{
		Path:    path,
		Pages:   pages,
		RawText: strings.Join(pages, "\n"),
		Quality: quality,
	}, nil
}
