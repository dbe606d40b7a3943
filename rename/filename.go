// Package rename turns classified document records into canonical
// filenames and applies them on disk without ever clobbering an
// existing file.
package rename

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/classify"
	"github.com/ArdentEmpiricist/TR-PDF-Rename/extract"
)

// Filename shape limits. maxNameBytes tracks the common filesystem limit
// for a single path component; assetMaxRunes keeps long fund names from
// dominating the filename.
const (
	maxNameBytes  = 255
	assetMaxRunes = 50
)

const ext = ".pdf"

// ErrIncompleteRecord is returned when a record lacks the fields a
// filename requires.
var ErrIncompleteRecord = errors.New("rename: record missing type or date")

// unsafeRunRe matches character runs that never survive into a filename:
// whitespace, path separators, shell and filesystem metacharacters,
// grouping punctuation, and sentence punctuation.
var unsafeRunRe = regexp.MustCompile(`[\s\x{00a0}/\\:*?"<>|()\[\].,]+`)

var underscoreRunRe = regexp.MustCompile(`_{2,}`)

// CleanName reduces a free-text label to a filename-safe segment.
// Invisible characters are stripped first so they cannot hide inside a
// replacement run, then unsafe runs collapse to single underscores.
// The result carries no leading or trailing underscore and may be empty.
func CleanName(s string) string {
	s = extract.StripInvisible(s)
	s = unsafeRunRe.ReplaceAllString(s, "_")
	s = underscoreRunRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Build assembles the canonical filename for a record:
//
//	yyyy_mm_dd_Type_ISIN_Asset.pdf
//
// The ISIN segment is omitted for documents that name no security. The
// asset segment is truncated to a bounded rune count and falls back to
// "Unbekannt" when cleaning leaves nothing usable. The whole name is
// kept within the filesystem component limit by shrinking the asset
// segment, never the date, type, or ISIN.
func Build(rec classify.Record) (string, error) {
	if rec.Type == "" || rec.Type == classify.TypeUnbekannt {
		return "", fmt.Errorf("%w: type %q", ErrIncompleteRecord, rec.Type)
	}
	if rec.Date.IsZero() {
		return "", fmt.Errorf("%w: zero date", ErrIncompleteRecord)
	}

	date := rec.Date.Format("2006_01_02")
	typ := CleanName(string(rec.Type))
	if typ == "" {
		return "", fmt.Errorf("%w: type %q cleans to nothing", ErrIncompleteRecord, rec.Type)
	}

	asset := truncateRunes(CleanName(rec.Asset), assetMaxRunes)
	if asset == "" {
		asset = "Unbekannt"
	}

	name := join(date, typ, rec.ISIN, asset)
	for len(name) > maxNameBytes {
		r := []rune(asset)
		if len(r) <= 1 {
			break
		}
		asset = strings.Trim(string(r[:len(r)-1]), "_")
		if asset == "" {
			asset = "X"
		}
		name = join(date, typ, rec.ISIN, asset)
	}
	return name, nil
}

func join(date, typ, isin, asset string) string {
	parts := []string{date, typ}
	if isin != "" {
		parts = append(parts, isin)
	}
	parts = append(parts, asset)
	return strings.Join(parts, "_") + ext
}

// truncateRunes cuts s to at most n runes, trimming any underscore the
// cut exposes at the end.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.Trim(string(r[:n]), "_")
}
