// Package pathsafe guards rename targets against escaping the scan root:
// canonicalisation, containment checks, and traversal-safe joins.
package pathsafe

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrTraversal is returned when a candidate path escapes its base directory.
var ErrTraversal = errors.New("pathsafe: path escapes base directory")

// Canonical returns the absolute path with symlinks resolved. The path must
// exist.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("pathsafe: abs %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("pathsafe: resolve %s: %w", path, err)
	}
	return resolved, nil
}

// Join validates that joining base and name does not escape base.
// Returns the cleaned path or ErrTraversal.
func Join(base, name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrTraversal
	}
	// Clean both and verify the result stays under base.
	cleaned := filepath.Join(base, filepath.Clean("/"+name))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) &&
		cleaned != filepath.Clean(base) {
		return "", ErrTraversal
	}
	return cleaned, nil
}

// Within reports whether path lies under base (or equals it) after cleaning.
// Both arguments should already be canonical; Within does no symlink
// resolution of its own.
func Within(base, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
