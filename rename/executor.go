package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ArdentEmpiricist/TR-PDF-Rename/pathsafe"
)

// maxCollisionSuffix bounds the _N probe sequence. A directory holding a
// hundred identically keyed documents indicates a classification problem,
// not a naming problem.
const maxCollisionSuffix = 99

var (
	// ErrUnsafeTarget is returned when a target name or directory would
	// escape the configured root or is not a plain filename.
	ErrUnsafeTarget = errors.New("rename: unsafe target")

	// ErrCollisionExhausted is returned when every suffixed variant of a
	// target name is taken.
	ErrCollisionExhausted = errors.New("rename: collision suffixes exhausted")
)

// Executor applies canonical names to files under a fixed root
// directory. Renames never leave the file's own directory, never
// overwrite an existing file, and never follow a target outside the
// root. A single Executor serves one batch run; its registry remembers
// every name handed out so far.
type Executor struct {
	root   string
	dryRun bool
	reg    *Registry
}

// NewExecutor canonicalizes root and returns an executor bound to it.
// With dryRun set, renames are resolved and reserved but the filesystem
// is left untouched.
func NewExecutor(root string, dryRun bool) (*Executor, error) {
	canon, err := pathsafe.Canonical(root)
	if err != nil {
		return nil, fmt.Errorf("rename: resolve root: %w", err)
	}
	return &Executor{root: canon, dryRun: dryRun, reg: NewRegistry()}, nil
}

// Root returns the canonical root directory the executor is bound to.
func (e *Executor) Root() string { return e.root }

// Apply renames the file at src to name within src's own directory.
// It returns the final basename actually used, which carries a _N
// suffix when the plain name was taken. already reports that src
// needed no rename because it bears the exact target name.
//
// Apply never overwrites: an existing file or a name reserved earlier
// in the run pushes the target to the next suffix. Errors wrap
// ErrUnsafeTarget, ErrCollisionExhausted, or the underlying filesystem
// error.
func (e *Executor) Apply(src, name string) (final string, already bool, err error) {
	if err := validName(name); err != nil {
		return "", false, err
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return "", false, fmt.Errorf("rename: resolve %s: %w", src, err)
	}
	srcInfo, err := os.Lstat(absSrc)
	if err != nil {
		return "", false, fmt.Errorf("rename: stat source: %w", err)
	}

	dir, err := pathsafe.Canonical(filepath.Dir(absSrc))
	if err != nil {
		return "", false, fmt.Errorf("rename: resolve directory: %w", err)
	}
	if !pathsafe.Within(e.root, dir) {
		return "", false, fmt.Errorf("%w: %s outside %s", ErrUnsafeTarget, dir, e.root)
	}

	if filepath.Base(absSrc) == name {
		// Claim the name anyway so a sibling document cannot take it.
		e.reg.Reserve(dir, name)
		return name, true, nil
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	suffix := filepath.Ext(name)
	for n := 0; n <= maxCollisionSuffix; n++ {
		cand := name
		if n > 0 {
			cand = fmt.Sprintf("%s_%d%s", stem, n, suffix)
		}
		if !e.reg.Reserve(dir, cand) {
			continue
		}
		target := filepath.Join(dir, cand)
		info, lerr := os.Lstat(target)
		switch {
		case lerr == nil:
			if os.SameFile(info, srcInfo) {
				// Case-insensitive filesystem: the target entry is the
				// source itself. Rename normalizes the stored case.
				return cand, false, e.rename(absSrc, target)
			}
			continue
		case errors.Is(lerr, fs.ErrNotExist):
			return cand, false, e.rename(absSrc, target)
		default:
			return "", false, fmt.Errorf("rename: stat target: %w", lerr)
		}
	}
	return "", false, fmt.Errorf("%w: %s in %s", ErrCollisionExhausted, name, dir)
}

func (e *Executor) rename(src, target string) error {
	if e.dryRun {
		return nil
	}
	if err := os.Rename(src, target); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// validName admits plain filename components only.
func validName(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return fmt.Errorf("%w: empty or dot name", ErrUnsafeTarget)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrUnsafeTarget, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains a parent reference", ErrUnsafeTarget, name)
	case len(name) > maxNameBytes:
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrUnsafeTarget, name, maxNameBytes)
	}
	return nil
}
