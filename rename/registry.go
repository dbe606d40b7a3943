package rename

import (
	"path/filepath"
	"strings"
	"sync"
)

// Registry tracks filenames claimed during a run before they exist on
// disk. Two documents in the same batch can resolve to the same target
// name; the registry makes the collision visible to the second one even
// though the first rename may not have happened yet (dry runs never
// touch the disk at all).
//
// Keys are lowercased so the claim also holds on case-insensitive
// filesystems.
type Registry struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{claimed: make(map[string]struct{})}
}

// Reserve claims name within dir. It returns false when the name was
// already claimed in this run.
func (r *Registry) Reserve(dir, name string) bool {
	key := filepath.Join(dir, strings.ToLower(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.claimed[key]; ok {
		return false
	}
	r.claimed[key] = struct{}{}
	return true
}
