package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DeletePolicy decides what happens to a registered cache directory when
// its registry is cleaned up. The policy is fixed at registration time.
type DeletePolicy int

const (
	// DeleteIfTemporary removes the directory only when it was allocated
	// by the registry itself rather than supplied by the caller.
	DeleteIfTemporary DeletePolicy = iota
	DeleteAlways
	DeleteNever
)

func (p DeletePolicy) String() string {
	switch p {
	case DeleteAlways:
		return "always"
	case DeleteNever:
		return "never"
	case DeleteIfTemporary:
		return "if-temporary"
	default:
		return "unknown"
	}
}

type registryEntry struct {
	path      string
	policy    DeletePolicy
	temporary bool
}

// Registry tracks cache directories together with their delete policies
// so they can be removed in one sweep at controlled shutdown.
type Registry struct {
	mu      sync.Mutex
	entries []registryEntry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// TempDir allocates a process-unique temporary directory and registers it
// with the given policy. Under DeleteIfTemporary it will be removed on
// Cleanup, since the registry created it.
func (r *Registry) TempDir(policy DeletePolicy) (string, error) {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("filemap-%s", uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cache: failed to create temp directory: %w", err)
	}

	r.register(dir, policy, true)
	return dir, nil
}

// Register adds a caller-supplied directory. Such directories are never
// treated as temporary, so DeleteIfTemporary keeps them.
func (r *Registry) Register(path string, policy DeletePolicy) {
	r.register(path, policy, false)
}

func (r *Registry) register(path string, policy DeletePolicy, temporary bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.path == path {
			return
		}
	}

	r.entries = append(r.entries, registryEntry{
		path:      path,
		policy:    policy,
		temporary: temporary,
	})
}

// Cleanup removes every registered directory whose policy allows it and
// forgets all entries. Safe to call more than once.
func (r *Registry) Cleanup() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = nil
	r.mu.Unlock()

	var firstErr error
	for _, e := range entries {
		if !e.shouldDelete() {
			continue
		}
		if err := os.RemoveAll(e.path); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (e registryEntry) shouldDelete() bool {
	switch e.policy {
	case DeleteAlways:
		return true
	case DeleteNever:
		return false
	default:
		return e.temporary
	}
}

// The default registry backs the vdir package; processes embedding the
// library should call Cleanup at shutdown.
var defaultRegistry = NewRegistry()

func DefaultRegistry() *Registry {
	return defaultRegistry
}

func TempDir(policy DeletePolicy) (string, error) {
	return defaultRegistry.TempDir(policy)
}

func Register(path string, policy DeletePolicy) {
	defaultRegistry.Register(path, policy)
}

func Cleanup() error {
	return defaultRegistry.Cleanup()
}
