// Package vdir presents a local directory, a remote URL tree, or a tar
// archive behind one uniform read-only directory interface. Non-local
// sources materialize files into a local cache on demand.
package vdir

import (
	"context"
	"os"
	"strings"

	"github.com/mwantia/filemap/cache"
)

// VirtualDirectory is the public surface consumers use. The backend is
// classified once at construction; Find never mutates the cache while
// Materialize downloads or extracts as needed.
type VirtualDirectory struct {
	source  string
	backend Backend
	cache   *cacheDir
	closed  bool
}

// New classifies the source specification and builds the matching
// backend. Classification failures (including s3 schemes) are fatal to
// construction.
func New(source string, opts ...Option) (*VirtualDirectory, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if options.Registry == nil {
		options.Registry = cache.DefaultRegistry()
	}

	source = expandPath(source)

	policy := options.DeletePolicy
	if options.CachePath != "" && !options.policySet {
		policy = cache.DeleteNever
	}

	cd := newCacheDir(options.CachePath, policy, options.Registry, options.Logger)

	backend, err := classify(source, cd, options.Client, options.Logger)
	if err != nil {
		return nil, err
	}

	options.Logger.Debug("Classified '%s' as %s backend", source, backend.Name())

	return &VirtualDirectory{
		source:  source,
		backend: backend,
		cache:   cd,
	}, nil
}

// Source returns the source specification this directory was built from.
func (vd *VirtualDirectory) Source() string {
	return vd.source
}

// Join concatenates path segments in the backend's style.
func (vd *VirtualDirectory) Join(segments ...string) string {
	return vd.backend.Join(segments...)
}

// Find joins the segments and returns the relative path if it exists in
// the source. It never downloads or extracts anything.
func (vd *VirtualDirectory) Find(ctx context.Context, segments ...string) (string, bool) {
	if vd.closed {
		return "", false
	}

	relpath := vd.backend.Join(segments...)

	ok, err := vd.backend.Exists(ctx, relpath)
	if err != nil || !ok {
		return "", false
	}

	return relpath, true
}

// Materialize joins the segments and ensures the file is available on
// the local filesystem, returning its local path.
func (vd *VirtualDirectory) Materialize(ctx context.Context, segments ...string) (string, error) {
	if vd.closed {
		return "", ErrClosed
	}

	return vd.backend.Resolve(ctx, vd.backend.Join(segments...))
}

// CachePath returns the cache directory in use, or "" when none has
// been allocated (local sources never allocate one).
func (vd *VirtualDirectory) CachePath() string {
	path, ok := vd.cache.allocated()
	if !ok {
		return ""
	}
	return path
}

// Close releases the cache manifest. Cache directory deletion is owned
// by the registry, which the embedding process flushes at shutdown.
func (vd *VirtualDirectory) Close() error {
	if vd.closed {
		return nil
	}
	vd.closed = true

	return vd.cache.Close()
}

// expandPath applies ~ and environment variable expansion the way shell
// users expect from source specifications.
func expandPath(source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source
	}

	source = os.ExpandEnv(source)
	if source == "~" || strings.HasPrefix(source, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			source = home + source[1:]
		}
	}

	return source
}
