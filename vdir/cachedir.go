package vdir

import (
	"context"
	"os"
	"sync"

	"github.com/mwantia/filemap/cache"
	"github.com/mwantia/filemap/log"
)

// cacheDir is the cache directory shared by the non-local backends of
// one virtual directory. The actual directory is allocated on first
// need: a caller-supplied path is used as-is, otherwise a process-unique
// temporary directory is created and registered for cleanup.
//
// Caller-supplied paths are persistent across processes, so they also
// carry the sqlite manifest of materialized entries.
type cacheDir struct {
	mu sync.Mutex

	path     string
	explicit bool
	policy   cache.DeletePolicy
	registry *cache.Registry
	log      *log.Logger

	ready   bool
	index   *cache.Index
	noIndex bool
}

func newCacheDir(path string, policy cache.DeletePolicy, registry *cache.Registry, logger *log.Logger) *cacheDir {
	return &cacheDir{
		path:     path,
		explicit: path != "",
		policy:   policy,
		registry: registry,
		log:      logger,
	}
}

// Path returns the cache directory, allocating and registering it on
// first call.
func (cd *cacheDir) Path() (string, error) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	return cd.pathLocked()
}

func (cd *cacheDir) pathLocked() (string, error) {
	if cd.ready {
		return cd.path, nil
	}

	if cd.explicit {
		if err := os.MkdirAll(cd.path, 0o755); err != nil {
			return "", err
		}
		cd.registry.Register(cd.path, cd.policy)
	} else {
		dir, err := cd.registry.TempDir(cd.policy)
		if err != nil {
			return "", err
		}
		cd.path = dir
	}

	cd.ready = true
	return cd.path, nil
}

// allocated reports the cache path only if one has been materialized;
// existence checks use this to avoid mutating the cache.
func (cd *cacheDir) allocated() (string, bool) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	return cd.path, cd.ready || cd.explicit
}

// Index returns the persistent manifest for explicit cache directories,
// or nil when the cache is temporary or the manifest cannot be opened.
func (cd *cacheDir) Index() *cache.Index {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	if !cd.explicit || cd.noIndex {
		return nil
	}
	if cd.index != nil {
		return cd.index
	}

	dir, err := cd.pathLocked()
	if err != nil {
		cd.noIndex = true
		return nil
	}

	ix, err := cache.OpenIndex(dir)
	if err != nil {
		cd.log.Warn("Failed to open cache index in '%s': %v", dir, err)
		cd.noIndex = true
		return nil
	}

	cd.index = ix
	return cd.index
}

// lookup consults the manifest, if any, for a previously materialized
// entry.
func (cd *cacheDir) lookup(ctx context.Context, source, relpath string) (string, bool) {
	ix := cd.Index()
	if ix == nil {
		return "", false
	}

	local, ok, err := ix.Lookup(ctx, source, relpath)
	if err != nil {
		cd.log.Warn("Cache index lookup for '%s' failed: %v", relpath, err)
		return "", false
	}

	return local, ok
}

// record stores a materialized entry in the manifest, if any.
func (cd *cacheDir) record(ctx context.Context, source, relpath, local string, size int64) {
	ix := cd.Index()
	if ix == nil {
		return
	}

	err := ix.Record(ctx, cache.IndexEntry{
		Source:    source,
		Relpath:   relpath,
		LocalPath: local,
		Size:      size,
	})
	if err != nil {
		cd.log.Warn("Cache index record for '%s' failed: %v", relpath, err)
	}
}

func (cd *cacheDir) Close() error {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	if cd.index != nil {
		if err := cd.index.Close(); err != nil {
			return err
		}
		cd.index = nil
	}

	return nil
}
