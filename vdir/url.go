package vdir

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/mwantia/filemap/log"
)

// urlBackend serves a remote URL tree with anonymous HTTP fetches.
// Downloads land in the cache directory and are never repeated while
// the cached copy is on disk.
type urlBackend struct {
	base   string
	cache  *cacheDir
	client *http.Client
	log    *log.Logger

	fetches int
}

func (*urlBackend) Name() string {
	return "url"
}

func (ub *urlBackend) Exists(ctx context.Context, relpath string) (bool, error) {
	if dir, ok := ub.cache.allocated(); ok {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(relpath))); err == nil {
			return true, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, ub.fileURL(relpath), nil)
	if err != nil {
		return false, err
	}

	resp, err := ub.client.Do(req)
	if err != nil {
		return false, nil
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400, nil
}

func (ub *urlBackend) Resolve(ctx context.Context, relpath string) (string, error) {
	dir, err := ub.cache.Path()
	if err != nil {
		return "", err
	}

	local := filepath.Join(dir, filepath.FromSlash(relpath))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if cached, ok := ub.cache.lookup(ctx, ub.base, relpath); ok {
		return cached, nil
	}

	size, err := ub.fetch(ctx, relpath, local)
	if err != nil {
		return "", err
	}

	ub.cache.record(ctx, ub.base, relpath, local, size)
	return local, nil
}

// fetch streams the remote file into the cache location.
func (ub *urlBackend) fetch(ctx context.Context, relpath, local string) (int64, error) {
	ub.fetches++

	url := ub.fileURL(relpath)
	ub.log.Debug("Downloading '%s'", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := ub.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrNotExist, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("%w: %s: status %d", ErrNotExist, url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return 0, err
	}

	fl, err := os.Create(local)
	if err != nil {
		return 0, err
	}

	size, err := io.Copy(fl, resp.Body)
	if cerr := fl.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(local)
		return 0, err
	}

	ub.log.Info("Downloaded '%s' (%d bytes)", relpath, size)
	return size, nil
}

func (ub *urlBackend) fileURL(relpath string) string {
	return ub.base + "/" + path.Clean(relpath)
}

func (ub *urlBackend) Join(segments ...string) string {
	return path.Join(segments...)
}
