package vdir

import (
	"context"
	"os"
	"path/filepath"
)

// localBackend serves an existing directory directly. No cache is
// involved; Resolve is a plain join against the root.
type localBackend struct {
	root string
}

func (*localBackend) Name() string {
	return "local"
}

func (lb *localBackend) Exists(ctx context.Context, relpath string) (bool, error) {
	_, err := os.Stat(lb.resolvePath(relpath))
	return err == nil, nil
}

func (lb *localBackend) Resolve(ctx context.Context, relpath string) (string, error) {
	local := lb.resolvePath(relpath)
	if _, err := os.Stat(local); err != nil {
		return "", ErrNotExist
	}

	return local, nil
}

func (lb *localBackend) Join(segments ...string) string {
	return filepath.Join(segments...)
}

// resolvePath joins the backend root with the relative path.
func (lb *localBackend) resolvePath(relpath string) string {
	return filepath.Join(lb.root, filepath.Clean(relpath))
}
