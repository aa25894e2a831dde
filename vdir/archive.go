package vdir

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mwantia/filemap/log"
	"github.com/ulikunitz/xz/lzma"
)

// archiveBackend serves the members of a tar archive, optionally below
// an internal prefix ("archive.tar.gz:subdir/" sources). Members are
// extracted into the cache directory on demand, one file at a time.
type archiveBackend struct {
	path   string
	prefix string
	cache  *cacheDir
	log    *log.Logger

	extractions int
}

func (*archiveBackend) Name() string {
	return "archive"
}

// memberPath joins the internal prefix to the requested relative path.
// Archive members always use forward slashes.
func (ab *archiveBackend) memberPath(relpath string) string {
	if ab.prefix == "" {
		return path.Clean(relpath)
	}
	return path.Join(ab.prefix, relpath)
}

func (ab *archiveBackend) Exists(ctx context.Context, relpath string) (bool, error) {
	member := ab.memberPath(relpath)

	if dir, ok := ab.cache.allocated(); ok {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(member))); err == nil {
			return true, nil
		}
	}

	found := false
	err := ab.scan(func(hdr *tar.Header, _ *tar.Reader) (bool, error) {
		if tarMemberName(hdr) == member {
			found = true
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}

	return found, nil
}

func (ab *archiveBackend) Resolve(ctx context.Context, relpath string) (string, error) {
	dir, err := ab.cache.Path()
	if err != nil {
		return "", err
	}

	member := ab.memberPath(relpath)
	local := filepath.Join(dir, filepath.FromSlash(member))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if cached, ok := ab.cache.lookup(ctx, ab.path, member); ok {
		return cached, nil
	}

	size, err := ab.extract(member, local)
	if err != nil {
		return "", err
	}

	ab.cache.record(ctx, ab.path, member, local, size)
	return local, nil
}

// extract copies the single requested member out of the archive stream.
func (ab *archiveBackend) extract(member, local string) (int64, error) {
	ab.extractions++
	ab.log.Debug("Extracting '%s' from '%s'", member, ab.path)

	var size int64
	found := false
	err := ab.scan(func(hdr *tar.Header, tr *tar.Reader) (bool, error) {
		if tarMemberName(hdr) != member {
			return false, nil
		}
		found = true

		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return true, err
		}

		fl, err := os.Create(local)
		if err != nil {
			return true, err
		}

		size, err = io.Copy(fl, tr)
		if cerr := fl.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(local)
			return true, err
		}

		return true, nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: '%s' not in archive '%s'", ErrNotExist, member, ab.path)
	}

	ab.log.Info("Extracted '%s' (%d bytes)", member, size)
	return size, nil
}

// scan walks the archive members until the callback reports done.
func (ab *archiveBackend) scan(fn func(*tar.Header, *tar.Reader) (bool, error)) error {
	fl, err := os.Open(ab.path)
	if err != nil {
		return fmt.Errorf("%w: cannot open archive: %v", ErrNotExist, err)
	}
	defer fl.Close()

	reader, err := decompress(ab.path, fl)
	if err != nil {
		return err
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		done, err := fn(hdr, tr)
		if err != nil || done {
			return err
		}
	}
}

// decompress wraps the archive stream according to its file extension.
func decompress(name string, fl io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".tar.gz"):
		return gzip.NewReader(fl)
	case strings.HasSuffix(name, ".tar.bz2"):
		return bzip2.NewReader(fl), nil
	case strings.HasSuffix(name, ".tar.lzma"):
		return lzma.NewReader(fl)
	default:
		return fl, nil
	}
}

func tarMemberName(hdr *tar.Header) string {
	return path.Clean(strings.TrimPrefix(hdr.Name, "./"))
}

func (ab *archiveBackend) Join(segments ...string) string {
	return path.Join(segments...)
}
