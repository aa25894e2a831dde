package vdir

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/filemap/log"
)

// Backend provides the three primitive operations a virtual directory
// needs from its storage kind. Exactly one backend is selected per
// source specification at construction time.
type Backend interface {
	// Name returns the identifier name defined for this backend.
	Name() string

	// Exists reports whether relpath is present in the source. It must
	// not mutate the cache directory.
	Exists(ctx context.Context, relpath string) (bool, error)

	// Resolve returns a local filesystem path for relpath, downloading
	// or extracting into the cache directory as needed. It is
	// idempotent: once the file is on disk no further work happens.
	Resolve(ctx context.Context, relpath string) (string, error)

	// Join concatenates path segments in the style appropriate for the
	// backend (forward slashes for remote and archive sources).
	Join(segments ...string) string
}

// Archive suffixes recognized in source specifications, longest first so
// marker searches match ".tar.gz:" before ".tar:".
var archiveSuffixes = []string{".tar.lzma", ".tar.bz2", ".tar.gz", ".tar"}

// classify selects the backend for a source specification. Priority:
// existing local directory, rejected s3 scheme, http(s) URL, archive
// with internal subpath marker, plain archive. Anything else fails with
// ErrInvalidSource.
func classify(source string, cache *cacheDir, client *http.Client, logger *log.Logger) (Backend, error) {
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return &localBackend{root: filepath.Clean(source)}, nil
	}

	if strings.HasPrefix(strings.ToLower(source), "s3:") {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidSource, ErrUnsupportedScheme, source)
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return &urlBackend{
			base:   strings.TrimRight(source, "/"),
			cache:  cache,
			client: client,
			log:    logger.Named("url"),
		}, nil
	}

	for _, suffix := range archiveSuffixes {
		marker := suffix + ":"
		if idx := strings.Index(source, marker); idx >= 0 {
			return &archiveBackend{
				path:   source[:idx+len(suffix)],
				prefix: strings.Trim(source[idx+len(marker):], "/"),
				cache:  cache,
				log:    logger.Named("archive"),
			}, nil
		}
	}

	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(source, suffix) {
			return &archiveBackend{
				path:  source,
				cache: cache,
				log:   logger.Named("archive"),
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidSource, source)
}
