package filemap

import (
	"net/http"

	"github.com/mwantia/filemap/cache"
	"github.com/mwantia/filemap/log"
)

type Options struct {
	PathParameters map[string]string
	Hierarchy      [][]string
	LoadFunction   LoadFunc
	Metadata       map[string]any
	Supplements    map[string]string

	CachePath    string
	DeletePolicy cache.DeletePolicy
	Logger       *log.Logger
	Client       *http.Client

	policySet bool
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		Supplements: make(map[string]string),
		Logger:      log.Nop(),
	}
}

// WithPathParameters supplies values substituted into {field} filename
// template placeholders. A file's own tags win on conflicts.
func WithPathParameters(params map[string]string) Option {
	return func(opts *Options) error {
		opts.PathParameters = params
		return nil
	}
}

// WithHierarchy supplies the ordered hierarchy rows deciding how files
// nest in the data tree.
func WithHierarchy(rows ...[]string) Option {
	return func(opts *Options) error {
		opts.Hierarchy = rows
		return nil
	}
}

// WithLoadFunction overrides the generic per-file loader. The default
// reads raw bytes.
func WithLoadFunction(fn LoadFunc) Option {
	return func(opts *Options) error {
		opts.LoadFunction = fn
		return nil
	}
}

// WithMetadata merges an opaque map into every file's load parameters.
func WithMetadata(metadata map[string]any) Option {
	return func(opts *Options) error {
		opts.Metadata = metadata
		return nil
	}
}

// WithSupplementalPath registers a named additional virtual directory
// usable through the "name:" filename template prefix.
func WithSupplementalPath(name, source string) Option {
	return func(opts *Options) error {
		opts.Supplements[name] = source
		return nil
	}
}

// WithCachePath sets an explicit, persistent cache directory for every
// non-local virtual directory the file map owns.
func WithCachePath(path string) Option {
	return func(opts *Options) error {
		opts.CachePath = path
		return nil
	}
}

func WithDeletePolicy(policy cache.DeletePolicy) Option {
	return func(opts *Options) error {
		opts.DeletePolicy = policy
		opts.policySet = true
		return nil
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(opts *Options) error {
		opts.Logger = logger
		return nil
	}
}

// WithHTTPClient overrides the client used for URL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *Options) error {
		opts.Client = client
		return nil
	}
}
