package vdir

import (
	"net/http"
	"time"

	"github.com/mwantia/filemap/cache"
	"github.com/mwantia/filemap/log"
)

type Options struct {
	CachePath    string
	DeletePolicy cache.DeletePolicy
	Registry     *cache.Registry
	Logger       *log.Logger
	Client       *http.Client

	policySet bool
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		DeletePolicy: cache.DeleteIfTemporary,
		Logger:       log.Nop(),
		Client:       &http.Client{Timeout: 120 * time.Second},
	}
}

// WithCachePath uses an existing directory as the cache for non-local
// sources. Caller-supplied caches are persistent: they are never
// auto-deleted unless WithDeletePolicy overrides that, and they carry
// the sqlite manifest of materialized entries.
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

// WithRegistry overrides the process-default cache registry.
func WithRegistry(registry *cache.Registry) Option {
	return func(opts *Options) error {
		opts.Registry = registry
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
