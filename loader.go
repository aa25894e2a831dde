package filemap

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// lazyEntry is a memoized, compute-once leaf value. The sync.Once makes
// first access safe under concurrent use; later accesses return the
// cached result with no further I/O.
type lazyEntry struct {
	once    sync.Once
	value   any
	err     error
	compute func(ctx context.Context) (any, error)
}

func (e *lazyEntry) Value(ctx context.Context) (any, error) {
	e.once.Do(func() {
		e.value, e.err = e.compute(ctx)
	})
	return e.value, e.err
}

// defaultLoad reads the file's raw bytes. Consumers normally override
// this with a domain loader via WithLoadFunction.
func defaultLoad(path string, _ map[string]any) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// newLoadEntry builds the deferred load pipeline for one declared file.
//
// Template resolution errors propagate: they are configuration errors
// scoped to the leaf and must not be masked by miss handling. Every
// failure past that point is downgraded to "no value" and handled by
// the file's miss policy, so one bad file never aborts its siblings.
func (fm *FileMap) newLoadEntry(template string, f *File) *lazyEntry {
	return &lazyEntry{
		compute: func(ctx context.Context) (any, error) {
			name, relpath, err := resolvePath(template, fm.pathParams, f, fm.supplementSources)
			if err != nil {
				return nil, err
			}

			dir := fm.primary
			if name != "" {
				dir = fm.supplements[name]
			}

			params := fm.mergeParams(f)

			value, ok := fm.tryLoad(ctx, dir, relpath, f, params)
			if ok {
				return value, nil
			}

			if f.Miss.raise {
				return nil, fmt.Errorf("%w: %s", ErrMissingFile, relpath)
			}
			if f.Miss.fn != nil {
				return f.Miss.fn(relpath, params)
			}

			return nil, nil
		},
	}
}

// mergeParams unions path parameters, ambient metadata, and the file's
// tags, with the file winning on key conflicts.
func (fm *FileMap) mergeParams(f *File) map[string]any {
	params := make(map[string]any, len(fm.pathParams)+len(fm.metadata)+len(f.Tags))
	for k, v := range fm.pathParams {
		params[k] = v
	}
	for k, v := range fm.metadata {
		params[k] = v
	}
	for _, tag := range f.Tags {
		params[tag.Key] = tag.Value
	}
	return params
}

// tryLoad runs the materialize/load/filter pipeline, converting every
// failure into "no value". A nil result also counts as no value.
func (fm *FileMap) tryLoad(ctx context.Context, dir dirSource, relpath string, f *File, params map[string]any) (any, bool) {
	local, err := dir.Materialize(ctx, relpath)
	if err != nil {
		fm.logger.Debug("Materialize of '%s' failed: %v", relpath, err)
		return nil, false
	}

	loadFn := f.Load
	if loadFn == nil {
		loadFn = fm.loadFn
	}

	value, err := loadFn(local, params)
	if err != nil {
		fm.logger.Debug("Load of '%s' failed: %v", relpath, err)
		return nil, false
	}

	if f.Filt != nil {
		value, err = f.Filt(value, params)
		if err != nil {
			fm.logger.Debug("Filter of '%s' failed: %v", relpath, err)
			return nil, false
		}
	}

	return value, value != nil
}

// dirSource is the slice of the virtual directory surface the loader
// needs; tests substitute their own.
type dirSource interface {
	Materialize(ctx context.Context, segments ...string) (string, error)
}
