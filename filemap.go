// Package filemap presents a directory with a known layout as a nested,
// lazily-loaded data structure. A declarative instruction set describes
// which files exist and how they are tagged; the backing storage may be
// a local directory, a remote URL tree, or a tar archive, all accessed
// through the vdir virtual-directory abstraction.
package filemap

import (
	"context"
	"fmt"

	"github.com/mwantia/filemap/log"
	"github.com/mwantia/filemap/vdir"
)

// FileMap combines a layout instruction set with a concrete path. The
// instructions are parsed eagerly at construction; file content is
// loaded on first access and memoized for the life of the instance.
type FileMap struct {
	path    string
	primary *vdir.VirtualDirectory

	supplements       map[string]*vdir.VirtualDirectory
	supplementSources map[string]string

	pathParams map[string]string
	metadata   map[string]any
	loadFn     LoadFunc
	logger     *log.Logger

	table   *FileTable
	entries map[string]*lazyEntry
	tree    *Tree
}

// New builds a file map over the given source path. Structural problems
// (unrecognized source, malformed instructions, duplicate filenames,
// bad supplemental sources) fail here; per-file data problems surface
// only when the affected leaf is accessed.
func New(path string, inst Instruction, opts ...Option) (*FileMap, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	table, skel, err := parseInstructions(inst, options.Hierarchy)
	if err != nil {
		return nil, err
	}

	vdirOpts := []vdir.Option{
		vdir.WithLogger(options.Logger.Named("vdir")),
	}
	if options.CachePath != "" {
		vdirOpts = append(vdirOpts, vdir.WithCachePath(options.CachePath))
	}
	if options.policySet {
		vdirOpts = append(vdirOpts, vdir.WithDeletePolicy(options.DeletePolicy))
	}
	if options.Client != nil {
		vdirOpts = append(vdirOpts, vdir.WithHTTPClient(options.Client))
	}

	primary, err := vdir.New(path, vdirOpts...)
	if err != nil {
		return nil, err
	}

	supplements := make(map[string]*vdir.VirtualDirectory, len(options.Supplements))
	for name, source := range options.Supplements {
		sup, err := vdir.New(source, vdirOpts...)
		if err != nil {
			primary.Close()
			for _, s := range supplements {
				s.Close()
			}
			return nil, fmt.Errorf("supplemental path %q: %w", name, err)
		}
		supplements[name] = sup
	}

	loadFn := options.LoadFunction
	if loadFn == nil {
		loadFn = defaultLoad
	}

	fm := &FileMap{
		path:              path,
		primary:           primary,
		supplements:       supplements,
		supplementSources: options.Supplements,
		pathParams:        options.PathParameters,
		metadata:          options.Metadata,
		loadFn:            loadFn,
		logger:            options.Logger,
		table:             table,
	}

	fm.entries = make(map[string]*lazyEntry, table.Len())
	table.Each(func(relpath string, f *File) bool {
		fm.entries[relpath] = fm.newLoadEntry(relpath, f)
		return true
	})
	fm.tree = buildTree(skel, fm.entries)

	return fm, nil
}

// Partial returns a constructor awaiting the path, for callers that
// declare a layout once and bind it to several directories.
func Partial(inst Instruction, opts ...Option) func(path string) (*FileMap, error) {
	return func(path string) (*FileMap, error) {
		return New(path, inst, opts...)
	}
}

// Path returns the primary source path this map was built over.
func (fm *FileMap) Path() string {
	return fm.path
}

// DataFiles returns the flat lazy view: every declared relative
// filename mapped to its loaded value.
func (fm *FileMap) DataFiles() *DataFiles {
	return &DataFiles{fm: fm}
}

// DataTree returns the nested, hierarchy-shaped lazy view.
func (fm *FileMap) DataTree() *Tree {
	return fm.tree
}

// Close releases the owned virtual directories. Cached values stay
// valid; further materialization fails.
func (fm *FileMap) Close() error {
	err := fm.primary.Close()
	for _, sup := range fm.supplements {
		if cerr := sup.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// DataFiles is the flat view over a file map's declared files.
type DataFiles struct {
	fm *FileMap
}

// Len reports the number of declared files.
func (df *DataFiles) Len() int {
	return df.fm.table.Len()
}

// Names lists every declared relative filename in sorted order.
func (df *DataFiles) Names() []string {
	return df.fm.table.Names()
}

// Get loads the named file, memoizing the result. The same entry backs
// the data tree, so either view triggers at most one load.
func (df *DataFiles) Get(ctx context.Context, name string) (any, error) {
	entry, ok := df.fm.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}

	return entry.Value(ctx)
}
