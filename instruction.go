package filemap

// LoadFunc turns a materialized local file into a domain value. The
// params map is the merged view of path parameters, metadata, and the
// file's own tags.
type LoadFunc func(path string, params map[string]any) (any, error)

// FilterFunc post-processes a loaded value.
type FilterFunc func(value any, params map[string]any) (any, error)

// MissFunc produces a substitute value for a file that failed to load.
type MissFunc func(relpath string, params map[string]any) (any, error)

// MissPolicy decides what a leaf yields when its load pipeline produced
// no value. The zero policy yields nil.
type MissPolicy struct {
	raise bool
	fn    MissFunc
}

// MissRaise makes a failed load surface as ErrMissingFile at the leaf.
var MissRaise = MissPolicy{raise: true}

// MissWith substitutes the function's return value on a failed load.
func MissWith(fn MissFunc) MissPolicy {
	return MissPolicy{fn: fn}
}

// Tag is one semantic field of a file instruction. Order matters: when
// no hierarchy row matches, one is synthesized from the tags in their
// declared order.
type Tag struct {
	Key   string
	Value string
}

// Instruction is the declarative description of files under a path.
// The three shapes are File (one file at the current path), Group
// (several files at the current path), and Directory (named segments
// with nested instructions).
type Instruction interface {
	instruction()
}

// File declares a single file: its semantic tags plus the optional
// load/filter/miss overrides. The filename itself comes from the
// enclosing Directory segment names.
type File struct {
	Tags []Tag

	Load LoadFunc
	Filt FilterFunc
	Miss MissPolicy

	// Reserved for forward compatibility; excluded from hierarchy
	// synthesis but otherwise uninterpreted.
	When any
	Then any
}

func (*File) instruction() {}

// Tag returns the value of the named tag.
func (f *File) Tag(key string) (string, bool) {
	for _, t := range f.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// NewFile builds a File from alternating key/value pairs.
func NewFile(pairs ...string) *File {
	f := &File{}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Tags = append(f.Tags, Tag{Key: pairs[i], Value: pairs[i+1]})
	}
	return f
}

// Group applies all of its members at the current path level.
type Group []Instruction

func (Group) instruction() {}

// Directory lists path segments and the instructions that apply below
// them. An empty Name applies the instruction at the current level.
type Directory []Entry

func (Directory) instruction() {}

type Entry struct {
	Name string
	Inst Instruction
}
