package filemap

import (
	"errors"
	"fmt"
)

// Standard errors returned by file maps.
var (
	// Construction errors, surfaced eagerly
	ErrInvalidInstruction = errors.New("filemap: invalid instruction structure")
	ErrDuplicateFile      = errors.New("filemap: duplicate file declaration")
	ErrInvalidPath        = errors.New("filemap: path must not be empty")

	// Lookup errors
	ErrNotDeclared = errors.New("filemap: no such entry declared")

	// Per-file errors, surfaced at first access of the affected leaf
	ErrTemplateResolution = errors.New("filemap: unresolved template field")
	ErrMissingFile        = errors.New("filemap: file failed to load")
)

// TemplateError reports a filename template referencing a field absent
// from the merged parameter map. It matches ErrTemplateResolution via
// errors.Is.
type TemplateError struct {
	Template string
	Field    string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("filemap: template %q references unresolved field %q", e.Template, e.Field)
}

func (e *TemplateError) Unwrap() error {
	return ErrTemplateResolution
}
