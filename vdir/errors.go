package vdir

import "errors"

// Standard errors returned by virtual directories and their backends.
var (
	// Source classification errors
	ErrInvalidSource     = errors.New("vdir: unrecognized source specification")
	ErrUnsupportedScheme = errors.New("vdir: s3 sources are not supported")

	// Access errors
	ErrNotExist = errors.New("vdir: file does not exist in source")
	ErrClosed   = errors.New("vdir: virtual directory already closed")
)
