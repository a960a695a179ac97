package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGrid indicates dimensions that do not match the value count.
	ErrInvalidGrid = errors.New("grid: value count does not match dimensions")

	// ErrUnsupportedFormat indicates an unknown file extension or encoding.
	ErrUnsupportedFormat = errors.New("grid: unsupported file format")
)

// FormatError wraps a decode or encode failure with the file it concerns.
type FormatError struct {
	Path    string
	Wrapped error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("grid %s: %v", e.Path, e.Wrapped)
}

func (e *FormatError) Unwrap() error {
	return e.Wrapped
}
