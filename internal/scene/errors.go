package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned by SetTime for an index outside the
	// shared time range.
	ErrIndexOutOfRange = errors.New("scene: time index out of range")

	// ErrNoTimesteps is returned by SetTime when every data series is empty.
	ErrNoTimesteps = errors.New("scene: no timesteps loaded")

	ErrUnknownLayer = errors.New("scene: unknown layer")
)

// LoadError reports a grid file that could not be turned into a primitive.
type LoadError struct {
	Layer LayerID
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: load %s: %v", e.Layer, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
