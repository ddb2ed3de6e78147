package engine

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrResolutionFailed is the sentinel wrapped by ResolutionError.
//
// Per spec.md §4.2 and §7, a resolution failure means the runtime itself
// has been corrupted — handle types thread through registration, so user
// code cannot construct a type mismatch. The engine aborts rather than
// returning this as an ordinary build error.
var ErrResolutionFailed = errors.New("engine: opaque value resolution failed")

// ResolutionError describes a failed downcast of a node's opaque output.
type ResolutionError struct {
	Node     NodeID
	Expected reflect.Type
	Got      reflect.Type
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: node %d: expected %s, got %s", ErrResolutionFailed, e.Node, e.Expected, e.Got)
}

func (e *ResolutionError) Unwrap() error { return ErrResolutionFailed }
