package vectorfield

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when nothing renderable survives filtering. It is an expected outcome:
// callers check for it with errors.Is and skip rendering.
var ErrNoData = errors.New("no renderable data")

// ComputationError reports a malformed numeric input to the vector or color transform.
type ComputationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
