package printfit

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension matches every *InvalidDimensionError via errors.Is.
var ErrInvalidDimension = errors.New("printfit: invalid dimension")

// InvalidDimensionError reports a request that cannot be fitted at all.
type InvalidDimensionError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("printfit: %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidDimension) match.
func (e *InvalidDimensionError) Is(target error) bool {
	return target == ErrInvalidDimension
}
