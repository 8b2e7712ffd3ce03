package indicators

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams is returned for non-numeric or non-positive parameters
	ErrInvalidParams = errors.New("invalid indicator parameters")
	// ErrInsufficientData is returned when the close series is too short
	ErrInsufficientData = errors.New("insufficient data")
)

// InsufficientDataError names the indicator whose period requirement was not met
type InsufficientDataError struct {
	Indicator string
	Period    int
	Have      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s period %d needs at least %d closes, have %d",
		e.Indicator, e.Period, e.Period, e.Have)
}

// Is lets errors.Is match ErrInsufficientData
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
