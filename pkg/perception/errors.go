package perception

import "errors"

var (
	// ErrInvalidRange is returned when a color range has low > high on any
	// channel or no bounds at all.
	ErrInvalidRange = errors.New("perception: invalid color range")

	// ErrEmptyFrame is returned when segmentation receives an empty frame.
	ErrEmptyFrame = errors.New("perception: empty frame")
)
