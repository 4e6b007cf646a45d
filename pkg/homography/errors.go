package homography

import "errors"

var (
	// ErrNotFound is returned by Load when the calibration file does not
	// exist. Callers treat it as uncalibrated mode, not a failure.
	ErrNotFound = errors.New("homography: calibration file not found")

	// ErrMalformed is returned when the calibration file exists but does
	// not hold a usable 3x3 matrix.
	ErrMalformed = errors.New("homography: malformed calibration")

	// ErrDegenerateProjection is returned when a point maps to the line at
	// infinity (homogeneous w close to zero).
	ErrDegenerateProjection = errors.New("homography: degenerate projection")

	// ErrSingular is returned when a matrix cannot be inverted.
	ErrSingular = errors.New("homography: singular matrix")
)
