package capture

import "errors"

var (
	// ErrOpen is returned when a device or file cannot be opened.
	ErrOpen = errors.New("capture: open failed")

	// ErrRead is returned when a live device stops delivering frames.
	ErrRead = errors.New("capture: read failed")

	// ErrEndOfStream is returned by file and in-memory sources once every
	// frame has been delivered.
	ErrEndOfStream = errors.New("capture: end of stream")

	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("capture: source closed")
)
