package hub

import "errors"

// ErrClosed is returned when publishing to a hub after Close.
var ErrClosed = errors.New("hub: closed")
