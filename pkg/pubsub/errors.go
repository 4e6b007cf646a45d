package pubsub

import "errors"

var (
	// ErrNotConnected is returned by Subscriber methods before Dial succeeds.
	ErrNotConnected = errors.New("pubsub: not connected")

	// ErrClosed is returned after a sink or subscriber is closed.
	ErrClosed = errors.New("pubsub: closed")
)
