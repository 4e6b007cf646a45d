package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Frames is an in-memory Source that replays a fixed list of images.
// It owns the Mats it holds.
type Frames struct {
	mu     sync.Mutex
	frames []gocv.Mat
	next   int
	closed bool
}

// NewFrames takes ownership of frames.
func NewFrames(frames ...gocv.Mat) *Frames {
	return &Frames{frames: frames}
}

// LoadImages reads still images from disk as a Source.
func LoadImages(paths ...string) (*Frames, error) {
	frames := make([]gocv.Mat, 0, len(paths))
	for _, p := range paths {
		m := gocv.IMRead(p, gocv.IMReadColor)
		if m.Empty() {
			m.Close()
			for _, f := range frames {
				f.Close()
			}
			return nil, fmt.Errorf("%w: %s", ErrOpen, p)
		}
		frames = append(frames, m)
	}
	return NewFrames(frames...), nil
}

// Read copies the next frame into dst.
func (f *Frames) Read(dst *gocv.Mat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.next >= len(f.frames) {
		return ErrEndOfStream
	}
	f.frames[f.next].CopyTo(dst)
	f.next++
	return nil
}

// Len returns the number of frames held.
func (f *Frames) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// Rewind restarts playback from the first frame.
func (f *Frames) Rewind() {
	f.mu.Lock()
	f.next = 0
	f.mu.Unlock()
}

// Close releases every held frame.
func (f *Frames) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	for _, m := range f.frames {
		m.Close()
	}
	f.frames = nil
	return nil
}
