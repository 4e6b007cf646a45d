// Package capture provides frame sources for the perception pipeline.
//
// A Source fills a caller-owned gocv.Mat on each Read so the loop can reuse
// one buffer for the whole run.
package capture

import (
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Source delivers BGR frames.
type Source interface {
	// Read blocks until the next frame is available and copies it into dst.
	Read(dst *gocv.Mat) error
	Close() error
}

// Config selects and sizes a capture device.
type Config struct {
	// Device is a camera index ("0") or a video file path.
	Device string `yaml:"device" json:"device"`
	// Width and Height request a capture resolution. Zero keeps the
	// device default.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// DefaultConfig opens the first camera at its native resolution.
func DefaultConfig() Config {
	return Config{Device: "0"}
}

// Validate checks that the configuration can be opened.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("%w: empty device", ErrOpen)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: negative resolution %dx%d", ErrOpen, c.Width, c.Height)
	}
	return nil
}

// IsCamera reports whether Device names a camera index.
func (c Config) IsCamera() bool {
	_, err := strconv.Atoi(c.Device)
	return err == nil
}

// Device wraps a gocv.VideoCapture. Cameras and video files share the
// implementation and differ only in how a failed read is reported.
type Device struct {
	cfg    Config
	vc     *gocv.VideoCapture
	live   bool
	mu     sync.Mutex
	closed bool
}

// Open opens the camera or file named by cfg.Device.
func Open(cfg Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var target interface{} = cfg.Device
	live := cfg.IsCamera()
	if live {
		id, _ := strconv.Atoi(cfg.Device)
		target = id
	}

	vc, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpen, cfg.Device)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	return &Device{cfg: cfg, vc: vc, live: live}, nil
}

// Read grabs the next frame. A camera that stops delivering returns
// ErrRead; a file that runs out returns ErrEndOfStream.
func (d *Device) Read(dst *gocv.Mat) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if ok := d.vc.Read(dst); !ok || dst.Empty() {
		if d.live {
			return fmt.Errorf("%w: device %s", ErrRead, d.cfg.Device)
		}
		return ErrEndOfStream
	}
	return nil
}

// Live reports whether the device is a camera.
func (d *Device) Live() bool {
	return d.live
}

// Size returns the negotiated frame size.
func (d *Device) Size() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(d.vc.Get(gocv.VideoCaptureFrameWidth)), int(d.vc.Get(gocv.VideoCaptureFrameHeight))
}

// Close releases the device. It is safe to call more than once.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.vc.Close()
}
