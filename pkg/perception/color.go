package perception

import (
	"fmt"

	"github.com/teslashibe/go-nedvision/pkg/detection"
	"gocv.io/x/gocv"
)

// HSV channel limits for 8-bit OpenCV images.
const (
	MaxHue        = 180
	MaxSaturation = 255
	MaxValue      = 255
)

// HSVBound is one inclusive lower/upper box in HSV space.
type HSVBound struct {
	Low  [3]float64 `yaml:"low" json:"low"`
	High [3]float64 `yaml:"high" json:"high"`
}

// Bound is a convenience constructor.
func Bound(lh, ls, lv, hh, hs, hv float64) HSVBound {
	return HSVBound{Low: [3]float64{lh, ls, lv}, High: [3]float64{hh, hs, hv}}
}

// Contains reports whether an HSV triple lies inside the bound.
func (b HSVBound) Contains(h, s, v float64) bool {
	px := [3]float64{h, s, v}
	for i := range px {
		if px[i] < b.Low[i] || px[i] > b.High[i] {
			return false
		}
	}
	return true
}

func (b HSVBound) lowScalar() gocv.Scalar {
	return gocv.NewScalar(b.Low[0], b.Low[1], b.Low[2], 0)
}

func (b HSVBound) highScalar() gocv.Scalar {
	return gocv.NewScalar(b.High[0], b.High[1], b.High[2], 0)
}

// ColorRange names a color class and the HSV bounds that select it.
// Red uses two bounds; green and blue use one.
type ColorRange struct {
	Color  detection.Color `yaml:"name" json:"name"`
	Bounds []HSVBound      `yaml:"bounds" json:"bounds"`
}

// Validate checks that the range has one or two bounds, each with
// low <= high on every channel and within the 8-bit HSV limits.
func (r ColorRange) Validate() error {
	if len(r.Bounds) == 0 || len(r.Bounds) > 2 {
		return fmt.Errorf("%w: %s has %d bounds, want 1 or 2", ErrInvalidRange, r.Color, len(r.Bounds))
	}
	limits := [3]float64{MaxHue, MaxSaturation, MaxValue}
	for i, b := range r.Bounds {
		for ch := 0; ch < 3; ch++ {
			if b.Low[ch] > b.High[ch] {
				return fmt.Errorf("%w: %s bound %d channel %d low %.0f > high %.0f",
					ErrInvalidRange, r.Color, i, ch, b.Low[ch], b.High[ch])
			}
			if b.Low[ch] < 0 || b.High[ch] > limits[ch] {
				return fmt.Errorf("%w: %s bound %d channel %d outside [0, %.0f]",
					ErrInvalidRange, r.Color, i, ch, limits[ch])
			}
		}
	}
	return nil
}

// Contains reports whether an HSV triple lies inside any of the bounds.
func (r ColorRange) Contains(h, s, v float64) bool {
	for _, b := range r.Bounds {
		if b.Contains(h, s, v) {
			return true
		}
	}
	return false
}

// DefaultRanges returns the deployed ranges in scan priority order.
func DefaultRanges() []ColorRange {
	return []ColorRange{
		{
			Color: detection.Red,
			Bounds: []HSVBound{
				Bound(0, 100, 80, 10, 255, 255),
				Bound(175, 100, 80, 180, 255, 255),
			},
		},
		{
			Color:  detection.Green,
			Bounds: []HSVBound{Bound(35, 80, 20, 90, 255, 255)},
		},
		{
			Color:  detection.Blue,
			Bounds: []HSVBound{Bound(95, 100, 50, 130, 255, 255)},
		},
	}
}

// ValidateRanges validates every range and rejects duplicate colors.
func ValidateRanges(ranges []ColorRange) error {
	if len(ranges) == 0 {
		return fmt.Errorf("%w: no color ranges configured", ErrInvalidRange)
	}
	seen := make(map[detection.Color]bool, len(ranges))
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.Color] {
			return fmt.Errorf("%w: duplicate color %s", ErrInvalidRange, r.Color)
		}
		seen[r.Color] = true
	}
	return nil
}
