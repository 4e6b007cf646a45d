package perception

import (
	"github.com/teslashibe/go-nedvision/pkg/detection"
	"gocv.io/x/gocv"
)

// Mask is a binary 8-bit single channel image for one color class.
type Mask struct {
	Color detection.Color
	Mat   gocv.Mat
}

// Close releases the mask.
func (m *Mask) Close() error {
	return m.Mat.Close()
}

// Segmenter turns a BGR frame into per-color masks.
type Segmenter struct {
	ranges []ColorRange
}

// NewSegmenter validates the ranges and returns a segmenter that scans
// them in the given order.
func NewSegmenter(ranges []ColorRange) (*Segmenter, error) {
	if err := ValidateRanges(ranges); err != nil {
		return nil, err
	}
	cp := make([]ColorRange, len(ranges))
	for i, r := range ranges {
		cp[i] = ColorRange{Color: r.Color, Bounds: append([]HSVBound(nil), r.Bounds...)}
	}
	return &Segmenter{ranges: cp}, nil
}

// Ranges returns the configured ranges in scan order.
func (s *Segmenter) Ranges() []ColorRange {
	return s.ranges
}

// ToHSV converts a BGR frame to HSV. The caller closes the result.
func ToHSV(frame gocv.Mat) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}
	hsv := gocv.NewMat()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)
	return hsv, nil
}

// MaskFor builds the mask of one color range from an HSV image.
func MaskFor(hsv gocv.Mat, r ColorRange) Mask {
	mask := gocv.NewMat()
	for i, b := range r.Bounds {
		if i == 0 {
			gocv.InRangeWithScalar(hsv, b.lowScalar(), b.highScalar(), &mask)
			continue
		}
		part := gocv.NewMat()
		gocv.InRangeWithScalar(hsv, b.lowScalar(), b.highScalar(), &part)
		gocv.BitwiseOr(mask, part, &mask)
		part.Close()
	}
	return Mask{Color: r.Color, Mat: mask}
}

// Segment returns one mask per configured color, in scan order.
func (s *Segmenter) Segment(frame gocv.Mat) ([]Mask, error) {
	hsv, err := ToHSV(frame)
	if err != nil {
		hsv.Close()
		return nil, err
	}
	defer hsv.Close()

	masks := make([]Mask, 0, len(s.ranges))
	for _, r := range s.ranges {
		masks = append(masks, MaskFor(hsv, r))
	}
	return masks, nil
}
