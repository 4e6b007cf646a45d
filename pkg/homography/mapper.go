package homography

import (
	"math"

	"github.com/teslashibe/go-nedvision/pkg/detection"
)

// Mapper converts pixel centroids to reported positions. A Mapper without a
// matrix passes coordinates through unchanged.
type Mapper struct {
	matrix *Matrix

	// unit is matrix scaled to unit norm, used for projection.
	unit Matrix
}

// NewMapper returns a mapper for m. A nil m yields an uncalibrated mapper.
func NewMapper(m *Matrix) *Mapper {
	if m == nil {
		return &Mapper{}
	}
	return newMapper(*m)
}

func newMapper(m Matrix) *Mapper {
	unit, ok := m.normalized()
	if !ok {
		unit = m
	}
	return &Mapper{matrix: &m, unit: unit}
}

// Uncalibrated returns a pass-through mapper.
func Uncalibrated() *Mapper {
	return &Mapper{}
}

// Calibrated reports whether a matrix is loaded.
func (p *Mapper) Calibrated() bool {
	return p != nil && p.matrix != nil
}

// Matrix returns the loaded matrix, or nil.
func (p *Mapper) Matrix() *Matrix {
	if !p.Calibrated() {
		return nil
	}
	cp := *p.matrix
	return &cp
}

// Map transforms a pixel coordinate. Calibrated outputs are rounded to two
// decimal places. calibrated is false when no matrix is loaded, in which
// case the input is returned unchanged.
func (p *Mapper) Map(x, y float64) (pos detection.Position, calibrated bool, err error) {
	if !p.Calibrated() {
		return detection.Position{x, y}, false, nil
	}
	u, v, err := p.unit.Apply(x, y)
	if err != nil {
		return detection.Position{}, true, err
	}
	return detection.Position{Round2(u), Round2(v)}, true, nil
}

// Inverse returns a mapper for the opposite direction, e.g. work surface
// to pixels. An uncalibrated mapper inverts to itself.
func (p *Mapper) Inverse() (*Mapper, error) {
	if !p.Calibrated() {
		return Uncalibrated(), nil
	}
	inv, err := p.matrix.Inverse()
	if err != nil {
		return nil, err
	}
	return newMapper(inv), nil
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
