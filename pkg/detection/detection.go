// Package detection defines the shape detection result produced by the
// perception pipeline and the record that is published to subscribers.
package detection

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Shape is the geometric class assigned to a contour.
type Shape int

const (
	// ShapeNone means no shape was classified.
	ShapeNone Shape = iota
	// Circle is a contour with circularity above the circle threshold.
	Circle
	// Square is a contour in the square circularity band.
	Square
)

// String returns the wire name used in published records.
func (s Shape) String() string {
	switch s {
	case Circle:
		return "Circulo"
	case Square:
		return "Cuadrado"
	default:
		return NoneLabel
	}
}

// NoneLabel is the "forma" value published when nothing was detected.
const NoneLabel = "Ninguna"

// Color is one of the segmented color classes.
type Color int

const (
	Red Color = iota
	Green
	Blue
)

// Colors lists the classes in scan priority order.
var Colors = []Color{Red, Green, Blue}

// String returns the wire name used in published records.
func (c Color) String() string {
	switch c {
	case Red:
		return "Rojo"
	case Green:
		return "Verde"
	case Blue:
		return "Azul"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// RGBA returns the drawing color for annotations.
func (c Color) RGBA() color.RGBA {
	switch c {
	case Red:
		return color.RGBA{255, 0, 0, 255}
	case Green:
		return color.RGBA{0, 255, 0, 255}
	case Blue:
		return color.RGBA{0, 0, 255, 255}
	default:
		return color.RGBA{255, 255, 255, 255}
	}
}

// ParseColor accepts English or Spanish names, case-insensitive.
func ParseColor(name string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "red", "rojo":
		return Red, nil
	case "green", "verde":
		return Green, nil
	case "blue", "azul":
		return Blue, nil
	}
	return 0, fmt.Errorf("unknown color %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	switch c {
	case Red:
		return []byte("red"), nil
	case Green:
		return []byte("green"), nil
	case Blue:
		return []byte("blue"), nil
	}
	return nil, fmt.Errorf("unknown color %d", int(c))
}

// UnmarshalText implements encoding.TextUnmarshaler so colors can be named
// in YAML and JSON configuration.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Position is a planar coordinate, either in pixels or in calibrated
// work-surface units.
type Position [2]float64

// X returns the first coordinate.
func (p Position) X() float64 { return p[0] }

// Y returns the second coordinate.
func (p Position) Y() float64 { return p[1] }

// Detection is one classified shape in one frame.
type Detection struct {
	Shape Shape
	Color Color

	// Position is the reported coordinate. It equals Pixel when Calibrated
	// is false.
	Position   Position
	Calibrated bool

	// Pixel is the bounding-box centre in image coordinates.
	Pixel Position

	// Bounds is the axis-aligned bounding box of the contour.
	Bounds image.Rectangle

	Area        float64
	Circularity float64
}

// Label returns the annotation text, e.g. "Circulo Rojo".
func (d Detection) Label() string {
	return d.Shape.String() + " " + d.Color.String()
}
