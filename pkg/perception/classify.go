package perception

import (
	"image"
	"math"

	"github.com/teslashibe/go-nedvision/pkg/detection"
)

// Classification thresholds.
const (
	DefaultMinArea         = 800.0
	DefaultCircleThreshold = 0.83
	DefaultSquareThreshold = 0.70
)

// ClassifierConfig holds the shape thresholds.
type ClassifierConfig struct {
	// MinArea rejects contours whose area is <= MinArea pixels².
	MinArea float64 `yaml:"min_area" json:"min_area"`

	// CircleThreshold: circularity above it is a circle.
	CircleThreshold float64 `yaml:"circle_threshold" json:"circle_threshold"`

	// SquareThreshold: circularity above it and up to CircleThreshold is a
	// square.
	SquareThreshold float64 `yaml:"square_threshold" json:"square_threshold"`
}

// DefaultClassifierConfig returns the deployed thresholds.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		MinArea:         DefaultMinArea,
		CircleThreshold: DefaultCircleThreshold,
		SquareThreshold: DefaultSquareThreshold,
	}
}

// Shape is a classified contour in pixel space.
type Shape struct {
	Shape       detection.Shape
	Color       detection.Color
	Contour     Contour
	Area        float64
	Perimeter   float64
	Circularity float64

	// Centre is the bounding-box centre (x + w/2, y + h/2) using integer
	// halves, as reported to robot consumers.
	Centre detection.Position
	Bounds image.Rectangle
}

// Circularity returns 4πA/P². ok is false for a zero perimeter.
func Circularity(area, perimeter float64) (c float64, ok bool) {
	if perimeter == 0 {
		return 0, false
	}
	return 4 * math.Pi * area / (perimeter * perimeter), true
}

// ClassifyCircularity maps a circularity value to a shape using the
// default thresholds.
func ClassifyCircularity(c float64) detection.Shape {
	return DefaultClassifierConfig().classify(c)
}

func (cfg ClassifierConfig) classify(c float64) detection.Shape {
	switch {
	case c > cfg.CircleThreshold:
		return detection.Circle
	case c > cfg.SquareThreshold:
		return detection.Square
	default:
		return detection.ShapeNone
	}
}

// Classifier filters and classifies contours.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a classifier. Zero fields fall back to defaults.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	def := DefaultClassifierConfig()
	if cfg.MinArea <= 0 {
		cfg.MinArea = def.MinArea
	}
	if cfg.CircleThreshold <= 0 {
		cfg.CircleThreshold = def.CircleThreshold
	}
	if cfg.SquareThreshold <= 0 {
		cfg.SquareThreshold = def.SquareThreshold
	}
	return &Classifier{cfg: cfg}
}

// Config returns the active thresholds.
func (c *Classifier) Config() ClassifierConfig {
	return c.cfg
}

// Classify returns the shape for one contour. ok is false when the contour
// is too small, degenerate or outside both circularity bands.
func (c *Classifier) Classify(contour Contour, color detection.Color) (Shape, bool) {
	area := contour.Area()
	if area <= c.cfg.MinArea {
		return Shape{}, false
	}

	perimeter := contour.Perimeter()
	circ, ok := Circularity(area, perimeter)
	if !ok {
		return Shape{}, false
	}

	kind := c.cfg.classify(circ)
	if kind == detection.ShapeNone {
		return Shape{}, false
	}

	box := contour.BoundingRect()
	return Shape{
		Shape:       kind,
		Color:       color,
		Contour:     contour,
		Area:        area,
		Perimeter:   perimeter,
		Circularity: circ,
		Centre:      BoxCentre(box),
		Bounds:      box,
	}, true
}

// BoxCentre returns (x + w/2, y + h/2) with integer division.
func BoxCentre(r image.Rectangle) detection.Position {
	w, h := r.Dx(), r.Dy()
	return detection.Position{
		float64(r.Min.X + w/2),
		float64(r.Min.Y + h/2),
	}
}
