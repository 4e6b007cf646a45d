package perception

import (
	"image"
	"math"
	"testing"

	"github.com/teslashibe/go-nedvision/pkg/detection"
)

const circTolerance = 1e-9

func scaleContour(c Contour, k int) Contour {
	out := make(Contour, len(c))
	for i, p := range c {
		out[i] = image.Pt(p.X*k, p.Y*k)
	}
	return out
}

func circularityOf(c Contour) float64 {
	v, _ := Circularity(c.Area(), c.Perimeter())
	return v
}

func TestCircularity_ZeroPerimeter(t *testing.T) {
	if _, ok := Circularity(100, 0); ok {
		t.Error("zero perimeter must be reported as degenerate")
	}
}

func TestCircularity_PerfectShapes(t *testing.T) {
	// Unit circle: 4π·πr² / (2πr)² = 1.
	c, ok := Circularity(math.Pi, 2*math.Pi)
	if !ok || math.Abs(c-1) > circTolerance {
		t.Errorf("circle circularity: got %v, want 1", c)
	}

	// Square of side s: 4π·s² / (4s)² = π/4.
	c, _ = Circularity(100, 40)
	if math.Abs(c-math.Pi/4) > circTolerance {
		t.Errorf("square circularity: got %v, want %v", c, math.Pi/4)
	}
}

func TestCircularity_ScaleInvariant(t *testing.T) {
	shapes := map[string]Contour{
		"circle": polygonCircle(0, 0, 50, 64),
		"square": {{0, 0}, {40, 0}, {40, 40}, {0, 40}},
		"rect":   {{0, 0}, {90, 0}, {90, 30}, {0, 30}},
	}

	for name, base := range shapes {
		t.Run(name, func(t *testing.T) {
			want := circularityOf(base)
			for _, k := range []int{2, 3, 7} {
				got := circularityOf(scaleContour(base, k))
				if math.Abs(got-want) > 1e-6 {
					t.Errorf("scale %d: circularity %v, want %v", k, got, want)
				}
			}
		})
	}
}

func TestClassifyCircularity(t *testing.T) {
	tests := []struct {
		c    float64
		want detection.Shape
	}{
		{1.0, detection.Circle},
		{0.84, detection.Circle},
		{0.83, detection.Square},
		{math.Pi / 4, detection.Square},
		{0.71, detection.Square},
		{0.70, detection.ShapeNone},
		{0.2, detection.ShapeNone},
	}
	for _, tt := range tests {
		if got := ClassifyCircularity(tt.c); got != tt.want {
			t.Errorf("ClassifyCircularity(%v) = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestClassifier_Circle(t *testing.T) {
	cls := NewClassifier(DefaultClassifierConfig())
	contour := polygonCircle(200, 150, 100, 64)

	s, ok := cls.Classify(contour, detection.Red)
	if !ok {
		t.Fatal("large circle should classify")
	}
	if s.Shape != detection.Circle {
		t.Errorf("shape: got %v (circularity %.3f), want Circulo", s.Shape, s.Circularity)
	}
	if s.Circularity < DefaultCircleThreshold {
		t.Errorf("circularity %.3f should be >= %.2f", s.Circularity, DefaultCircleThreshold)
	}
	if s.Color != detection.Red {
		t.Errorf("color: got %v", s.Color)
	}
}

func TestClassifier_Square(t *testing.T) {
	cls := NewClassifier(DefaultClassifierConfig())
	contour := Contour{{10, 10}, {110, 10}, {110, 110}, {10, 110}}

	s, ok := cls.Classify(contour, detection.Blue)
	if !ok {
		t.Fatal("square should classify")
	}
	if s.Shape != detection.Square {
		t.Errorf("shape: got %v, want Cuadrado", s.Shape)
	}
	if s.Circularity <= DefaultSquareThreshold || s.Circularity > DefaultCircleThreshold {
		t.Errorf("circularity %.3f outside square band", s.Circularity)
	}
	// Bounding box is 101x101 starting at 10: centre 10 + 101/2 = 60.
	if s.Centre != (detection.Position{60, 60}) {
		t.Errorf("centre: got %v, want [60 60]", s.Centre)
	}
	if s.Bounds != image.Rect(10, 10, 111, 111) {
		t.Errorf("bounds: got %v", s.Bounds)
	}
}

func TestClassifier_MinArea(t *testing.T) {
	cls := NewClassifier(DefaultClassifierConfig())

	tests := map[string]Contour{
		"small_circle":  polygonCircle(50, 50, 15, 32),
		"small_square":  {{0, 0}, {20, 0}, {20, 20}, {0, 20}},
		"exactly_800":   {{0, 0}, {40, 0}, {40, 20}, {0, 20}},
		"degenerate":    {{0, 0}, {0, 0}, {0, 0}},
		"single_point":  {{5, 5}},
		"straight_line": {{0, 0}, {100, 0}},
	}
	for name, contour := range tests {
		t.Run(name, func(t *testing.T) {
			if _, ok := cls.Classify(contour, detection.Green); ok {
				t.Errorf("contour with area %.0f must not classify", contour.Area())
			}
		})
	}
}

func TestClassifier_Elongated(t *testing.T) {
	cls := NewClassifier(DefaultClassifierConfig())
	contour := Contour{{0, 0}, {200, 0}, {200, 10}, {0, 10}}

	if s, ok := cls.Classify(contour, detection.Green); ok {
		t.Errorf("thin bar should be unclassified, got %v (%.3f)", s.Shape, s.Circularity)
	}
}

func TestNewClassifier_Defaults(t *testing.T) {
	cfg := NewClassifier(ClassifierConfig{}).Config()
	if cfg != DefaultClassifierConfig() {
		t.Errorf("zero config should fall back to defaults, got %+v", cfg)
	}
}

func TestBoxCentre(t *testing.T) {
	tests := []struct {
		r    image.Rectangle
		want detection.Position
	}{
		{image.Rect(0, 0, 10, 10), detection.Position{5, 5}},
		{image.Rect(75, 55, 126, 106), detection.Position{100, 80}},
		{image.Rect(3, 4, 8, 7), detection.Position{5, 5}},
	}
	for _, tt := range tests {
		if got := BoxCentre(tt.r); got != tt.want {
			t.Errorf("BoxCentre(%v) = %v, want %v", tt.r, got, tt.want)
		}
	}
}
