package perception

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Annotator draws classified shapes onto a frame for display. It never
// changes the classification result.
type Annotator struct {
	Thickness int
	FontScale float64
}

// NewAnnotator returns an annotator with the display defaults.
func NewAnnotator() *Annotator {
	return &Annotator{Thickness: 3, FontScale: 0.7}
}

// Draw outlines the contour and writes "<shape> <color>" above its box.
func (a *Annotator) Draw(frame *gocv.Mat, s Shape) {
	if frame == nil || frame.Empty() || len(s.Contour) == 0 {
		return
	}
	c := s.Color.RGBA()

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{s.Contour})
	defer pv.Close()
	gocv.DrawContours(frame, pv, 0, c, a.Thickness)

	label := s.Shape.String() + " " + s.Color.String()
	gocv.PutText(frame, label, image.Pt(s.Bounds.Min.X, s.Bounds.Min.Y-10),
		gocv.FontHersheySimplex, a.FontScale, c, 2)
}

// Status writes a single status line in the top-left corner.
func (a *Annotator) Status(frame *gocv.Mat, text string, c color.RGBA) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.PutText(frame, text, image.Pt(10, 30), gocv.FontHersheySimplex, 1, c, 2)
}
