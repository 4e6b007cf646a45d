package perception

import (
	"image"

	"gocv.io/x/gocv"
)

// Contour is an ordered closed boundary in pixel coordinates.
type Contour []image.Point

// ExtractContours finds the outer boundaries of the set regions in a
// binary mask. Nested holes are ignored and collinear points are dropped.
func ExtractContours(mask gocv.Mat) []Contour {
	if mask.Empty() {
		return nil
	}
	found := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([]Contour, 0, found.Size())
	for _, pts := range found.ToPoints() {
		if len(pts) == 0 {
			continue
		}
		contours = append(contours, Contour(pts))
	}
	return contours
}

// Area returns the enclosed area.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.ContourArea(pv)
}

// Perimeter returns the closed arc length.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.ArcLength(pv, true)
}

// BoundingRect returns the axis-aligned bounding box. The max corner is
// exclusive, matching image.Rectangle.
func (c Contour) BoundingRect() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.BoundingRect(pv)
}
