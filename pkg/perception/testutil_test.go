package perception

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Colors used to paint synthetic frames.
var (
	rgbRed   = color.RGBA{255, 0, 0, 255}
	rgbGreen = color.RGBA{0, 255, 0, 255}
	rgbBlue  = color.RGBA{0, 0, 255, 255}
)

func scalarOf(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

// blankFrame creates a black BGR frame.
func blankFrame(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
}

// solidFrame creates a BGR frame filled with one color.
func solidFrame(width, height int, c color.RGBA) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(scalarOf(c), height, width, gocv.MatTypeCV8UC3)
}

// drawDisc paints a filled circle.
func drawDisc(frame *gocv.Mat, cx, cy, radius int, c color.RGBA) {
	gocv.Circle(frame, image.Pt(cx, cy), radius, c, -1)
}

// drawBox fills exactly the pixels of r (max corner exclusive).
func drawBox(frame *gocv.Mat, r image.Rectangle, c color.RGBA) {
	roi := frame.Region(r)
	defer roi.Close()
	roi.SetTo(scalarOf(c))
}

// polygonCircle returns a closed polygon approximating a circle.
func polygonCircle(cx, cy, radius, vertices int) Contour {
	pts := make(Contour, vertices)
	for i := 0; i < vertices; i++ {
		theta := 2 * math.Pi * float64(i) / float64(vertices)
		pts[i] = image.Pt(
			cx+int(math.Round(float64(radius)*math.Cos(theta))),
			cy+int(math.Round(float64(radius)*math.Sin(theta))),
		)
	}
	return pts
}
