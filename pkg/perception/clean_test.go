package perception

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

var (
	white      = color.RGBA{255, 255, 255, 255}
	blackColor = color.RGBA{0, 0, 0, 0}
)

func blankMask(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8U)
}

func TestCleaner_RemovesSpeckle(t *testing.T) {
	c := NewCleaner()
	defer c.Close()

	mask := blankMask(100, 100)
	defer mask.Close()
	mask.SetUCharAt(10, 10, 255)
	mask.SetUCharAt(50, 70, 255)
	drawBox(&mask, image.Rect(80, 80, 82, 82), white)

	c.Clean(&mask)

	if n := gocv.CountNonZero(mask); n != 0 {
		t.Errorf("speckle should be removed, %d pixels remain", n)
	}
}

func TestCleaner_PreservesBlock(t *testing.T) {
	c := NewCleaner()
	defer c.Close()

	mask := blankMask(100, 100)
	defer mask.Close()
	drawBox(&mask, image.Rect(30, 30, 70, 70), white)
	before := gocv.CountNonZero(mask)

	c.Clean(&mask)

	if after := gocv.CountNonZero(mask); after != before {
		t.Errorf("block area changed: before %d, after %d", before, after)
	}
	if mask.GetUCharAt(30, 30) != 255 || mask.GetUCharAt(69, 69) != 255 {
		t.Error("block corners should survive erode+dilate")
	}
}

func TestCleanerWithParams_ZeroIterations(t *testing.T) {
	c := NewCleanerWithParams(3, 0)
	defer c.Close()

	mask := blankMask(10, 10)
	defer mask.Close()
	mask.SetUCharAt(5, 5, 255)

	c.Clean(&mask)

	if gocv.CountNonZero(mask) != 1 {
		t.Error("zero iterations should leave the mask unchanged")
	}
}
