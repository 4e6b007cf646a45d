package perception

import (
	"image"

	"gocv.io/x/gocv"
)

// Morphology defaults.
const (
	DefaultKernelSize = 3
	DefaultIterations = 2
)

// Cleaner removes speckle noise with erosion and closes small gaps with
// dilation.
type Cleaner struct {
	kernel     gocv.Mat
	iterations int
}

// NewCleaner creates a cleaner with the default 3x3 rectangular kernel and
// two iterations of each operation.
func NewCleaner() *Cleaner {
	return NewCleanerWithParams(DefaultKernelSize, DefaultIterations)
}

// NewCleanerWithParams creates a cleaner with a custom kernel size and
// iteration count.
func NewCleanerWithParams(kernelSize, iterations int) *Cleaner {
	if kernelSize < 1 {
		kernelSize = DefaultKernelSize
	}
	if iterations < 0 {
		iterations = DefaultIterations
	}
	return &Cleaner{
		kernel:     gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize)),
		iterations: iterations,
	}
}

// Clean erodes then dilates the mask in place.
func (c *Cleaner) Clean(mask *gocv.Mat) {
	for i := 0; i < c.iterations; i++ {
		gocv.Erode(*mask, mask, c.kernel)
	}
	for i := 0; i < c.iterations; i++ {
		gocv.Dilate(*mask, mask, c.kernel)
	}
}

// Close releases the structuring element.
func (c *Cleaner) Close() error {
	return c.kernel.Close()
}
