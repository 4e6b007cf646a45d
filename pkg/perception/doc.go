// Package perception implements the colored-shape detection stages that run
// on every captured frame.
//
// # Stages
//
//  1. Segmenter: BGR to HSV conversion and one binary mask per color class.
//     Colors whose hue wraps around (red) are described by two disjoint
//     bounds whose masks are merged with a pixel-wise OR.
//  2. Cleaner: two erosions followed by two dilations with a 3x3
//     rectangular structuring element.
//  3. ExtractContours: external boundaries only, with collinear points
//     removed.
//  4. Classifier: area filter, circularity 4πA/P² and the circle/square bands.
//
// # HSV conventions
//
// Bounds follow OpenCV's 8-bit HSV layout: hue in [0, 180], saturation and
// value in [0, 255].
//
// # Ownership
//
// Every gocv.Mat returned by this package must be closed by the caller.
package perception
