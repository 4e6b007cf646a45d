// boardcheck - live chessboard visibility check before calibration
//
// Shows the camera with the detected inner corners drawn when the whole
// board is visible. It does not compute a homography.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/capture"
)

func main() {
	device := flag.String("camera", "0", "Camera index or video file")
	cols := flag.Int("cols", 7, "Inner corners per row")
	rows := flag.Int("rows", 4, "Inner corners per column")
	flag.Parse()

	log.Init(log.EnvLevel("info"))

	src, err := capture.Open(capture.Config{Device: *device})
	if err != nil {
		log.Error("open camera", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	window := gocv.NewWindow("Chessboard check")
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	corners := gocv.NewMat()
	defer corners.Close()

	size := image.Pt(*cols, *rows)
	green := color.RGBA{0, 255, 0, 255}
	red := color.RGBA{255, 0, 0, 255}

	for {
		if err := src.Read(&frame); err != nil {
			log.Info("source finished", "reason", err)
			return
		}
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

		found := gocv.FindChessboardCorners(gray, size, &corners,
			gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage|gocv.CalibCBFastCheck)
		if found {
			gocv.DrawChessboardCorners(&frame, size, corners, found)
			gocv.PutText(&frame, fmt.Sprintf("board %dx%d found", *cols, *rows),
				image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, green, 2)
		} else {
			gocv.PutText(&frame, "board not found", image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, red, 2)
		}

		window.IMShow(frame)
		if key := window.WaitKey(1); key == 'q' || key == 27 {
			return
		}
	}
}
