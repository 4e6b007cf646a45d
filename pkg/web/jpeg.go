package web

import (
	"fmt"

	"gocv.io/x/gocv"
)

// encodeJPEG copies the encoded bytes out of OpenCV-owned memory.
func encodeJPEG(frame gocv.Mat) ([]byte, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
