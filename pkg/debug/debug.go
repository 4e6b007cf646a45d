// Package debug provides global debug logging flags
package debug

import (
	"fmt"
	"io"
	"os"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame pipeline traces are shown (every
// contour with its area and circularity). Very verbose at camera rates.
var Frames bool

// Output receives debug lines.
var Output io.Writer = os.Stderr

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Fprintf(Output, format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Fprintln(Output, msg)
	}
}

// FrameLog prints a message only if frame tracing is enabled
func FrameLog(format string, args ...interface{}) {
	if Frames {
		fmt.Fprintf(Output, format, args...)
	}
}
