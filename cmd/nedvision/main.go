// nedvision - colored shape detection for the Ned2 pick station
//
// Reads the camera, detects the first red, green or blue circle or square,
// and publishes one record per frame on the VisionData topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-nedvision/internal/config"
	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/debug"
	"github.com/teslashibe/go-nedvision/pkg/service"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	log.Init(cfg.LogLevel)

	svc, err := service.New(cfg, log.L())
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if err := svc.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		svc.Shutdown()
		os.Exit(1)
	}
	defer svc.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		svc.Shutdown()
		os.Exit(1)
	}
	log.Info("goodbye")
}

// parseFlags loads the config file, applies environment overrides, then
// applies any flags that were set explicitly.
func parseFlags(fs *flag.FlagSet, args []string) (config.Config, error) {
	configPath := fs.String("config", "nedvision.yml", "YAML configuration file (optional)")
	camera := fs.String("camera", "", "Camera index or video file")
	width := fs.Int("width", 0, "Capture width (0 = device default)")
	height := fs.Int("height", 0, "Capture height (0 = device default)")
	calibration := fs.String("calibration", "", "Homography file")
	listen := fs.String("listen", "", "Broker listen address")
	topic := fs.String("topic", "", "Publish topic")
	stream := fs.Bool("stream", false, "Stream annotated frames on /ws/camera")
	console := fs.Bool("console", false, "Print one line per frame to stdout")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	verbose := fs.Bool("debug", false, "Enable verbose debug logging")
	frames := fs.Bool("debug-frames", false, "Trace every classified contour")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "camera":
			cfg.Camera.Device = *camera
		case "width":
			cfg.Camera.Width = *width
		case "height":
			cfg.Camera.Height = *height
		case "calibration":
			cfg.Calibration = *calibration
		case "listen":
			cfg.Web.Addr = *listen
		case "topic":
			cfg.Web.Topic = *topic
		case "stream":
			cfg.Web.StreamCamera = *stream
		case "console":
			cfg.Console = *console
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	debug.Enabled = *verbose
	debug.Frames = *frames
	if *verbose && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
