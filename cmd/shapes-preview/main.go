// shapes-preview - live window showing every classified shape
//
// Display-only tool for tuning color ranges and lighting. Every circle and
// square of every color is outlined and labelled; nothing is published.
// Press q or Esc to quit.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-nedvision/internal/config"
	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/capture"
	"github.com/teslashibe/go-nedvision/pkg/perception"
	"github.com/teslashibe/go-nedvision/pkg/pipeline"
)

func main() {
	configPath := flag.String("config", "nedvision.yml", "YAML configuration file (optional)")
	camera := flag.String("camera", "", "Camera index or video file (overrides config)")
	images := flag.Bool("images", false, "Treat remaining arguments as still images; any key shows the next one")
	flag.Parse()

	log.Init(log.EnvLevel("info"))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config", "error", err)
		os.Exit(2)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Error("config", "error", err)
		os.Exit(2)
	}
	if *camera != "" {
		cfg.Camera.Device = *camera
	}

	var (
		src    capture.Source
		stills *capture.Frames
	)
	if *images {
		stills, err = capture.LoadImages(flag.Args()...)
		src = stills
	} else {
		src, err = capture.Open(cfg.Camera)
	}
	if err != nil {
		log.Error("open source", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	pipe, err := pipeline.New(pipeline.Options{
		Ranges:     cfg.Colors,
		Classifier: cfg.Classifier,
		KernelSize: cfg.Morphology.KernelSize,
		Iterations: cfg.Morphology.Iterations,
		Logger:     log.L(),
	})
	if err != nil {
		log.Error("pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Close()

	window := gocv.NewWindow("Deteccion de formas")
	defer window.Close()

	annotator := perception.NewAnnotator()
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if err := src.Read(&frame); err != nil {
			if stills != nil && stills.Len() > 0 {
				// Cycle through the images again.
				stills.Rewind()
				continue
			}
			log.Info("source finished", "reason", err)
			return
		}

		shapes, err := pipe.Classify(frame)
		if err != nil {
			continue
		}
		for _, s := range shapes {
			annotator.Draw(&frame, s)
			fmt.Printf("%s %s centre=%v circularity=%.3f area=%.0f\n",
				s.Shape, s.Color, s.Centre, s.Circularity, s.Area)
		}
		annotator.Status(&frame, fmt.Sprintf("%d shapes", len(shapes)), color.RGBA{255, 255, 255, 255})

		window.IMShow(frame)
		wait := 1
		if *images {
			wait = 0
		}
		if key := window.WaitKey(wait); key == 'q' || key == 27 {
			return
		}
	}
}
