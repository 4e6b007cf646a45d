// Package service wires configuration, calibration, capture, the detection
// pipeline and the broker into the nedvision server.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/teslashibe/go-nedvision/internal/config"
	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/capture"
	"github.com/teslashibe/go-nedvision/pkg/homography"
	"github.com/teslashibe/go-nedvision/pkg/pipeline"
	"github.com/teslashibe/go-nedvision/pkg/pubsub"
	"github.com/teslashibe/go-nedvision/pkg/web"
)

// Service is the vision server.
type Service struct {
	cfg    config.Config
	logger *slog.Logger

	// Source overrides the configured camera when set before Init.
	Source capture.Source

	// Stdout receives console lines when cfg.Console is set.
	Stdout io.Writer

	mapper *homography.Mapper
	pipe   *pipeline.Pipeline
	web    *web.Server
}

// New validates cfg. Nothing is opened until Init.
func New(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.L()
	}
	return &Service{cfg: cfg, logger: logger, Stdout: os.Stdout}, nil
}

// Init loads calibration, opens the camera and builds the pipeline and
// broker. A missing calibration file is not an error.
func (s *Service) Init() error {
	mapper, err := homography.LoadMapper(s.cfg.Calibration)
	switch {
	case errors.Is(err, homography.ErrNotFound):
		s.logger.Warn("calibration not found, publishing pixel coordinates", "path", s.cfg.Calibration)
	case err != nil:
		return fmt.Errorf("load calibration: %w", err)
	default:
		s.logger.Info("calibration loaded", "path", s.cfg.Calibration)
	}
	s.mapper = mapper

	if s.Source == nil {
		dev, err := capture.Open(s.cfg.Camera)
		if err != nil {
			return err
		}
		w, h := dev.Size()
		s.logger.Info("capture opened", "device", s.cfg.Camera.Device, "live", dev.Live(), "width", w, "height", h)
		s.Source = dev
	}

	s.web = web.NewServer(s.cfg.Web, s.logger)

	sinks := pubsub.MultiSink{pubsub.NewHubSink(s.web, s.cfg.Web.Topic)}
	if s.cfg.Console {
		cs := pubsub.NewConsoleSink(s.Stdout)
		cs.Quiet = true
		sinks = append(sinks, cs)
	}

	pipe, err := pipeline.New(pipeline.Options{
		Ranges:     s.cfg.Colors,
		Classifier: s.cfg.Classifier,
		KernelSize: s.cfg.Morphology.KernelSize,
		Iterations: s.cfg.Morphology.Iterations,
		Mapper:     mapper,
		Sink:       sinks,
		Annotate:   s.cfg.Annotate && s.cfg.Web.StreamCamera,
		Observers:  []pipeline.Observer{s.web},
		Logger:     s.logger,
	})
	if err != nil {
		return err
	}
	s.pipe = pipe
	s.web.SetStatusSource(pipe)
	return nil
}

// Pipeline returns the detection pipeline, valid after Init.
func (s *Service) Pipeline() *pipeline.Pipeline {
	return s.pipe
}

// Calibrated reports whether a homography was loaded.
func (s *Service) Calibrated() bool {
	return s.mapper.Calibrated()
}

// Run serves the broker and runs the detection loop until ctx is
// cancelled, the source ends or something fails.
func (s *Service) Run(ctx context.Context) error {
	if s.pipe == nil {
		return errors.New("service: Run before Init")
	}
	webErr := s.web.StartAsync()

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.pipe.Run(ctx, s.Source) }()

	select {
	case err := <-loopErr:
		return err
	case err := <-webErr:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return <-loopErr
	}
}

// Shutdown stops the broker and releases the camera and pipeline.
func (s *Service) Shutdown() error {
	var errs []error
	if s.web != nil {
		errs = append(errs, s.web.Shutdown())
	}
	if s.Source != nil {
		errs = append(errs, s.Source.Close())
	}
	if s.pipe != nil {
		errs = append(errs, s.pipe.Close())
	}
	return errors.Join(errs...)
}
