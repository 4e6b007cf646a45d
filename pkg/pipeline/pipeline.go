// Package pipeline runs the per-frame detection cycle: segment each color
// in priority order, clean the mask, extract contours, classify them, map
// the first qualifying centre and emit exactly one record per frame.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/capture"
	"github.com/teslashibe/go-nedvision/pkg/debug"
	"github.com/teslashibe/go-nedvision/pkg/detection"
	"github.com/teslashibe/go-nedvision/pkg/homography"
	"github.com/teslashibe/go-nedvision/pkg/perception"
	"github.com/teslashibe/go-nedvision/pkg/pubsub"
)

// Observer sees every processed frame together with the record emitted for
// it. The frame is only valid for the duration of the call.
type Observer interface {
	Observe(frame gocv.Mat, rec detection.Record)
}

// Options configures a Pipeline. Zero values take defaults.
type Options struct {
	// Ranges are scanned in order; the first color with a qualifying shape
	// wins. Defaults to perception.DefaultRanges (red, green, blue).
	Ranges []perception.ColorRange

	Classifier perception.ClassifierConfig

	// KernelSize and Iterations configure the erode/dilate cleanup.
	KernelSize int
	Iterations int

	// Mapper converts pixel centres. Nil means uncalibrated.
	Mapper *homography.Mapper

	// Sink receives one record per frame. Nil discards.
	Sink pubsub.Sink

	// Annotate draws the winning shape onto the frame before observers
	// see it.
	Annotate bool

	Observers []Observer
	Logger    *slog.Logger
}

// Result is the outcome of processing one frame.
type Result struct {
	Found     bool
	Detection detection.Detection
	Shape     perception.Shape
}

// Record converts the result to its wire form.
func (r Result) Record(calibrated bool) detection.Record {
	if !r.Found {
		return detection.EmptyRecord(calibrated)
	}
	return detection.NewRecord(r.Detection)
}

// Stats are cumulative counters.
type Stats struct {
	Frames     uint64           `json:"frames"`
	Detections uint64           `json:"detections"`
	Empty      uint64           `json:"empty"`
	Skipped    uint64           `json:"skipped"`
	SinkErrors uint64           `json:"sink_errors"`
	Last       detection.Record `json:"last"`
}

// Pipeline is safe for use by one frame loop. Stats and Last may be read
// from other goroutines.
type Pipeline struct {
	segmenter  *perception.Segmenter
	cleaner    *perception.Cleaner
	classifier *perception.Classifier
	mapper     *homography.Mapper
	sink       pubsub.Sink
	annotator  *perception.Annotator
	observers  []Observer
	logger     *slog.Logger

	frames     atomic.Uint64
	detections atomic.Uint64
	empty      atomic.Uint64
	skipped    atomic.Uint64
	sinkErrors atomic.Uint64

	lastMu sync.RWMutex
	last   detection.Record
}

// New builds a pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	ranges := opts.Ranges
	if len(ranges) == 0 {
		ranges = perception.DefaultRanges()
	}
	seg, err := perception.NewSegmenter(ranges)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	kernel, iter := opts.KernelSize, opts.Iterations
	if kernel == 0 {
		kernel = perception.DefaultKernelSize
	}
	if iter == 0 {
		iter = perception.DefaultIterations
	}

	mapper := opts.Mapper
	if mapper == nil {
		mapper = homography.Uncalibrated()
	}
	sink := opts.Sink
	if sink == nil {
		sink = pubsub.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.L()
	}

	p := &Pipeline{
		segmenter:  seg,
		cleaner:    perception.NewCleanerWithParams(kernel, iter),
		classifier: perception.NewClassifier(opts.Classifier),
		mapper:     mapper,
		sink:       sink,
		observers:  opts.Observers,
		logger:     logger.With("component", "pipeline"),
	}
	if opts.Annotate {
		p.annotator = perception.NewAnnotator()
	}
	p.last = detection.EmptyRecord(mapper.Calibrated())
	return p, nil
}

// Calibrated reports whether positions are mapped through a homography.
func (p *Pipeline) Calibrated() bool {
	return p.mapper.Calibrated()
}

// Process scans the frame and returns the first qualifying shape in color
// priority order. Finding nothing is not an error.
func (p *Pipeline) Process(frame gocv.Mat) (Result, error) {
	hsv, err := perception.ToHSV(frame)
	defer hsv.Close()
	if err != nil {
		return Result{}, err
	}

	for _, r := range p.segmenter.Ranges() {
		res, ok := p.scanColor(hsv, r)
		if ok {
			return res, nil
		}
	}
	return Result{}, nil
}

func (p *Pipeline) scanColor(hsv gocv.Mat, r perception.ColorRange) (Result, bool) {
	mask := perception.MaskFor(hsv, r)
	defer mask.Close()
	p.cleaner.Clean(&mask.Mat)

	for _, contour := range perception.ExtractContours(mask.Mat) {
		shape, ok := p.classifier.Classify(contour, r.Color)
		if !ok {
			continue
		}
		debug.FrameLog("  %s %s area=%.0f circ=%.3f centre=%v\n",
			shape.Shape, shape.Color, shape.Area, shape.Circularity, shape.Centre)

		pos, calibrated, err := p.mapper.Map(shape.Centre.X(), shape.Centre.Y())
		if err != nil {
			p.skipped.Add(1)
			p.logger.Warn("skipping candidate", "color", r.Color, "centre", shape.Centre, "error", err)
			continue
		}

		return Result{
			Found: true,
			Shape: shape,
			Detection: detection.Detection{
				Shape:       shape.Shape,
				Color:       shape.Color,
				Position:    pos,
				Calibrated:  calibrated,
				Pixel:       shape.Centre,
				Bounds:      shape.Bounds,
				Area:        shape.Area,
				Circularity: shape.Circularity,
			},
		}, true
	}
	return Result{}, false
}

// Classify returns every qualifying shape of every color without
// short-circuiting. It is used by preview tools and does not map
// coordinates.
func (p *Pipeline) Classify(frame gocv.Mat) ([]perception.Shape, error) {
	hsv, err := perception.ToHSV(frame)
	defer hsv.Close()
	if err != nil {
		return nil, err
	}

	var shapes []perception.Shape
	for _, r := range p.segmenter.Ranges() {
		mask := perception.MaskFor(hsv, r)
		p.cleaner.Clean(&mask.Mat)
		for _, contour := range perception.ExtractContours(mask.Mat) {
			if s, ok := p.classifier.Classify(contour, r.Color); ok {
				shapes = append(shapes, s)
			}
		}
		mask.Close()
	}
	return shapes, nil
}

// Step processes one frame, annotates it when enabled, emits the record and
// notifies observers. Sink failures are logged and counted, never returned.
func (p *Pipeline) Step(ctx context.Context, frame *gocv.Mat) (detection.Record, error) {
	res, err := p.Process(*frame)
	if err != nil {
		return detection.Record{}, err
	}

	rec := res.Record(p.Calibrated())
	p.frames.Add(1)
	if res.Found {
		p.detections.Add(1)
		if p.annotator != nil {
			p.annotator.Draw(frame, res.Shape)
		}
	} else {
		p.empty.Add(1)
	}

	p.lastMu.Lock()
	p.last = rec
	p.lastMu.Unlock()

	if err := p.sink.Emit(ctx, rec); err != nil {
		p.sinkErrors.Add(1)
		p.logger.Warn("publish failed", "error", err)
	}

	for _, o := range p.observers {
		o.Observe(*frame, rec)
	}
	return rec, nil
}

// Run reads frames from src until ctx is cancelled or the source ends.
// Cancellation and end of stream return nil; a read failure is returned.
func (p *Pipeline) Run(ctx context.Context, src capture.Source) error {
	frame := gocv.NewMat()
	defer frame.Close()

	p.logger.Info("detection loop started", "calibrated", p.Calibrated())
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("detection loop stopped", "frames", p.frames.Load())
			return nil
		default:
		}

		if err := src.Read(&frame); err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				p.logger.Info("end of stream", "frames", p.frames.Load())
				return nil
			}
			return fmt.Errorf("pipeline: %w", err)
		}

		if _, err := p.Step(ctx, &frame); err != nil {
			if errors.Is(err, perception.ErrEmptyFrame) {
				p.logger.Debug("skipping empty frame")
				continue
			}
			return fmt.Errorf("pipeline: %w", err)
		}
	}
}

// Last returns the most recently emitted record.
func (p *Pipeline) Last() detection.Record {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	return p.last
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Frames:     p.frames.Load(),
		Detections: p.detections.Load(),
		Empty:      p.empty.Load(),
		Skipped:    p.skipped.Load(),
		SinkErrors: p.sinkErrors.Load(),
		Last:       p.Last(),
	}
}

// Close releases the morphology kernel.
func (p *Pipeline) Close() error {
	return p.cleaner.Close()
}
