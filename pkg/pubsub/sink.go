package pubsub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-nedvision/pkg/detection"
)

// Sink receives one record per processed frame.
type Sink interface {
	Emit(ctx context.Context, rec detection.Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec detection.Record) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, rec detection.Record) error {
	return f(ctx, rec)
}

// Broadcaster is the transport a HubSink publishes through.
type Broadcaster interface {
	Publish(topic string, data []byte) error
}

// HubSink publishes enveloped records on a topic.
type HubSink struct {
	b     Broadcaster
	topic string
	seq   atomic.Uint64
}

// NewHubSink publishes on topic, or DefaultTopic when empty.
func NewHubSink(b Broadcaster, topic string) *HubSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &HubSink{b: b, topic: topic}
}

// Topic returns the publish topic.
func (s *HubSink) Topic() string {
	return s.topic
}

// Emit encodes rec and hands it to the broadcaster. Sequence numbers start
// at 1 and increase by one per call.
func (s *HubSink) Emit(ctx context.Context, rec detection.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeEnvelope(s.topic, s.seq.Add(1), rec)
	if err != nil {
		return err
	}
	if err := s.b.Publish(s.topic, data); err != nil {
		return fmt.Errorf("publish %s: %w", s.topic, err)
	}
	return nil
}

// ConsoleSink writes one human-readable line per record.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
	// Quiet suppresses repeated "waiting" lines.
	Quiet   bool
	waiting bool
}

// NewConsoleSink writes to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Emit prints rec.
func (s *ConsoleSink) Emit(_ context.Context, rec detection.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !rec.Detected() {
		if s.Quiet && s.waiting {
			return nil
		}
		s.waiting = true
	} else {
		s.waiting = false
	}
	_, err := fmt.Fprintln(s.w, rec.String())
	return err
}

// MultiSink fans a record out to several sinks. Every sink is called even
// when an earlier one fails; the errors are joined.
type MultiSink []Sink

// Emit forwards rec to each sink.
func (m MultiSink) Emit(ctx context.Context, rec detection.Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every record.
var Discard Sink = SinkFunc(func(context.Context, detection.Record) error { return nil })
