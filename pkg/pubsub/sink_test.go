package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/teslashibe/go-nedvision/pkg/detection"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	topics []string
	frames [][]byte
	err    error
}

func (b *recordingBroadcaster) Publish(topic string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.topics = append(b.topics, topic)
	b.frames = append(b.frames, data)
	return nil
}

func redCircle() detection.Record {
	return detection.NewRecord(detection.Detection{
		Shape:    detection.Circle,
		Color:    detection.Red,
		Position: detection.Position{320, 240},
	})
}

func TestHubSink_Envelope(t *testing.T) {
	b := &recordingBroadcaster{}
	s := NewHubSink(b, "")
	if s.Topic() != DefaultTopic {
		t.Fatalf("Topic() = %q, want %q", s.Topic(), DefaultTopic)
	}

	ctx := context.Background()
	if err := s.Emit(ctx, redCircle()); err != nil {
		t.Fatal(err)
	}
	if err := s.Emit(ctx, detection.EmptyRecord(true)); err != nil {
		t.Fatal(err)
	}

	if len(b.frames) != 2 {
		t.Fatalf("published %d frames, want 2", len(b.frames))
	}
	for i, topic := range b.topics {
		if topic != "VisionData" {
			t.Errorf("frame %d topic = %q", i, topic)
		}
	}

	var env Envelope
	if err := json.Unmarshal(b.frames[0], &env); err != nil {
		t.Fatal(err)
	}
	if env.Topic != "VisionData" || env.Seq != 1 {
		t.Errorf("envelope = %+v", env)
	}
	want := `{"forma":"Circulo","color":"Rojo","posicion":[320,240],"calibrado":false}`
	if string(env.Payload) != want {
		t.Errorf("payload = %s, want %s", env.Payload, want)
	}

	msg, err := DecodeEnvelope(b.frames[1])
	if err != nil {
		t.Fatal(err)
	}
	if msg.Seq != 2 || msg.Record.Detected() || !msg.Record.Calibrado {
		t.Errorf("second message = %+v", msg)
	}
}

func TestHubSink_Errors(t *testing.T) {
	boom := errors.New("boom")
	s := NewHubSink(&recordingBroadcaster{err: boom}, "custom")
	if err := s.Emit(context.Background(), redCircle()); !errors.Is(err, boom) {
		t.Errorf("Emit err = %v, want wrapped boom", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewHubSink(&recordingBroadcaster{}, "").Emit(ctx, redCircle()); !errors.Is(err, context.Canceled) {
		t.Errorf("Emit on cancelled ctx = %v", err)
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)
	s.Quiet = true
	ctx := context.Background()

	s.Emit(ctx, detection.EmptyRecord(false))
	s.Emit(ctx, detection.EmptyRecord(false))
	s.Emit(ctx, redCircle())
	s.Emit(ctx, detection.EmptyRecord(false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"... waiting for object ...",
		"Circulo Rojo at [320, 240] px",
		"... waiting for object ...",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %q, want %d", len(lines), lines, len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestMultiSink(t *testing.T) {
	var calls []string
	first := SinkFunc(func(context.Context, detection.Record) error {
		calls = append(calls, "first")
		return errors.New("first failed")
	})
	second := SinkFunc(func(context.Context, detection.Record) error {
		calls = append(calls, "second")
		return nil
	})

	err := MultiSink{first, second, Discard}.Emit(context.Background(), redCircle())
	if err == nil || !strings.Contains(err.Error(), "first failed") {
		t.Errorf("err = %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("calls = %v, want both sinks called", calls)
	}

	if err := (MultiSink{}).Emit(context.Background(), redCircle()); err != nil {
		t.Errorf("empty MultiSink err = %v", err)
	}
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	for _, in := range []string{
		`not json`,
		`{"topic":"VisionData","seq":1,"payload":{}}`,
	} {
		if _, err := DecodeEnvelope([]byte(in)); err == nil {
			t.Errorf("DecodeEnvelope(%s) should fail", in)
		}
	}
}
