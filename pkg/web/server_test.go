package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-nedvision/pkg/detection"
	"github.com/teslashibe/go-nedvision/pkg/pipeline"
	"github.com/teslashibe/go-nedvision/pkg/pubsub"
)

type fakeStatus struct {
	stats      pipeline.Stats
	calibrated bool
}

func (f fakeStatus) Stats() pipeline.Stats { return f.stats }
func (f fakeStatus) Calibrated() bool      { return f.calibrated }

// startServer serves s on a loopback listener and returns its address.
func startServer(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go s.Listener(ln)
	t.Cleanup(func() { s.Shutdown() })
	return ln.Addr().String()
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	var conn *websocket.Conn
	var err error
	// The listener is ready immediately but fiber may still be starting.
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			t.Cleanup(func() { conn.Close() })
			return conn
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dial %s: %v", url, err)
	return nil
}

func waitSubscribers(t *testing.T, s *Server, topic string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().Subscribers(topic) != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers(%s) = %d, want %d", topic, s.Hub().Subscribers(topic), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServer_SubscribeReceivesRecords(t *testing.T) {
	s := NewServer(DefaultConfig(), nil)
	addr := startServer(t, s)

	conn := dial(t, "ws://"+addr+"/ws/sub?topic=VisionData")
	other := dial(t, "ws://"+addr+"/ws/sub?topic=Other")
	waitSubscribers(t, s, pubsub.DefaultTopic, 1)

	sink := pubsub.NewHubSink(s, "")
	rec := detection.NewRecord(detection.Detection{
		Shape:      detection.Square,
		Color:      detection.Blue,
		Position:   detection.Position{12.5, -3.25},
		Calibrated: true,
	})
	if err := sink.Emit(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.TextMessage {
		t.Errorf("message type = %d, want text", mt)
	}
	msg, err := pubsub.DecodeEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Topic != "VisionData" || msg.Seq != 1 {
		t.Errorf("envelope = %+v", msg)
	}
	got := msg.Record
	if got.Forma != "Cuadrado" || got.Color != "Azul" || !got.Calibrado || *got.Posicion != (detection.Position{12.5, -3.25}) {
		t.Errorf("record = %+v", got)
	}

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Error("subscriber to another topic received a VisionData message")
	}
}

func TestServer_CameraStream(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StreamCamera = true
	cfg.StreamInterval = 0
	s := NewServer(cfg, nil)
	addr := startServer(t, s)

	conn := dial(t, "ws://"+addr+"/ws/camera")
	waitSubscribers(t, s, CameraTopic, 1)

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 255, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	s.Observe(frame, detection.EmptyRecord(false))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Errorf("message type = %d, want binary", mt)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("payload is not a JPEG (%d bytes)", len(data))
	}
}

func TestServer_CameraDisabled(t *testing.T) {
	s := NewServer(DefaultConfig(), nil)
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()
	// No hub running and streaming off: must return without blocking.
	s.Observe(frame, detection.EmptyRecord(false))
}

func TestServer_Status(t *testing.T) {
	s := NewServer(DefaultConfig(), nil)
	s.SetStatusSource(fakeStatus{
		calibrated: true,
		stats: pipeline.Stats{
			Frames:     10,
			Detections: 4,
			Empty:      6,
			Last:       detection.EmptyRecord(true),
		},
	})

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if !st.Calibrated || st.Topic != "VisionData" || st.Pipeline.Frames != 10 || st.Pipeline.Detections != 4 {
		t.Errorf("status = %+v", st)
	}
	// Start was never called.
	if st.BrokerRunning || st.Clients != 0 || st.Dropped != 0 {
		t.Errorf("broker fields = running %v clients %d dropped %d", st.BrokerRunning, st.Clients, st.Dropped)
	}
}

func TestServer_Detection(t *testing.T) {
	s := NewServer(DefaultConfig(), nil)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/detection", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("without pipeline status = %d, want 503", resp.StatusCode)
	}

	s.SetStatusSource(fakeStatus{stats: pipeline.Stats{Last: detection.EmptyRecord(false)}})
	resp, err = s.App().Test(httptest.NewRequest("GET", "/api/detection", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"forma":"Ninguna","calibrado":false}` {
		t.Errorf("body = %s", body)
	}
}

func TestServer_RequiresUpgrade(t *testing.T) {
	s := NewServer(DefaultConfig(), nil)
	resp, err := s.App().Test(httptest.NewRequest("GET", "/ws/sub", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}
