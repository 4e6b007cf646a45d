// Package web serves the vision broker: websocket subscriptions for
// detection records and annotated camera frames, plus a small status API.
package web

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/detection"
	"github.com/teslashibe/go-nedvision/pkg/hub"
	"github.com/teslashibe/go-nedvision/pkg/pipeline"
	"github.com/teslashibe/go-nedvision/pkg/pubsub"
)

// CameraTopic carries JPEG frames to /ws/camera clients.
const CameraTopic = "camera"

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"listen" json:"listen"`

	// Topic is the default subscription for /ws/sub without a query.
	Topic string `yaml:"topic" json:"topic"`

	// StreamCamera enables JPEG frames on /ws/camera.
	StreamCamera bool `yaml:"stream_camera" json:"stream_camera"`

	// StreamInterval is the minimum gap between streamed frames.
	StreamInterval time.Duration `yaml:"stream_interval" json:"stream_interval"`
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		Topic:          pubsub.DefaultTopic,
		StreamInterval: 100 * time.Millisecond,
	}
}

// StatusSource reports pipeline progress for /api/status.
type StatusSource interface {
	Stats() pipeline.Stats
	Calibrated() bool
}

// Status is the /api/status response.
type Status struct {
	Calibrated    bool           `json:"calibrado"`
	Topic         string         `json:"topic"`
	Subscribers   int            `json:"subscribers"`
	CameraClients int            `json:"camera_clients"`
	Clients       int            `json:"clients"`
	Dropped       uint64         `json:"dropped"`
	BrokerRunning bool           `json:"broker_running"`
	Uptime        string         `json:"uptime"`
	Pipeline      pipeline.Stats `json:"pipeline"`
}

// Server is the broker and status server.
type Server struct {
	app    *fiber.App
	cfg    Config
	hub    *hub.Hub
	logger *slog.Logger
	start  time.Time

	statusMu sync.RWMutex
	status   StatusSource

	frameMu   sync.Mutex
	lastFrame time.Time

	hubOnce sync.Once
}

// NewServer creates the server. A nil logger uses the global one.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = log.L()
	}
	if cfg.Topic == "" {
		cfg.Topic = pubsub.DefaultTopic
	}
	logger = logger.With("component", "web")

	s := &Server{
		cfg:    cfg,
		hub:    hub.New("broker", logger),
		logger: logger,
		start:  time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "nedvision",
		DisableStartupMessage: true,
	})

	// CORS for local dashboards
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/detection", s.handleDetection)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("topic", c.Query("topic", s.cfg.Topic))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/sub", websocket.New(s.handleSubscribeWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the broker hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// SetStatusSource attaches the pipeline whose counters /api/status reports.
func (s *Server) SetStatusSource(src StatusSource) {
	s.statusMu.Lock()
	s.status = src
	s.statusMu.Unlock()
}

func (s *Server) runHub() {
	s.hubOnce.Do(func() { go s.hub.Run() })
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	s.runHub()
	s.logger.Info("vision broker listening", "addr", s.cfg.Addr, "topic", s.cfg.Topic)
	return s.app.Listen(s.cfg.Addr)
}

// Listener serves on an existing listener and blocks until Shutdown.
func (s *Server) Listener(ln net.Listener) error {
	s.runHub()
	s.logger.Info("vision broker listening", "addr", ln.Addr().String(), "topic", s.cfg.Topic)
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine. Listen errors are sent
// on the returned channel.
func (s *Server) StartAsync() <-chan error {
	errc := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server error", "error", err)
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Publish broadcasts pre-encoded JSON on topic. It satisfies
// pubsub.Broadcaster.
func (s *Server) Publish(topic string, data []byte) error {
	return s.hub.Publish(topic, data)
}

// Observe streams the annotated frame to camera clients, rate limited by
// StreamInterval. It satisfies pipeline.Observer.
func (s *Server) Observe(frame gocv.Mat, _ detection.Record) {
	if !s.cfg.StreamCamera || s.hub.Subscribers(CameraTopic) == 0 {
		return
	}

	s.frameMu.Lock()
	now := time.Now()
	if now.Sub(s.lastFrame) < s.cfg.StreamInterval {
		s.frameMu.Unlock()
		return
	}
	s.lastFrame = now
	s.frameMu.Unlock()

	data, err := encodeJPEG(frame)
	if err != nil {
		s.logger.Warn("encode camera frame", "error", err)
		return
	}
	s.hub.BroadcastBinary(CameraTopic, data)
}

// Shutdown gracefully stops the web server and disconnects subscribers.
func (s *Server) Shutdown() error {
	s.hub.Close()
	if err := s.app.Shutdown(); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	return nil
}
