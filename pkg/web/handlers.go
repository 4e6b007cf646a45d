package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-nedvision/pkg/hub"
)

// handleStatus returns broker and pipeline counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := Status{
		Topic:         s.cfg.Topic,
		Subscribers:   s.hub.Subscribers(s.cfg.Topic),
		CameraClients: s.hub.Subscribers(CameraTopic),
		Clients:       s.hub.ClientCount(),
		Dropped:       s.hub.Dropped(),
		BrokerRunning: s.hub.IsRunning(),
		Uptime:        time.Since(s.start).Round(time.Second).String(),
	}
	s.statusMu.RLock()
	if s.status != nil {
		st.Calibrated = s.status.Calibrated()
		st.Pipeline = s.status.Stats()
	}
	s.statusMu.RUnlock()
	return c.JSON(st)
}

// handleDetection returns the most recent record
func (s *Server) handleDetection(c *fiber.Ctx) error {
	s.statusMu.RLock()
	src := s.status
	s.statusMu.RUnlock()
	if src == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "pipeline not running",
		})
	}
	return c.JSON(src.Stats().Last)
}

// handleSubscribeWS streams records for the requested topic prefix
func (s *Server) handleSubscribeWS(c *websocket.Conn) {
	topic, _ := c.Locals("topic").(string)
	hub.NewClient(s.hub, c, topic).Run()
}

// handleCameraWS streams annotated JPEG frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.hub, c, CameraTopic).Run()
}
