package armsim

import (
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-nedvision/internal/log"
)

// DefaultAddr is where viewers expect the simulator.
const DefaultAddr = "127.0.0.1:5000"

// State is the wire form of the joint state.
type State struct {
	Joints []float64 `json:"joints"`
}

func stateOf(j Joints) State {
	return State{Joints: append([]float64(nil), j[:]...)}
}

// Server exposes a Sim over HTTP.
type Server struct {
	app    *fiber.App
	sim    *Sim
	logger *slog.Logger

	// MoveDuration is used by /home and /rest.
	MoveDuration time.Duration
}

// NewServer builds the HTTP API for sim. A nil logger uses the global one.
func NewServer(sim *Sim, logger *slog.Logger) *Server {
	if logger == nil {
		logger = log.L()
	}
	s := &Server{
		sim:          sim,
		logger:       logger.With("component", "armsim-http"),
		MoveDuration: DefaultMoveDuration,
	}

	app := fiber.New(fiber.Config{
		AppName:               "armsim",
		DisableStartupMessage: true,
	})

	app.Get("/get_state", s.handleGetState)
	app.Post("/home", s.handleMove("Home", HomePose))
	app.Post("/rest", s.handleMove("Descanso", RestPose))

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("arm simulator listening", "addr", addr)
	return s.app.Listen(addr)
}

// Listener serves on ln until Shutdown.
func (s *Server) Listener(ln net.Listener) error {
	s.logger.Info("arm simulator listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown stops the server and any move in progress.
func (s *Server) Shutdown() error {
	s.sim.Stop()
	return s.app.Shutdown()
}

// handleGetState returns the current joints, polled by viewers every frame
func (s *Server) handleGetState(c *fiber.Ctx) error {
	return c.JSON(stateOf(s.sim.State()))
}

// handleMove starts a move in the background and answers immediately
func (s *Server) handleMove(name string, pose Joints) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.logger.Info("move requested", "pose", name)
		s.sim.MoveTo(pose, s.MoveDuration)
		return c.Status(fiber.StatusOK).SendString("OK: Moviendo a " + name)
	}
}

// handleStateWS pushes the joint state whenever it changes, at most once
// per step
func (s *Server) handleStateWS(c *websocket.Conn) {
	ticker := time.NewTicker(StepInterval)
	defer ticker.Stop()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var sent uint64
	first := true
	for {
		if v := s.sim.Version(); first || v != sent {
			if err := c.WriteJSON(stateOf(s.sim.State())); err != nil {
				return
			}
			sent, first = v, false
		}
		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}
