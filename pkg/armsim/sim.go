// Package armsim simulates the joint state of a six-axis arm so that a 3D
// viewer can be driven without hardware. Moves are linear joint-space
// interpolations stepped every 50 ms.
package armsim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-nedvision/internal/log"
)

// NumJoints is the number of simulated axes.
const NumJoints = 6

// Joints holds one angle per axis, in degrees.
type Joints [NumJoints]float64

// Named poses.
var (
	HomePose = Joints{0, 0, 0, 0, -90, 0}
	RestPose = Joints{0, 45, -90, 0, 0, 0}
)

const (
	// StepInterval is the time between interpolation steps (20 Hz).
	StepInterval = 50 * time.Millisecond

	// DefaultMoveDuration is used by the named-pose endpoints.
	DefaultMoveDuration = 2 * time.Second
)

// Steps returns how many interpolation steps a move of d takes.
func Steps(d time.Duration) int {
	return int(d / StepInterval)
}

// Lerp interpolates each joint. t is clamped to [0, 1].
func Lerp(start, end Joints, t float64) Joints {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	var out Joints
	for i := range out {
		out[i] = start[i] + (end[i]-start[i])*t
	}
	return out
}

// Sim holds the simulated joint state. It is safe for concurrent use.
type Sim struct {
	logger *slog.Logger

	mu      sync.RWMutex
	joints  Joints
	version uint64
	target  *Joints

	moveMu sync.Mutex
	cancel context.CancelFunc

	// tick is shortened in tests.
	tick time.Duration
}

// New returns a simulator with every joint at zero.
func New(logger *slog.Logger) *Sim {
	if logger == nil {
		logger = log.L()
	}
	return &Sim{logger: logger.With("component", "armsim"), tick: StepInterval}
}

// State returns the current joint angles.
func (s *Sim) State() Joints {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joints
}

// Version increases every time the state changes.
func (s *Sim) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Moving reports whether a move is in progress.
func (s *Sim) Moving() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target != nil
}

// set applies j unless the move owning ctx has been superseded.
func (s *Sim) set(ctx context.Context, j Joints) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	s.joints = j
	s.version++
}

// MoveTo starts a move to target over duration and returns immediately.
// A move already in progress is abandoned at its current position. A
// duration shorter than one step jumps straight to target. The returned
// channel closes when the move finishes or is superseded.
func (s *Sim) MoveTo(target Joints, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})

	s.moveMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.moveMu.Unlock()

	start := s.State()
	steps := Steps(duration)

	s.mu.Lock()
	t := target
	s.target = &t
	s.mu.Unlock()

	if steps == 0 {
		s.finish(ctx, target)
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		for i := 1; i <= steps; i++ {
			s.set(ctx, Lerp(start, target, float64(i)/float64(steps)))
			if i == steps {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
		s.finish(ctx, target)
	}()
	return done
}

func (s *Sim) finish(ctx context.Context, target Joints) {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.joints = target
	s.version++
	s.target = nil
	s.mu.Unlock()
	s.logger.Info("move complete", "joints", target[:])
}

// Stop abandons any move in progress.
func (s *Sim) Stop() {
	s.moveMu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.moveMu.Unlock()

	s.mu.Lock()
	s.target = nil
	s.mu.Unlock()
}
