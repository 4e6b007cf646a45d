// Package config loads the nedvision service configuration from an
// optional YAML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/capture"
	"github.com/teslashibe/go-nedvision/pkg/homography"
	"github.com/teslashibe/go-nedvision/pkg/perception"
	"github.com/teslashibe/go-nedvision/pkg/web"
)

// Environment overrides.
const (
	EnvCamera      = "NEDVISION_CAMERA"
	EnvListen      = "NEDVISION_LISTEN"
	EnvCalibration = "NEDVISION_CALIBRATION"
	EnvTopic       = "NEDVISION_TOPIC"
	EnvStream      = "NEDVISION_STREAM"
	EnvArmSimURL   = "ARMSIM_URL"
	EnvLogLevel    = log.LevelEnv
)

// DefaultArmSimURL is where the arm simulator listens by default.
const DefaultArmSimURL = "http://127.0.0.1:5000"

// Morphology configures mask cleanup.
type Morphology struct {
	KernelSize int `yaml:"kernel_size" json:"kernel_size"`
	Iterations int `yaml:"iterations" json:"iterations"`
}

// Config is the full service configuration.
type Config struct {
	Camera      capture.Config              `yaml:"camera" json:"camera"`
	Calibration string                      `yaml:"calibration" json:"calibration"`
	Colors      []perception.ColorRange     `yaml:"colors" json:"colors"`
	Classifier  perception.ClassifierConfig `yaml:"classifier" json:"classifier"`
	Morphology  Morphology                  `yaml:"morphology" json:"morphology"`
	Web         web.Config                  `yaml:"web" json:"web"`

	// Console prints one line per frame to stdout.
	Console bool `yaml:"console" json:"console"`

	// Annotate draws detections on streamed frames.
	Annotate bool `yaml:"annotate" json:"annotate"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	ArmSimURL string `yaml:"armsim_url" json:"armsim_url"`
}

// DefaultConfig returns the deployed defaults.
func DefaultConfig() Config {
	return Config{
		Camera:      capture.DefaultConfig(),
		Calibration: homography.DefaultPath,
		Colors:      perception.DefaultRanges(),
		Classifier:  perception.DefaultClassifierConfig(),
		Morphology: Morphology{
			KernelSize: perception.DefaultKernelSize,
			Iterations: perception.DefaultIterations,
		},
		Web:       web.DefaultConfig(),
		Annotate:  true,
		LogLevel:  "info",
		ArmSimURL: DefaultArmSimURL,
	}
}

// Load reads path over the defaults. An empty path or a missing file
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvCamera); v != "" {
		c.Camera.Device = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Web.Addr = v
	}
	if v := os.Getenv(EnvCalibration); v != "" {
		c.Calibration = v
	}
	if v := os.Getenv(EnvTopic); v != "" {
		c.Web.Topic = v
	}
	if v := os.Getenv(EnvStream); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvStream, err)
		}
		c.Web.StreamCamera = b
	}
	if v := os.Getenv(EnvArmSimURL); v != "" {
		c.ArmSimURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the configuration before anything is opened.
func (c Config) Validate() error {
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("config: camera: %w", err)
	}
	if err := perception.ValidateRanges(c.Colors); err != nil {
		return fmt.Errorf("config: colors: %w", err)
	}
	// Zero values are rejected here because the perception package reads
	// them as "use the default".
	cl := c.Classifier
	if cl.MinArea <= 0 {
		return fmt.Errorf("config: classifier: min_area must be positive, got %v", cl.MinArea)
	}
	if cl.SquareThreshold <= 0 || cl.CircleThreshold > 1 || cl.SquareThreshold >= cl.CircleThreshold {
		return fmt.Errorf("config: classifier: thresholds must satisfy 0 < square (%v) < circle (%v) <= 1",
			cl.SquareThreshold, cl.CircleThreshold)
	}
	if c.Morphology.KernelSize < 1 || c.Morphology.Iterations < 1 {
		return fmt.Errorf("config: morphology: kernel %d iterations %d", c.Morphology.KernelSize, c.Morphology.Iterations)
	}
	if c.Web.Addr == "" {
		return fmt.Errorf("config: web: empty listen address")
	}
	if c.Web.StreamInterval < 0 {
		return fmt.Errorf("config: web: negative stream_interval")
	}
	return nil
}
