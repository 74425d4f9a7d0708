// Package config loads pinchgrab settings from a JSON file. Fields omitted
// from the file keep their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultFileName is looked up in the data directory when no path is given.
const DefaultFileName = "pinchgrab.json"

// maxFileSize bounds config files.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the full service configuration.
type Config struct {
	Addr     string `json:"addr"`
	DataDir  string `json:"data_dir"`
	Database string `json:"database"`
	WebDir   string `json:"web_dir"`
	// ModelDir overrides the embedded cursor models when set.
	ModelDir string `json:"model_dir"`

	Camera   CameraConfig   `json:"camera"`
	Detector DetectorConfig `json:"detector"`
	Scene    SceneConfig    `json:"scene"`
	Controls ControlsConfig `json:"controls"`

	ShowLandmarks bool `json:"show_landmarks"`
	Panel         bool `json:"panel"`
	Tray          bool `json:"tray"`
}

// CameraConfig configures capture and the tracking loop.
type CameraConfig struct {
	Source          string   `json:"source"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Mirror          bool     `json:"mirror"`
	MotionGate      bool     `json:"motion_gate"`
	MotionThreshold float64  `json:"motion_threshold"`
	IdleFPS         int      `json:"idle_fps"`
	ActiveFPS       int      `json:"active_fps"`
	IdleTimeout     Duration `json:"idle_timeout"`
}

// DetectorConfig configures the landmark detector.
type DetectorConfig struct {
	// Mock forces the mock detector instead of MediaPipe.
	Mock                  bool     `json:"mock"`
	MaxHands              int      `json:"max_hands"`
	MinConfidence         float64  `json:"min_confidence"`
	MinTrackingConfidence float64  `json:"min_tracking_confidence"`
	IdleShutdown          Duration `json:"idle_shutdown"`
}

// SceneConfig configures the rendered scene.
type SceneConfig struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	FPS     int `json:"fps"`
	Targets int `json:"targets"`
	// Seed fixes target placement. Zero picks a random seed.
	Seed uint64 `json:"seed"`
}

// ControlsConfig tunes the interaction controller.
type ControlsConfig struct {
	Smoothing       float64 `json:"smoothing"`
	CloseThreshold  float64 `json:"close_threshold"`
	OpenThreshold   float64 `json:"open_threshold"`
	CollisionMargin float64 `json:"collision_margin"`
	ReferenceScale  float64 `json:"reference_scale"`
	BaseDistance    float64 `json:"base_distance"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:    "127.0.0.1:8765",
		DataDir: defaultDataDir(),
		WebDir:  "web",
		Camera: CameraConfig{
			Source:          "0",
			Width:           640,
			Height:          480,
			Mirror:          true,
			MotionThreshold: 1.0,
			IdleFPS:         5,
			ActiveFPS:       30,
			IdleTimeout:     Duration(2 * time.Second),
		},
		Detector: DetectorConfig{
			MaxHands:              1,
			MinConfidence:         0.5,
			MinTrackingConfidence: 0.5,
			IdleShutdown:          Duration(30 * time.Second),
		},
		Scene: SceneConfig{
			Width:   1280,
			Height:  720,
			FPS:     60,
			Targets: 3,
		},
		Controls: ControlsConfig{
			Smoothing:       0.5,
			CloseThreshold:  0.35,
			OpenThreshold:   0.55,
			CollisionMargin: 0.05,
			ReferenceScale:  0.2,
			BaseDistance:    2,
		},
		Tray: true,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pinchgrab"
	}
	return filepath.Join(home, ".pinchgrab")
}

// Load reads a JSON config file over the defaults.
// The file must have a .json extension and be under 1MB.
func Load(path string) (Config, error) {
	cfg := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns the defaults
// otherwise. An empty path means DataDir/DefaultFileName.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		path = filepath.Join(Default().DataDir, DefaultFileName)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		return fmt.Errorf("camera size must be non-negative, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.MotionThreshold < 0 || c.Camera.MotionThreshold > 100 {
		return fmt.Errorf("motion_threshold must be between 0 and 100, got %f", c.Camera.MotionThreshold)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("max_hands must be at least 1, got %d", c.Detector.MaxHands)
	}
	for name, v := range map[string]float64{
		"min_confidence":          c.Detector.MinConfidence,
		"min_tracking_confidence": c.Detector.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, v)
		}
	}
	if c.Scene.Width <= 0 || c.Scene.Height <= 0 {
		return fmt.Errorf("scene size must be positive, got %dx%d", c.Scene.Width, c.Scene.Height)
	}
	if c.Scene.Targets < 0 {
		return fmt.Errorf("targets must be non-negative, got %d", c.Scene.Targets)
	}
	if c.Controls.Smoothing <= 0 || c.Controls.Smoothing > 1 {
		return fmt.Errorf("smoothing must be in (0, 1], got %f", c.Controls.Smoothing)
	}
	if c.Controls.OpenThreshold < c.Controls.CloseThreshold {
		return fmt.Errorf("open_threshold %f must not be below close_threshold %f",
			c.Controls.OpenThreshold, c.Controls.CloseThreshold)
	}
	return nil
}

// DatabasePath returns Database, or pinchgrab.db in DataDir.
func (c Config) DatabasePath() string {
	if c.Database != "" {
		return c.Database
	}
	return filepath.Join(c.DataDir, "pinchgrab.db")
}

// Duration is a time.Duration that reads and writes as a string ("2s").
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}
