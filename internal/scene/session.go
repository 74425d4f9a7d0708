package scene

import (
	"context"
	"errors"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidSize is returned for non-positive viewport dimensions.
var ErrInvalidSize = errors.New("invalid viewport size")

// Config holds the session bootstrap parameters.
type Config struct {
	Width          int
	Height         int
	FPS            int
	FOV            float64
	Near           float64
	Far            float64
	CameraPosition r3.Vec
}

// DefaultConfig returns a 1280x720 session at 60 FPS.
func DefaultConfig() Config {
	return Config{
		Width:          1280,
		Height:         720,
		FPS:            DefaultFPS,
		FOV:            45,
		Near:           0.01,
		Far:            1000,
		CameraPosition: r3.Vec{Z: 2},
	}
}

// Session owns the scene, its camera and the renderer for one run.
// It is constructed once and passed to whatever needs scene access.
type Session struct {
	Scene    *Scene
	Camera   *PerspectiveCamera
	Renderer *Renderer

	// mu keeps camera and surface size consistent with each other.
	mu sync.RWMutex
}

// NewSession builds the scene, camera, lights and renderer.
func NewSession(cfg Config) *Session {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.FOV <= 0 {
		cfg.FOV = def.FOV
	}
	if cfg.Near <= 0 {
		cfg.Near = def.Near
	}
	if cfg.Far <= cfg.Near {
		cfg.Far = def.Far
	}

	camera := NewPerspectiveCamera(cfg.FOV, float64(cfg.Width)/float64(cfg.Height), cfg.Near, cfg.Far)
	camera.Position = cfg.CameraPosition

	s := &Session{
		Scene:    NewScene(),
		Camera:   camera,
		Renderer: NewRenderer(cfg.Width, cfg.Height, cfg.FPS),
	}
	s.addLights()
	return s
}

func (s *Session) addLights() {
	ambient := NewLight("ambient", Light{Type: LightAmbient, Color: 0xffffff, Intensity: 0.6})

	sun := NewLight("sun", Light{Type: LightDirectional, Color: 0xffffff, Intensity: 0.8})
	sun.Position = r3.Vec{X: 1, Y: 2, Z: 1}
	sun.CastShadow = true

	s.Scene.Add(ambient, sun)
}

// Resize updates the camera aspect and the surface size together.
func (s *Session) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Camera.Aspect = float64(width) / float64(height)
	s.Camera.UpdateProjectionMatrix()
	s.Renderer.SetSize(width, height)
	return nil
}

// Render renders the scene once.
func (s *Session) Render() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Renderer.Render(s.Scene, s.Camera)
}

// CameraState returns the camera as last configured.
func (s *Session) CameraState() (aspect float64, width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, h := s.Renderer.Size()
	return s.Camera.Aspect, w, h
}

// SetAnimationLoop installs the per-tick callback.
func (s *Session) SetAnimationLoop(fn func()) {
	s.Renderer.SetAnimationLoop(fn)
}

// Run drives the animation loop until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	return s.Renderer.Run(ctx)
}
