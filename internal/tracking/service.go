// Package tracking runs the detection service: it reads camera frames,
// gates them on motion and turns them into landmark frames.
package tracking

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ayusman/pinchgrab/internal/capture"
	"github.com/ayusman/pinchgrab/internal/detector"
)

// Default timing.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate while a hand is being tracked.
	ActiveFPS = 30
	// IdleTimeout is how long without motion before dropping back to IdleFPS.
	IdleTimeout = 2 * time.Second
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("tracking already started")

// FrameFunc receives one landmark frame per detection cycle.
type FrameFunc func(frame detector.LandmarkFrame)

// Config holds tracking options.
type Config struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
	// MotionGate enables idle/active switching. When false every cycle runs
	// detection at ActiveFPS.
	MotionGate bool
}

// DefaultConfig returns continuous tracking at ActiveFPS. The motion gate is
// off by default: a hand holding a dragged object still is not "idle".
func DefaultConfig() Config {
	return Config{
		IdleFPS:     IdleFPS,
		ActiveFPS:   ActiveFPS,
		IdleTimeout: IdleTimeout,
		MotionGate:  false,
	}
}

// Stats counts what the loop has done.
type Stats struct {
	Cycles     uint64
	Detections uint64
	Errors     uint64
	Active     bool
}

// Service is the detection service.
type Service struct {
	config   Config
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	handlers []FrameFunc

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	stats   Stats
}

// New creates a detection service bound to onFrame, which may be nil.
// Motion may be nil when the motion gate is disabled.
func New(config Config, camera capture.Camera, motion *capture.MotionDetector, d detector.Detector, onFrame FrameFunc) *Service {
	if config.IdleFPS <= 0 {
		config.IdleFPS = IdleFPS
	}
	if config.ActiveFPS <= 0 {
		config.ActiveFPS = ActiveFPS
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = IdleTimeout
	}
	if motion == nil {
		config.MotionGate = false
	}
	s := &Service{
		config:   config,
		camera:   camera,
		motion:   motion,
		detector: d,
		enabled:  true,
	}
	s.OnFrame(onFrame)
	return s
}

// OnFrame registers an additional frame handler. Handlers run on the
// detection goroutine in registration order.
func (s *Service) OnFrame(fn FrameFunc) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Start opens the camera and begins the detection cycle. It must be called
// once; a second call returns ErrAlreadyStarted.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return ErrAlreadyStarted
	}

	if err := s.camera.Open(); err != nil {
		return err
	}

	fps := s.config.ActiveFPS
	if s.config.MotionGate {
		fps = s.config.IdleFPS
	}
	s.camera.SetFPS(fps)

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(s.stopCh, s.doneCh)

	log.Println("Detection service started")
	return nil
}

// Stop ends the detection cycle and releases the camera and detector.
func (s *Service) Stop() {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh, s.doneCh = nil, nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if err := s.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if s.motion != nil {
		s.motion.Close()
	}
	if err := s.detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}

	log.Println("Detection service stopped")
}

// SetEnabled pauses or resumes detection without releasing the camera.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// IsEnabled reports whether detection is running.
func (s *Service) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Stats returns a copy of the loop counters.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Camera returns the capture device, for the MJPEG stream.
func (s *Service) Camera() capture.Camera {
	return s.camera
}

func (s *Service) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}
