package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand landmark estimation.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// IdleShutdown stops the landmark subprocess after this long without a
	// request. Zero disables the idle shutdown.
	IdleShutdown time.Duration
}

// DefaultConfig returns a Config suited to single-hand interaction.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleShutdown:    30 * time.Second,
	}
}

// LandmarkFrame is the result of one detection cycle. A frame without hands
// means the tracked hand was lost.
type LandmarkFrame struct {
	Hands     []HandLandmarks `json:"hands"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewLandmarkFrame stamps hands with the current time.
func NewLandmarkFrame(hands []HandLandmarks) LandmarkFrame {
	return LandmarkFrame{Hands: hands, Timestamp: time.Now()}
}

// Primary returns the first detected hand.
func (f LandmarkFrame) Primary() (HandLandmarks, bool) {
	if len(f.Hands) == 0 {
		return HandLandmarks{}, false
	}
	return f.Hands[0], true
}

// Empty reports whether the frame carries no hands.
func (f LandmarkFrame) Empty() bool {
	return len(f.Hands) == 0
}
