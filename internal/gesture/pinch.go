// Package gesture classifies hand poses relevant to direct manipulation.
package gesture

import (
	"sync"

	"github.com/ayusman/pinchgrab/internal/detector"
)

// Default pinch thresholds, relative to hand scale (wrist to middle MCP).
const (
	// DefaultCloseThreshold is the distance under which an open hand becomes pinched.
	DefaultCloseThreshold = 0.35
	// DefaultOpenThreshold is the distance over which a pinched hand opens again.
	DefaultOpenThreshold = 0.55
)

// PinchState is the classified pinch pose of a hand.
type PinchState int

const (
	// PinchOpen means thumb and index are apart.
	PinchOpen PinchState = iota
	// PinchClosed means thumb and index touch.
	PinchClosed
)

func (s PinchState) String() string {
	if s == PinchClosed {
		return "closed"
	}
	return "open"
}

// PinchDetector classifies pinches with hysteresis so a hand hovering near a
// single threshold does not flicker between states.
type PinchDetector struct {
	closeThreshold float64
	openThreshold  float64
	state          PinchState
	mu             sync.Mutex
}

// NewPinchDetector creates a detector with the given thresholds.
// Invalid thresholds (non-positive, or open below close) fall back to defaults.
func NewPinchDetector(closeThreshold, openThreshold float64) *PinchDetector {
	if closeThreshold <= 0 || openThreshold < closeThreshold {
		closeThreshold = DefaultCloseThreshold
		openThreshold = DefaultOpenThreshold
	}
	return &PinchDetector{
		closeThreshold: closeThreshold,
		openThreshold:  openThreshold,
		state:          PinchOpen,
	}
}

// Update feeds a hand and returns the new state and whether it changed.
func (p *PinchDetector) Update(hand *detector.HandLandmarks) (PinchState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if hand == nil {
		return p.setLocked(PinchOpen)
	}

	d := hand.PinchDistance()
	switch p.state {
	case PinchOpen:
		if d < p.closeThreshold {
			return p.setLocked(PinchClosed)
		}
	case PinchClosed:
		if d > p.openThreshold {
			return p.setLocked(PinchOpen)
		}
	}
	return p.state, false
}

// State returns the current classification.
func (p *PinchDetector) State() PinchState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Reset forces the open state.
func (p *PinchDetector) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = PinchOpen
}

func (p *PinchDetector) setLocked(s PinchState) (PinchState, bool) {
	changed := p.state != s
	p.state = s
	return s, changed
}
