package gesture

import "gonum.org/v1/gonum/spatial/r3"

// Smoother applies exponential smoothing to a stream of positions.
// Alpha is the weight of the newest sample: 1 disables smoothing.
type Smoother struct {
	alpha  float64
	value  r3.Vec
	primed bool
}

// NewSmoother creates a smoother. Alpha is clamped to (0, 1].
func NewSmoother(alpha float64) *Smoother {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return &Smoother{alpha: alpha}
}

// Next blends v into the running value and returns it.
// The first sample is returned unchanged.
func (s *Smoother) Next(v r3.Vec) r3.Vec {
	if !s.primed {
		s.value = v
		s.primed = true
		return v
	}
	s.value = r3.Add(s.value, r3.Scale(s.alpha, r3.Sub(v, s.value)))
	return s.value
}

// Value returns the last smoothed position.
func (s *Smoother) Value() (r3.Vec, bool) {
	return s.value, s.primed
}

// Reset forgets history; the next sample is taken as-is.
func (s *Smoother) Reset() {
	s.primed = false
	s.value = r3.Vec{}
}
