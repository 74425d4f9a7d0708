package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// PerspectiveCamera is a pinhole camera looking down -Z from Position.
type PerspectiveCamera struct {
	FOV      float64 // vertical field of view, degrees
	Aspect   float64
	Near     float64
	Far      float64
	Position r3.Vec

	projection [16]float64
}

// NewPerspectiveCamera creates a camera and computes its projection.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{FOV: fov, Aspect: aspect, Near: near, Far: far}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix recomputes the projection after a parameter change.
// The matrix is column-major, matching what WebGL viewers consume.
func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	f := 1 / math.Tan(c.FOV*math.Pi/360)
	nf := 1 / (c.Near - c.Far)

	var m [16]float64
	if c.Aspect != 0 {
		m[0] = f / c.Aspect
	}
	m[5] = f
	m[10] = (c.Far + c.Near) * nf
	m[11] = -1
	m[14] = 2 * c.Far * c.Near * nf
	c.projection = m
}

// ProjectionMatrix returns the last computed projection.
func (c *PerspectiveCamera) ProjectionMatrix() [16]float64 {
	return c.projection
}
