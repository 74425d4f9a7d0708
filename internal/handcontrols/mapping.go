package handcontrols

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/pinchgrab/internal/detector"
)

// view is the camera state a mapping is computed against.
type view struct {
	position r3.Vec
	fov      float64 // degrees, vertical
	aspect   float64
}

// Mapping converts normalized image landmarks into world positions in
// front of the camera.
type Mapping struct {
	// Mirror flips X. Set it when frames reach the detector unmirrored.
	Mirror bool
	// ReferenceScale is the hand scale (wrist to middle MCP, in normalized
	// image units) at which the hand maps to BaseDistance.
	ReferenceScale float64
	// BaseDistance is the distance from the camera at ReferenceScale.
	BaseDistance float64
	MinDistance  float64
	MaxDistance  float64
	// DepthScale multiplies per-landmark relative depth.
	DepthScale float64
}

// DefaultMapping places a hand at typical webcam distance on the z=0 plane
// of a camera at (0, 0, 2).
func DefaultMapping() Mapping {
	return Mapping{
		Mirror:         false,
		ReferenceScale: 0.2,
		BaseDistance:   2,
		MinDistance:    0.5,
		MaxDistance:    4,
		DepthScale:     1,
	}
}

func (m Mapping) withDefaults() Mapping {
	def := DefaultMapping()
	if m.ReferenceScale <= 0 {
		m.ReferenceScale = def.ReferenceScale
	}
	if m.BaseDistance <= 0 {
		m.BaseDistance = def.BaseDistance
	}
	if m.MinDistance <= 0 {
		m.MinDistance = def.MinDistance
	}
	if m.MaxDistance < m.MinDistance {
		m.MaxDistance = math.Max(def.MaxDistance, m.MinDistance)
	}
	if m.DepthScale == 0 {
		m.DepthScale = def.DepthScale
	}
	return m
}

// distance returns how far in front of the camera the hand is.
func (m Mapping) distance(hand *detector.HandLandmarks) float64 {
	scale := hand.Scale()
	if scale < 1e-6 {
		return m.MaxDistance
	}
	d := m.BaseDistance * m.ReferenceScale / scale
	return math.Min(math.Max(d, m.MinDistance), m.MaxDistance)
}

// project maps one normalized point at the given camera distance.
func (m Mapping) project(p detector.Point3D, distance float64, v view) r3.Vec {
	ndcX := 2*p.X - 1
	if m.Mirror {
		ndcX = -ndcX
	}
	ndcY := 1 - 2*p.Y

	halfH := distance * math.Tan(v.fov*math.Pi/360)
	halfW := halfH * v.aspect

	d := distance - p.Z*m.DepthScale*distance
	return r3.Vec{
		X: v.position.X + ndcX*halfW,
		Y: v.position.Y + ndcY*halfH,
		Z: v.position.Z - d,
	}
}

// cursor returns the world position of the pinch point.
func (m Mapping) cursor(hand *detector.HandLandmarks, v view) r3.Vec {
	p := hand.PinchPoint()
	p.Z = 0
	return m.project(p, m.distance(hand), v)
}

// landmarks returns the world positions of all joints.
func (m Mapping) landmarks(hand *detector.HandLandmarks, v view) [detector.NumLandmarks]r3.Vec {
	var out [detector.NumLandmarks]r3.Vec
	dist := m.distance(hand)
	for i, p := range hand.Points {
		out[i] = m.project(p, dist, v)
	}
	return out
}
