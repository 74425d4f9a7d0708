// Package detector provides hand landmark types and the detectors that
// produce them from camera frames.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3D) Point3D {
	return Point3D{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

// Scale returns the wrist to middle finger MCP distance, the reference
// length used to make measurements independent of hand size and distance
// from the camera.
func (h *HandLandmarks) Scale() float64 {
	if h == nil {
		return 0
	}
	return distance3D(h.Points[Wrist], h.Points[MiddleMCP])
}

// PinchDistance returns the thumb tip to index tip distance of the
// normalized hand. Returns +Inf when the scale is degenerate.
func (h *HandLandmarks) PinchDistance() float64 {
	if h.Scale() < 1e-10 {
		return math.Inf(1)
	}
	n := h.Normalize()
	return distance3D(n.Points[ThumbTip], n.Points[IndexTip])
}

// PinchPoint returns the midpoint between thumb tip and index tip, which is
// where the hand "holds" a grabbed object.
func (h *HandLandmarks) PinchPoint() Point3D {
	return Midpoint(h.Points[ThumbTip], h.Points[IndexTip])
}

// Normalize normalizes the hand landmarks relative to wrist position and hand size.
// The normalized landmarks have the wrist at origin (0,0,0) and are scaled
// so that the distance from wrist to middle finger MCP is 1.0.
// Returns a new HandLandmarks instance with normalized points.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	normalized := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	// Get wrist position as the origin
	wrist := h.Points[Wrist]

	// Translate all points relative to wrist
	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i] = Point3D{
			X: h.Points[i].X - wrist.X,
			Y: h.Points[i].Y - wrist.Y,
			Z: h.Points[i].Z - wrist.Z,
		}
	}

	// Calculate scale factor using distance from wrist to middle finger MCP
	middleMCP := normalized.Points[MiddleMCP]
	scale := distance3D(Point3D{0, 0, 0}, middleMCP)

	// Avoid division by zero
	if scale < 1e-10 {
		return normalized
	}

	// Scale all points
	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i].X /= scale
		normalized.Points[i].Y /= scale
		normalized.Points[i].Z /= scale
	}

	return normalized
}
