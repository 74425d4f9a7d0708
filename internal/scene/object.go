// Package scene provides a headless scene graph: objects, a perspective
// camera and a renderer that publishes immutable snapshots to viewers.
//
// Objects are owned by the render loop. Mutate them from the animation
// callback (or before the loop starts); other goroutines read snapshots.
package scene

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind classifies scene objects for the viewer.
type Kind string

const (
	KindMesh   Kind = "mesh"
	KindPlane  Kind = "plane"
	KindGrid   Kind = "grid"
	KindLight  Kind = "light"
	KindMarker Kind = "marker"
)

// GeometryType names the primitive a viewer should build.
type GeometryType string

const (
	GeometryBox    GeometryType = "box"
	GeometryPlane  GeometryType = "plane"
	GeometryGrid   GeometryType = "grid"
	GeometrySphere GeometryType = "sphere"
	GeometryMesh   GeometryType = "mesh"
	GeometryNone   GeometryType = ""
)

// Geometry describes an object's shape.
type Geometry struct {
	Type      GeometryType
	Width     float64
	Height    float64
	Depth     float64
	Divisions int
	// Asset is the model path the viewer fetches for GeometryMesh.
	Asset string
	Mesh  *Mesh
}

// BoxGeometry returns a box of the given dimensions.
func BoxGeometry(w, h, d float64) Geometry {
	return Geometry{Type: GeometryBox, Width: w, Height: h, Depth: d}
}

// PlaneGeometry returns a plane lying in the XY plane.
func PlaneGeometry(w, h float64) Geometry {
	return Geometry{Type: GeometryPlane, Width: w, Height: h}
}

// GridGeometry returns a square grid of size with the given divisions.
func GridGeometry(size float64, divisions int) Geometry {
	return Geometry{Type: GeometryGrid, Width: size, Depth: size, Divisions: divisions}
}

// SphereGeometry returns a sphere of the given radius.
func SphereGeometry(radius float64) Geometry {
	return Geometry{Type: GeometrySphere, Width: 2 * radius, Height: 2 * radius, Depth: 2 * radius}
}

// MaterialType names the shading model a viewer should use.
type MaterialType string

const (
	MaterialNormal MaterialType = "normal"
	MaterialShadow MaterialType = "shadow"
	MaterialBasic  MaterialType = "basic"
	MaterialLine   MaterialType = "line"
)

// Material describes surface appearance.
type Material struct {
	Type        MaterialType
	Color       uint32
	Opacity     float64
	Transparent bool
	DepthTest   bool
	DepthWrite  bool
}

// NewMaterial returns an opaque material with depth testing on.
func NewMaterial(t MaterialType) Material {
	return Material{Type: t, Opacity: 1, DepthTest: true, DepthWrite: true}
}

// LightType names a light source.
type LightType string

const (
	LightAmbient     LightType = "ambient"
	LightDirectional LightType = "directional"
)

// Light holds light source parameters for KindLight objects.
type Light struct {
	Type      LightType
	Color     uint32
	Intensity float64
}

// Object is a node in the scene graph.
type Object struct {
	ID            string
	Name          string
	Kind          Kind
	Geometry      Geometry
	Material      Material
	Light         *Light
	Position      r3.Vec
	Quaternion    quat.Number
	Scale         r3.Vec
	Visible       bool
	CastShadow    bool
	ReceiveShadow bool
}

// NewObject creates a visible object with identity transform and a fresh id.
func NewObject(name string, kind Kind, geometry Geometry, material Material) *Object {
	return &Object{
		ID:         uuid.NewString(),
		Name:       name,
		Kind:       kind,
		Geometry:   geometry,
		Material:   material,
		Quaternion: quat.Number{Real: 1},
		Scale:      r3.Vec{X: 1, Y: 1, Z: 1},
		Visible:    true,
	}
}

// NewLight creates a light object.
func NewLight(name string, light Light) *Object {
	o := NewObject(name, KindLight, Geometry{}, Material{})
	o.Light = &light
	return o
}

// Clone returns a copy with a new id. Mesh data is shared.
func (o *Object) Clone() *Object {
	c := *o
	c.ID = uuid.NewString()
	if o.Light != nil {
		l := *o.Light
		c.Light = &l
	}
	return &c
}

// Axis unit vectors.
var (
	AxisX = r3.Vec{X: 1}
	AxisY = r3.Vec{Y: 1}
	AxisZ = r3.Vec{Z: 1}
)

// RotateOnAxis rotates the object by angle radians around a local axis.
func (o *Object) RotateOnAxis(axis r3.Vec, angle float64) {
	if angle == 0 {
		return
	}
	o.Quaternion = quat.Mul(o.Quaternion, quat.Number(r3.NewRotation(angle, axis)))
}

// RotateX rotates around the local X axis.
func (o *Object) RotateX(angle float64) { o.RotateOnAxis(AxisX, angle) }

// RotateY rotates around the local Y axis.
func (o *Object) RotateY(angle float64) { o.RotateOnAxis(AxisY, angle) }

// RotateZ rotates around the local Z axis.
func (o *Object) RotateZ(angle float64) { o.RotateOnAxis(AxisZ, angle) }

// SetRotationFromEuler sets the orientation from XYZ-ordered Euler angles.
func (o *Object) SetRotationFromEuler(x, y, z float64) {
	o.Quaternion = quat.Number{Real: 1}
	o.RotateX(x)
	o.RotateY(y)
	o.RotateZ(z)
}

// SetScale sets a non-uniform scale.
func (o *Object) SetScale(x, y, z float64) {
	o.Scale = r3.Vec{X: x, Y: y, Z: z}
}

// Rotate applies the object's orientation to v.
func (o *Object) Rotate(v r3.Vec) r3.Vec {
	return r3.Rotation(o.Quaternion).Rotate(v)
}

// BoundingRadius returns the radius of a sphere centered on Position that
// encloses the scaled geometry.
func (o *Object) BoundingRadius() float64 {
	maxScale := math.Max(math.Abs(o.Scale.X), math.Max(math.Abs(o.Scale.Y), math.Abs(o.Scale.Z)))

	var r float64
	switch o.Geometry.Type {
	case GeometryBox, GeometrySphere:
		g := o.Geometry
		if o.Geometry.Type == GeometrySphere {
			r = g.Width / 2
		} else {
			r = r3.Norm(r3.Vec{X: g.Width, Y: g.Height, Z: g.Depth}) / 2
		}
	case GeometryMesh:
		if o.Geometry.Mesh != nil {
			r = o.Geometry.Mesh.Radius()
		}
	case GeometryPlane, GeometryGrid:
		r = math.Hypot(o.Geometry.Width, math.Max(o.Geometry.Height, o.Geometry.Depth)) / 2
	}
	return r * maxScale
}
