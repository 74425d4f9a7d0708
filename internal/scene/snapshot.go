package scene

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is the wire form of a vector.
type Vec3 [3]float64

func toVec3(v r3.Vec) Vec3 { return Vec3{v.X, v.Y, v.Z} }

// Snapshot is an immutable copy of what one Render call saw.
type Snapshot struct {
	Frame   uint64        `json:"frame"`
	Time    time.Time     `json:"time"`
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Camera  CameraState   `json:"camera"`
	Objects []ObjectState `json:"objects"`
}

// CameraState is the wire form of a PerspectiveCamera.
type CameraState struct {
	FOV        float64     `json:"fov"`
	Aspect     float64     `json:"aspect"`
	Near       float64     `json:"near"`
	Far        float64     `json:"far"`
	Position   Vec3        `json:"position"`
	Projection [16]float64 `json:"projection"`
}

// GeometryState is the wire form of a Geometry. Mesh data is not inlined;
// viewers fetch Asset.
type GeometryState struct {
	Type      GeometryType `json:"type,omitempty"`
	Width     float64      `json:"width,omitempty"`
	Height    float64      `json:"height,omitempty"`
	Depth     float64      `json:"depth,omitempty"`
	Divisions int          `json:"divisions,omitempty"`
	Asset     string       `json:"asset,omitempty"`
}

// MaterialState is the wire form of a Material.
type MaterialState struct {
	Type        MaterialType `json:"type,omitempty"`
	Color       uint32       `json:"color"`
	Opacity     float64      `json:"opacity"`
	Transparent bool         `json:"transparent"`
	DepthTest   bool         `json:"depth_test"`
	DepthWrite  bool         `json:"depth_write"`
}

// LightState is the wire form of a Light.
type LightState struct {
	Type      LightType `json:"type"`
	Color     uint32    `json:"color"`
	Intensity float64   `json:"intensity"`
}

// ObjectState is the wire form of an Object.
type ObjectState struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Kind          Kind          `json:"kind"`
	Geometry      GeometryState `json:"geometry"`
	Material      MaterialState `json:"material"`
	Light         *LightState   `json:"light,omitempty"`
	Position      Vec3          `json:"position"`
	Quaternion    [4]float64    `json:"quaternion"` // x, y, z, w
	Scale         Vec3          `json:"scale"`
	Visible       bool          `json:"visible"`
	CastShadow    bool          `json:"cast_shadow"`
	ReceiveShadow bool          `json:"receive_shadow"`
}

// Object returns the state of the object with the given id.
func (s Snapshot) Object(id string) (ObjectState, bool) {
	for _, o := range s.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return ObjectState{}, false
}

// ObjectsByName returns the states of all objects with the given name.
func (s Snapshot) ObjectsByName(name string) []ObjectState {
	var out []ObjectState
	for _, o := range s.Objects {
		if o.Name == name {
			out = append(out, o)
		}
	}
	return out
}

func newSnapshot(frame uint64, width, height int, camera *PerspectiveCamera, objects []*Object) Snapshot {
	snap := Snapshot{
		Frame:   frame,
		Time:    time.Now(),
		Width:   width,
		Height:  height,
		Objects: make([]ObjectState, 0, len(objects)),
	}
	if camera != nil {
		snap.Camera = CameraState{
			FOV:        camera.FOV,
			Aspect:     camera.Aspect,
			Near:       camera.Near,
			Far:        camera.Far,
			Position:   toVec3(camera.Position),
			Projection: camera.ProjectionMatrix(),
		}
	}
	for _, o := range objects {
		snap.Objects = append(snap.Objects, stateOf(o))
	}
	return snap
}

func stateOf(o *Object) ObjectState {
	st := ObjectState{
		ID:   o.ID,
		Name: o.Name,
		Kind: o.Kind,
		Geometry: GeometryState{
			Type:      o.Geometry.Type,
			Width:     o.Geometry.Width,
			Height:    o.Geometry.Height,
			Depth:     o.Geometry.Depth,
			Divisions: o.Geometry.Divisions,
			Asset:     o.Geometry.Asset,
		},
		Material: MaterialState{
			Type:        o.Material.Type,
			Color:       o.Material.Color,
			Opacity:     o.Material.Opacity,
			Transparent: o.Material.Transparent,
			DepthTest:   o.Material.DepthTest,
			DepthWrite:  o.Material.DepthWrite,
		},
		Position:      toVec3(o.Position),
		Quaternion:    [4]float64{o.Quaternion.Imag, o.Quaternion.Jmag, o.Quaternion.Kmag, o.Quaternion.Real},
		Scale:         toVec3(o.Scale),
		Visible:       o.Visible,
		CastShadow:    o.CastShadow,
		ReceiveShadow: o.ReceiveShadow,
	}
	if o.Light != nil {
		st.Light = &LightState{Type: o.Light.Type, Color: o.Light.Color, Intensity: o.Light.Intensity}
	}
	return st
}
