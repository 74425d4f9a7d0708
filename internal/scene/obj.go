package scene

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/udhos/gwob"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrMalformedOBJ is returned for OBJ input that cannot be parsed.
var ErrMalformedOBJ = errors.New("malformed OBJ")

// Mesh is triangle geometry loaded from a model file.
type Mesh struct {
	Name     string
	Vertices []r3.Vec
	Normals  []r3.Vec
	// Faces index into Vertices.
	Faces [][3]int
}

// Bounds returns the axis-aligned extent of the vertices.
func (m *Mesh) Bounds() (min, max r3.Vec) {
	if len(m.Vertices) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		min = r3.Vec{X: minf(min.X, v.X), Y: minf(min.Y, v.Y), Z: minf(min.Z, v.Z)}
		max = r3.Vec{X: maxf(max.X, v.X), Y: maxf(max.Y, v.Y), Z: maxf(max.Z, v.Z)}
	}
	return min, max
}

// Radius returns the radius of the origin-centered sphere that encloses
// Bounds.
func (m *Mesh) Radius() float64 {
	min, max := m.Bounds()
	far := r3.Vec{
		X: maxf(math.Abs(min.X), math.Abs(max.X)),
		Y: maxf(math.Abs(min.Y), math.Abs(max.Y)),
		Z: maxf(math.Abs(min.Z), math.Abs(max.Z)),
	}
	return r3.Norm(far)
}

// ParseOBJ reads Wavefront OBJ geometry. Faces may be triangles or quads;
// quads are split in two and negative indices count back from the last
// vertex. A record the parser rejects makes the whole model malformed.
func ParseOBJ(r io.Reader) (m *Mesh, err error) {
	var rejected []string
	opts := &gwob.ObjParserOptions{
		Logger: func(msg string) {
			if strings.HasPrefix(msg, "readLines:") || strings.HasPrefix(msg, "scanLines:") {
				rejected = append(rejected, strings.TrimSpace(msg))
			}
		},
	}

	// gwob indexes normals without a range check.
	defer func() {
		if p := recover(); p != nil {
			m, err = nil, fmt.Errorf("%w: %v", ErrMalformedOBJ, p)
		}
	}()

	obj, err := gwob.NewObjFromReader("", r, opts)
	if err != nil {
		return nil, fmt.Errorf("read OBJ: %w", err)
	}
	if len(rejected) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedOBJ, rejected[0])
	}
	if len(obj.Indices) == 0 {
		return nil, fmt.Errorf("%w: no faces", ErrMalformedOBJ)
	}
	return meshFromObj(obj), nil
}

// meshFromObj copies the interleaved gwob buffers into a Mesh. Vertices are
// gwob's unified elements, one per distinct position/texture/normal tuple.
func meshFromObj(obj *gwob.Obj) *Mesh {
	m := &Mesh{}
	for _, g := range obj.Groups {
		if g.Name != "" {
			m.Name = g.Name
			break
		}
	}

	stride := obj.StrideSize / 4
	n := obj.NumberOfElements()
	m.Vertices = make([]r3.Vec, 0, n)
	for i := 0; i < n; i++ {
		x, y, z := obj.VertexCoordinates(i)
		m.Vertices = append(m.Vertices, r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)})
		if obj.NormCoordFound {
			f := i*stride + obj.StrideOffsetNormal/4
			m.Normals = append(m.Normals, r3.Vec{X: obj.Coord64(f), Y: obj.Coord64(f + 1), Z: obj.Coord64(f + 2)})
		}
	}

	m.Faces = make([][3]int, 0, len(obj.Indices)/3)
	for i := 0; i+2 < len(obj.Indices); i += 3 {
		m.Faces = append(m.Faces, [3]int{obj.Indices[i], obj.Indices[i+1], obj.Indices[i+2]})
	}
	return m
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
