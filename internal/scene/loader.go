package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
)

// ErrAssetNotFound is returned when a model file does not exist.
var ErrAssetNotFound = errors.New("asset not found")

// Loader reads model files from a filesystem.
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader over fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// Load parses the OBJ model at name.
func (l *Loader) Load(ctx context.Context, name string) (*Mesh, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := l.fsys.Open(path.Clean(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if mesh.Name == "" {
		mesh.Name = path.Base(name)
	}
	return mesh, nil
}

// LoadObject loads a model and wraps it in a mesh object that uses mat for
// every face.
func (l *Loader) LoadObject(ctx context.Context, name string, mat Material) (*Object, error) {
	mesh, err := l.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	geom := Geometry{Type: GeometryMesh, Asset: name, Mesh: mesh}
	return NewObject(mesh.Name, KindMesh, geom, mat), nil
}

// ctxReader aborts reads once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
