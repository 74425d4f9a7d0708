package app

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/pinchgrab/internal/assets"
	"github.com/ayusman/pinchgrab/internal/scene"
)

// Scene layout.
const (
	DefaultTargets = 3
	TargetSize     = 0.15

	GroundSize    = 100
	GroundY       = -1
	GroundOpacity = 0.2

	GridSize      = 20
	GridDivisions = 10
	GridY         = -0.9
	GridOpacity   = 0.25
)

// Object names.
const (
	NameGround       = "ground"
	NameGrid         = "grid"
	NameTarget       = "target"
	NameCursorOpened = "cursor_opened"
	NameCursorClosed = "cursor_closed"
)

// buildStatic adds the shadow-catching ground plane and the grid.
func (a *App) buildStatic() {
	if len(a.session.Scene.FindByName(NameGround)) > 0 {
		return
	}

	groundMat := scene.NewMaterial(scene.MaterialShadow)
	groundMat.Color = 0x000000
	groundMat.Opacity = GroundOpacity
	groundMat.Transparent = true
	ground := scene.NewObject(NameGround, scene.KindPlane, scene.PlaneGeometry(GroundSize, GroundSize), groundMat)
	ground.RotateX(-math.Pi / 2)
	ground.Position.Y = GroundY
	ground.ReceiveShadow = true

	gridMat := scene.NewMaterial(scene.MaterialLine)
	gridMat.Opacity = GridOpacity
	gridMat.Transparent = true
	grid := scene.NewObject(NameGrid, scene.KindGrid, scene.GridGeometry(GridSize, GridDivisions), gridMat)
	grid.Position.Y = GridY

	a.session.Scene.Add(ground, grid)
}

// buildTargets adds randomly placed and oriented boxes.
// x and z are in [-1, 1), y in [-0.25, 0.25).
func (a *App) buildTargets() []*scene.Object {
	if a.targets != nil {
		return a.targets
	}

	rng := a.newRand()
	proto := scene.NewObject(NameTarget, scene.KindMesh,
		scene.BoxGeometry(TargetSize, TargetSize, TargetSize), scene.NewMaterial(scene.MaterialNormal))
	proto.Material.Transparent = true
	proto.CastShadow = true
	proto.ReceiveShadow = true

	targets := make([]*scene.Object, 0, a.config.Targets)
	for i := 0; i < a.config.Targets; i++ {
		t := proto.Clone()
		t.Position = r3.Vec{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*0.5 - 0.25,
			Z: rng.Float64()*2 - 1,
		}
		t.SetRotationFromEuler(
			rng.Float64()*2*math.Pi,
			rng.Float64()*2*math.Pi,
			rng.Float64()*2*math.Pi,
		)
		targets = append(targets, t)
	}
	a.session.Scene.Add(targets...)
	return targets
}

// loadCursors loads both cursor models. Neither is attached.
func (a *App) loadCursors(ctx context.Context) (opened, closed *scene.Object, err error) {
	mat := scene.NewMaterial(scene.MaterialNormal)
	mat.DepthTest = false
	mat.DepthWrite = false

	opened, err = a.loadModel(ctx, assets.CursorOpened, mat)
	if err != nil {
		return nil, nil, err
	}
	opened.Name = NameCursorOpened

	closed, err = a.loadModel(ctx, assets.CursorClosed, mat)
	if err != nil {
		return nil, nil, err
	}
	closed.Name = NameCursorClosed
	closed.RotateX(-math.Pi / 2)
	closed.RotateY(-math.Pi * 2)
	closed.RotateZ(math.Pi / 2)
	closed.SetScale(0.04, 0.02, 0.04)

	return opened, closed, nil
}

// loadModel loads a cursor model with the base model transform applied.
func (a *App) loadModel(ctx context.Context, name string, mat scene.Material) (*scene.Object, error) {
	obj, err := a.loader.LoadObject(ctx, name, mat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetLoad, err)
	}
	obj.SetScale(0.02, 0.01, 0.02)
	obj.RotateX(-math.Pi / 2)
	obj.RotateZ(-math.Pi)
	return obj, nil
}
