package scene

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRenderer_RenderSnapshot(t *testing.T) {
	r := NewRenderer(640, 480, 30)
	s := NewScene()
	cam := NewPerspectiveCamera(45, 640.0/480.0, 0.01, 1000)

	o := box()
	o.Position = r3.Vec{X: 0.5, Y: -0.25, Z: 0.1}
	o.Material.Opacity = 0.4
	o.Material.Transparent = true
	s.Add(o)

	snap := r.Render(s, cam)
	assert.Equal(t, uint64(1), snap.Frame)
	assert.Equal(t, 640, snap.Width)
	assert.Equal(t, 480, snap.Height)

	want := ObjectState{
		ID:       o.ID,
		Name:     "box",
		Kind:     KindMesh,
		Geometry: GeometryState{Type: GeometryBox, Width: 0.15, Height: 0.15, Depth: 0.15},
		Material: MaterialState{
			Type: MaterialNormal, Opacity: 0.4, Transparent: true, DepthTest: true, DepthWrite: true,
		},
		Position:   Vec3{0.5, -0.25, 0.1},
		Quaternion: [4]float64{0, 0, 0, 1},
		Scale:      Vec3{1, 1, 1},
		Visible:    true,
	}
	got, ok := snap.Object(o.ID)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("object state mismatch (-want +got):\n%s", diff)
	}

	// Snapshots are copies.
	o.Position.X = 9
	again, _ := r.Last()
	st, _ := again.Object(o.ID)
	assert.Equal(t, 0.5, st.Position[0])
}

func TestRenderer_Subscribe(t *testing.T) {
	r := NewRenderer(100, 100, 30)
	s := NewScene()
	cam := NewPerspectiveCamera(45, 1, 0.01, 1000)

	ch, cancel := r.Subscribe()
	defer cancel()

	r.Render(s, cam)
	r.Render(s, cam)
	r.Render(s, cam)

	select {
	case snap := <-ch:
		assert.Equal(t, uint64(3), snap.Frame, "slow subscriber gets the latest frame")
	default:
		t.Fatal("expected a snapshot")
	}

	t.Run("late subscriber receives last snapshot", func(t *testing.T) {
		late, stop := r.Subscribe()
		defer stop()
		snap := <-late
		assert.Equal(t, uint64(3), snap.Frame)
	})

	t.Run("unsubscribed channel stops receiving", func(t *testing.T) {
		cancel()
		cancel()
		r.Render(s, cam)
		select {
		case <-ch:
			t.Error("unexpected snapshot after unsubscribe")
		default:
		}
	})
}

func TestRenderer_RunCallsLoop(t *testing.T) {
	r := NewRenderer(10, 10, 200)
	var ticks atomic.Int32
	r.SetAnimationLoop(func() { ticks.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, r.Run(ctx))
	assert.Greater(t, ticks.Load(), int32(1))
}

func TestSession_Resize(t *testing.T) {
	s := NewSession(DefaultConfig())

	require.NoError(t, s.Resize(800, 400))
	aspect, w, h := s.CameraState()
	assert.Equal(t, 2.0, aspect)
	assert.Equal(t, 800, w)
	assert.Equal(t, 400, h)

	snap := s.Render()
	assert.Equal(t, 2.0, snap.Camera.Aspect)
	assert.Equal(t, 800, snap.Width)

	assert.ErrorIs(t, s.Resize(0, 400), ErrInvalidSize)
	assert.ErrorIs(t, s.Resize(400, -1), ErrInvalidSize)
	aspect, _, _ = s.CameraState()
	assert.Equal(t, 2.0, aspect, "rejected resize leaves state untouched")
}

func TestSession_Lights(t *testing.T) {
	s := NewSession(Config{})
	snap := s.Render()

	lights := cmpopts.IgnoreFields(ObjectState{}, "ID", "Quaternion", "Scale")
	want := []ObjectState{
		{Name: "ambient", Kind: KindLight, Visible: true, Light: &LightState{Type: LightAmbient, Color: 0xffffff, Intensity: 0.6}},
		{Name: "sun", Kind: KindLight, Visible: true, CastShadow: true, Position: Vec3{1, 2, 1}, Light: &LightState{Type: LightDirectional, Color: 0xffffff, Intensity: 0.8}},
	}
	if diff := cmp.Diff(want, snap.Objects, lights); diff != "" {
		t.Errorf("lights mismatch (-want +got):\n%s", diff)
	}
}

func TestPerspectiveCamera_Projection(t *testing.T) {
	c := NewPerspectiveCamera(90, 2, 1, 3)
	m := c.ProjectionMatrix()

	assert.InDelta(t, 0.5, m[0], 1e-12)
	assert.InDelta(t, 1.0, m[5], 1e-12)
	assert.InDelta(t, -2.0, m[10], 1e-12)
	assert.Equal(t, -1.0, m[11])
	assert.InDelta(t, -3.0, m[14], 1e-12)
}
