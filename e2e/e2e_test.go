package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/pinchgrab/internal/app"
	"github.com/ayusman/pinchgrab/internal/capture"
	"github.com/ayusman/pinchgrab/internal/detector"
	"github.com/ayusman/pinchgrab/internal/server"
	"github.com/ayusman/pinchgrab/internal/store"
	"github.com/ayusman/pinchgrab/internal/tracking"
)

type pipeline struct {
	app     *app.App
	det     *detector.MockDetector
	tracker *tracking.Service
	hub     *server.LandmarkHub
	ts      *httptest.Server
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	det := detector.NewMockDetector()
	tcfg := tracking.DefaultConfig()
	tcfg.ActiveFPS = 200
	tracker := tracking.New(tcfg, cam, nil, det, nil)

	hub := server.NewLandmarkHub()
	tracker.OnFrame(hub.Publish)

	cfg := app.DefaultConfig()
	cfg.Seed = 11
	cfg.Controls.Smoothing = 1
	a := app.New(cfg, app.Deps{Tracker: tracker, Store: s})
	require.NoError(t, a.Initialize(context.Background()))
	t.Cleanup(a.Close)

	ts := httptest.NewServer(server.New(server.Config{Store: s, Camera: cam, App: a, Hub: hub}))
	t.Cleanup(ts.Close)

	return &pipeline{app: a, det: det, tracker: tracker, hub: hub, ts: ts}
}

// show makes the detector report hand and waits until a frame carrying it
// has reached the orchestrator.
func (p *pipeline) show(t *testing.T, hand detector.HandLandmarks) {
	t.Helper()
	p.det.SetHands([]detector.HandLandmarks{hand})
	c0 := p.det.Calls()
	require.Eventually(t, func() bool { return p.det.Calls() >= c0+2 }, 2*time.Second, time.Millisecond)
}

func (p *pipeline) interactions(t *testing.T) []string {
	t.Helper()
	resp, err := p.ts.Client().Get(p.ts.URL + "/api/interactions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var listed struct {
		Interactions []struct {
			Kind string `json:"kind"`
		} `json:"interactions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))

	kinds := make([]string, len(listed.Interactions))
	for i, in := range listed.Interactions {
		kinds[len(kinds)-1-i] = in.Kind
	}
	return kinds
}

// openHand is an open palm whose pinch point matches PinchLandmarks, so
// closing it does not move the cursor.
func openHand() detector.HandLandmarks {
	return detector.Translated(detector.OpenPalmLandmarks(), -0.065, -0.05, 0)
}

func TestE2E_PinchAndDrag(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	p := newPipeline(t)
	targets := p.app.Targets()
	for _, target := range targets {
		target.Position = r3.Vec{X: 10, Y: 10, Z: 10}
	}
	opened, closed := p.app.Cursors()

	t.Run("CursorFollowsHand", func(t *testing.T) {
		p.show(t, openHand())
		p.app.OnFrameTick()
		assert.NotEqual(t, r3.Vec{}, opened.Position)
		assert.Empty(t, p.app.Stats().DragTarget)
	})

	target := targets[0]
	start := opened.Position
	target.Position = start

	t.Run("HoverThenPinch", func(t *testing.T) {
		p.show(t, openHand())
		p.app.OnFrameTick()
		assert.Equal(t, uint64(1), p.app.Stats().Collisions)

		p.show(t, detector.PinchLandmarks())
		p.app.OnFrameTick()

		stats := p.app.Stats()
		assert.Equal(t, target.ID, stats.DragTarget)
		assert.Equal(t, app.CursorClosed, stats.Cursor)
		assert.InDelta(t, app.DragOpacity, target.Material.Opacity, 1e-9)
		assert.True(t, p.app.Session().Scene.Contains(closed))
	})

	t.Run("DragMovesTarget", func(t *testing.T) {
		p.show(t, detector.Translated(detector.PinchLandmarks(), 0.1, 0, 0))
		p.app.OnFrameTick()

		moved := r3.Sub(opened.Position, start)
		require.Greater(t, moved.X, 0.0)
		assert.InDelta(t, start.X+moved.X, target.Position.X, 1e-6)
		assert.InDelta(t, start.Y+moved.Y, target.Position.Y, 1e-6)
		assert.InDelta(t, start.Z+moved.Z, target.Position.Z, 1e-6)
	})

	t.Run("ReleaseEndsDrag", func(t *testing.T) {
		p.show(t, detector.Translated(openHand(), 0.1, 0, 0))
		p.app.OnFrameTick()

		stats := p.app.Stats()
		assert.Empty(t, stats.DragTarget)
		assert.Equal(t, app.CursorOpen, stats.Cursor)
		assert.InDelta(t, 1.0, target.Material.Opacity, 1e-9)
		assert.True(t, p.app.Session().Scene.Contains(opened))
	})

	t.Run("InteractionsRecorded", func(t *testing.T) {
		assert.Equal(t, []string{"collision_on", "drag_start", "drag_end"}, p.interactions(t))
	})

	t.Run("TargetsEndpoint", func(t *testing.T) {
		resp, err := p.ts.Client().Get(p.ts.URL + "/api/targets")
		require.NoError(t, err)
		defer resp.Body.Close()

		var listed struct {
			Targets []struct {
				ID       string     `json:"id"`
				Position [3]float64 `json:"position"`
			} `json:"targets"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
		require.Len(t, listed.Targets, len(targets))
		for _, got := range listed.Targets {
			if got.ID == target.ID {
				assert.InDelta(t, target.Position.X, got.Position[0], 1e-9)
			}
		}
	})
}

func TestE2E_LandmarkStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	p := newPipeline(t)
	p.det.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})

	url := "ws" + strings.TrimPrefix(p.ts.URL, "http") + "/api/landmarks"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg struct {
		Hands []detector.HandLandmarks `json:"hands"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Len(t, msg.Hands, 1)
	want := detector.PinchLandmarks()
	assert.InDelta(t, want.PinchDistance(), msg.Hands[0].PinchDistance(), 1e-9)
}

func TestE2E_HealthAfterShutdown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	p := newPipeline(t)
	p.app.Close()

	assert.False(t, p.tracker.Camera().IsOpen(), "Close should release the camera")

	resp, err := p.ts.Client().Get(p.ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := p.ts.Client().Get(p.ts.URL + "/api/stream")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}
