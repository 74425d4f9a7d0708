// Package app is the interaction orchestrator: it bootstraps the scene,
// binds the detection service to the interaction controller and turns
// controller events into scene changes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/pinchgrab/internal/assets"
	"github.com/ayusman/pinchgrab/internal/detector"
	"github.com/ayusman/pinchgrab/internal/handcontrols"
	"github.com/ayusman/pinchgrab/internal/scene"
	"github.com/ayusman/pinchgrab/internal/store"
	"github.com/ayusman/pinchgrab/internal/tracking"
)

var (
	// ErrAssetLoad wraps any failure to load a cursor model.
	ErrAssetLoad = errors.New("cursor asset load failed")
	// ErrNotReady is returned by Run before a successful Initialize.
	ErrNotReady = errors.New("orchestrator not initialized")
	// ErrInvalidSize is returned by OnResize for non-positive sizes.
	ErrInvalidSize = scene.ErrInvalidSize
)

// DragOpacity is the opacity of the target being dragged.
const DragOpacity = 0.4

// closedCursorOffset is subtracted from the drag target position to place
// the closed cursor.
var closedCursorOffset = r3.Vec{X: -0.2, Y: 0.2, Z: 0.2}

// CursorState is the cursor representation currently in the scene.
type CursorState int

const (
	CursorOpen CursorState = iota
	CursorClosed
)

func (c CursorState) String() string {
	if c == CursorClosed {
		return "closed"
	}
	return "open"
}

// SessionConfig holds the user-toggleable options.
type SessionConfig struct {
	ShowLandmarks bool `json:"show_landmarks"`
}

// Tracker is the detection service the orchestrator binds to.
type Tracker interface {
	OnFrame(fn tracking.FrameFunc)
	Start() error
	Stop()
}

// Config holds orchestrator options.
type Config struct {
	Scene scene.Config
	// Targets is the number of draggable boxes. Zero means DefaultTargets.
	Targets int
	// Seed fixes target placement. Zero picks a random seed.
	Seed     uint64
	Controls ControlsConfig
	// Session is used when the store has no saved settings.
	Session SessionConfig
}

// ControlsConfig tunes the interaction controller.
type ControlsConfig struct {
	Mapping         handcontrols.Mapping
	Smoothing       float64
	CollisionMargin float64
	CloseThreshold  float64
	OpenThreshold   float64
}

// DefaultConfig returns the standard scene with three targets.
func DefaultConfig() Config {
	return Config{
		Scene:   scene.DefaultConfig(),
		Targets: DefaultTargets,
		Controls: ControlsConfig{
			Mapping:         handcontrols.DefaultMapping(),
			Smoothing:       handcontrols.DefaultSmoothing,
			CollisionMargin: handcontrols.DefaultCollisionMargin,
		},
	}
}

// Deps are the collaborators the orchestrator does not own.
type Deps struct {
	// Tracker may be nil when frames are fed through OnLandmarkFrame only.
	Tracker Tracker
	// Assets holds the cursor models. Nil means the embedded models.
	Assets fs.FS
	// Store may be nil; settings and interactions are then not persisted.
	Store *store.Store
}

// Stats describes the orchestrator at a point in time.
type Stats struct {
	Ready           bool        `json:"ready"`
	DroppedFrames   uint64      `json:"dropped_frames"`
	ForwardedFrames uint64      `json:"forwarded_frames"`
	Ticks           uint64      `json:"ticks"`
	RenderedFrames  uint64      `json:"rendered_frames"`
	Collisions      uint64      `json:"collisions"`
	Cursor          CursorState `json:"-"`
	CursorName      string      `json:"cursor"`
	DragTarget      string      `json:"drag_target,omitempty"`
	SessionID       string      `json:"session_id,omitempty"`
}

// App is the interaction orchestrator.
type App struct {
	config  Config
	deps    Deps
	session *scene.Session
	loader  *scene.Loader

	// gate guards controller; nil until Initialize succeeds.
	gate       sync.RWMutex
	controller *handcontrols.Controller

	cursorOpened *scene.Object
	cursorClosed *scene.Object
	targets      []*scene.Object

	stateMu    sync.Mutex
	cursor     CursorState
	dragging   bool
	dragTarget *scene.Object
	settings   SessionConfig
	record     *store.Session

	dropped    atomic.Uint64
	forwarded  atomic.Uint64
	ticks      atomic.Uint64
	collisions atomic.Uint64
	firstDrop  sync.Once
	bindOnce   sync.Once
	closeOnce  sync.Once
}

// New creates an orchestrator. Nothing is started until Initialize.
func New(config Config, deps Deps) *App {
	if config.Targets <= 0 {
		config.Targets = DefaultTargets
	}
	if deps.Assets == nil {
		deps.Assets = assets.FS()
	}
	return &App{
		config:   config,
		deps:     deps,
		session:  scene.NewSession(config.Scene),
		loader:   scene.NewLoader(deps.Assets),
		settings: config.Session,
	}
}

// Initialize starts the detection service, builds the scene, loads the
// cursor models and constructs the interaction controller. Frames that
// arrive before it returns are dropped. A cursor load failure is returned
// wrapped in ErrAssetLoad and leaves the orchestrator not ready.
func (a *App) Initialize(ctx context.Context) error {
	if a.Ready() {
		return nil
	}

	if a.deps.Tracker != nil {
		a.bindOnce.Do(func() { a.deps.Tracker.OnFrame(a.OnLandmarkFrame) })
		if err := a.deps.Tracker.Start(); err != nil && !errors.Is(err, tracking.ErrAlreadyStarted) {
			return fmt.Errorf("start detection service: %w", err)
		}
	}

	a.buildStatic()
	a.targets = a.buildTargets()

	opened, closed, err := a.loadCursors(ctx)
	if err != nil {
		return err
	}
	a.cursorOpened, a.cursorClosed = opened, closed
	a.session.Scene.Add(opened)

	settings := a.loadSettings()

	controller, err := handcontrols.New(handcontrols.Config{
		Cursor:          opened,
		Targets:         a.targets,
		Session:         a.session,
		Listener:        a,
		Mapping:         a.config.Controls.Mapping,
		Smoothing:       a.config.Controls.Smoothing,
		CollisionMargin: a.config.Controls.CollisionMargin,
		CloseThreshold:  a.config.Controls.CloseThreshold,
		OpenThreshold:   a.config.Controls.OpenThreshold,
		ShowLandmarks:   settings.ShowLandmarks,
	})
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	a.stateMu.Lock()
	a.settings = settings
	a.cursor = CursorOpen
	a.stateMu.Unlock()

	a.startRecord()

	a.gate.Lock()
	a.controller = controller
	a.gate.Unlock()

	log.Printf("Scene ready: %d targets, landmarks shown: %v", len(a.targets), settings.ShowLandmarks)
	return nil
}

// Ready reports whether the controller has been constructed.
func (a *App) Ready() bool {
	return a.getController() != nil
}

func (a *App) getController() *handcontrols.Controller {
	a.gate.RLock()
	defer a.gate.RUnlock()
	return a.controller
}

// OnLandmarkFrame forwards frame to the controller. Frames received before
// the controller exists are dropped, never buffered.
func (a *App) OnLandmarkFrame(frame detector.LandmarkFrame) {
	c := a.getController()
	if c == nil {
		a.dropped.Add(1)
		a.firstDrop.Do(func() {
			log.Println("Dropping landmark frames until the scene is ready")
		})
		return
	}
	c.Update(frame)
	a.forwarded.Add(1)
}

// OnFrameTick advances the controller, keeps the closed cursor on the drag
// target and renders.
func (a *App) OnFrameTick() {
	if c := a.getController(); c != nil {
		c.Animate()
	}

	a.stateMu.Lock()
	if a.dragging && a.dragTarget != nil && a.cursorClosed != nil {
		a.cursorClosed.Position = r3.Sub(a.dragTarget.Position, closedCursorOffset)
	}
	a.stateMu.Unlock()

	a.session.Render()
	a.ticks.Add(1)
}

// OnResize applies a new viewport size to camera and renderer together.
func (a *App) OnResize(width, height int) error {
	return a.session.Resize(width, height)
}

// Run installs OnFrameTick as the animation loop and blocks until ctx is
// done. The detection service is stopped on return.
func (a *App) Run(ctx context.Context) error {
	if !a.Ready() {
		return ErrNotReady
	}
	defer a.Close()

	a.session.SetAnimationLoop(a.OnFrameTick)
	defer a.session.SetAnimationLoop(nil)

	log.Println("Animation loop started")
	return a.session.Run(ctx)
}

// Close stops the detection service and ends the session record. It is
// safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.deps.Tracker != nil {
			a.deps.Tracker.Stop()
		}
		a.endRecord()
	})
}

// SetShowLandmarks persists the landmark toggle and forwards it to the
// controller. The markers change on the next tick.
func (a *App) SetShowLandmarks(show bool) error {
	a.stateMu.Lock()
	a.settings.ShowLandmarks = show
	a.stateMu.Unlock()

	if c := a.getController(); c != nil {
		c.ShowLandmarks(show)
	}

	if a.deps.Store != nil {
		if err := a.deps.Store.Settings().SetBool(store.SettingShowLandmarks, show); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	return nil
}

// SessionConfig returns the current options.
func (a *App) SessionConfig() SessionConfig {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.settings
}

// Session returns the scene session.
func (a *App) Session() *scene.Session {
	return a.session
}

// Targets returns the draggable objects.
func (a *App) Targets() []*scene.Object {
	return a.targets
}

// Cursors returns the open and closed cursor objects, nil before Initialize.
func (a *App) Cursors() (opened, closed *scene.Object) {
	return a.cursorOpened, a.cursorClosed
}

// Stats returns counters and the current interaction state.
func (a *App) Stats() Stats {
	st := Stats{
		Ready:           a.Ready(),
		DroppedFrames:   a.dropped.Load(),
		ForwardedFrames: a.forwarded.Load(),
		Ticks:           a.ticks.Load(),
		RenderedFrames:  a.session.Renderer.Frames(),
		Collisions:      a.collisions.Load(),
	}

	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	st.Cursor = a.cursor
	st.CursorName = a.cursor.String()
	if a.dragTarget != nil {
		st.DragTarget = a.dragTarget.ID
	}
	if a.record != nil {
		st.SessionID = a.record.ID
	}
	return st
}

func (a *App) loadSettings() SessionConfig {
	a.stateMu.Lock()
	settings := a.settings
	a.stateMu.Unlock()

	if a.deps.Store == nil {
		return settings
	}
	show, err := a.deps.Store.Settings().GetBool(store.SettingShowLandmarks, settings.ShowLandmarks)
	if err != nil {
		log.Printf("Failed to load settings: %v", err)
		return settings
	}
	settings.ShowLandmarks = show
	return settings
}

func (a *App) newRand() *rand.Rand {
	seed := a.config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
