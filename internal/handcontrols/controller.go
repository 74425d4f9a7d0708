// Package handcontrols turns landmark frames into direct manipulation of
// scene objects: a cursor follows the pinch point, and pinching over a
// target drags it.
package handcontrols

import (
	"errors"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/pinchgrab/internal/detector"
	"github.com/ayusman/pinchgrab/internal/gesture"
	"github.com/ayusman/pinchgrab/internal/scene"
)

// Defaults.
const (
	// DefaultSmoothing is the cursor smoothing factor.
	DefaultSmoothing = 0.5
	// DefaultCollisionMargin is added to a target's bounding radius.
	DefaultCollisionMargin = 0.05
	// MarkerRadius is the size of a landmark marker.
	MarkerRadius = 0.01
	// MarkerName names landmark marker objects.
	MarkerName = "landmark"
)

// Errors returned by New.
var (
	ErrNoCursor  = errors.New("handcontrols: cursor is required")
	ErrNoSession = errors.New("handcontrols: session is required")
)

// Config binds a controller to its scene.
type Config struct {
	Cursor   *scene.Object
	Targets  []*scene.Object
	Session  *scene.Session
	Listener Listener
	Mapping  Mapping

	// Smoothing is the weight of the newest cursor sample, in (0, 1].
	Smoothing       float64
	CollisionMargin float64
	CloseThreshold  float64
	OpenThreshold   float64
	ShowLandmarks   bool
}

type dragState int

const (
	stateIdle dragState = iota
	stateDragging
	// stateReleasing waits for DragEndEvent.Done.
	stateReleasing
)

// Controller is the interaction controller. Update may be called from any
// goroutine; Animate must be called from the render loop.
type Controller struct {
	cursor   *scene.Object
	targets  []*scene.Object
	session  *scene.Session
	listener Listener
	mapping  Mapping
	margin   float64

	pinch    *gesture.PinchDetector
	smoother *gesture.Smoother
	markers  []*scene.Object

	mu            sync.Mutex
	frame         detector.LandmarkFrame
	fresh         bool
	showLandmarks bool
	markersShown  bool
	handPresent   bool
	state         dragState
	target        *scene.Object
	offset        r3.Vec
	hovered       *scene.Object
	generation    uint64
}

// New creates a controller.
func New(cfg Config) (*Controller, error) {
	if cfg.Cursor == nil {
		return nil, ErrNoCursor
	}
	if cfg.Session == nil {
		return nil, ErrNoSession
	}
	if cfg.Listener == nil {
		cfg.Listener = NopListener{}
	}
	if cfg.Smoothing <= 0 || cfg.Smoothing > 1 {
		cfg.Smoothing = DefaultSmoothing
	}
	if cfg.CollisionMargin < 0 {
		cfg.CollisionMargin = 0
	} else if cfg.CollisionMargin == 0 {
		cfg.CollisionMargin = DefaultCollisionMargin
	}

	c := &Controller{
		cursor:        cfg.Cursor,
		targets:       append([]*scene.Object(nil), cfg.Targets...),
		session:       cfg.Session,
		listener:      cfg.Listener,
		mapping:       cfg.Mapping.withDefaults(),
		margin:        cfg.CollisionMargin,
		pinch:         gesture.NewPinchDetector(cfg.CloseThreshold, cfg.OpenThreshold),
		smoother:      gesture.NewSmoother(cfg.Smoothing),
		showLandmarks: cfg.ShowLandmarks,
	}
	c.markers = make([]*scene.Object, detector.NumLandmarks)
	for i := range c.markers {
		mat := scene.NewMaterial(scene.MaterialBasic)
		mat.Color = 0xff3366
		c.markers[i] = scene.NewObject(MarkerName, scene.KindMarker, scene.SphereGeometry(MarkerRadius), mat)
	}
	return c, nil
}

// Update stores the latest landmark frame. Only the most recent frame is
// kept; Animate consumes it.
func (c *Controller) Update(frame detector.LandmarkFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
	c.fresh = true
}

// ShowLandmarks toggles the landmark markers. The change is applied on the
// next Animate.
func (c *Controller) ShowLandmarks(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showLandmarks = show
}

// LandmarksShown reports the current landmark toggle.
func (c *Controller) LandmarksShown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showLandmarks
}

// Target returns the object being dragged, or nil.
func (c *Controller) Target() *scene.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateDragging {
		return c.target
	}
	return nil
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateDragging
}

// Animate advances the controller by one tick and dispatches the resulting
// events to the listener.
func (c *Controller) Animate() {
	v := c.view()

	c.mu.Lock()
	events := c.stepLocked(v)
	c.mu.Unlock()

	for _, e := range events {
		e(c.listener)
	}
}

type dispatch func(Listener)

func (c *Controller) view() view {
	aspect, _, _ := c.session.CameraState()
	return view{
		position: c.session.Camera.Position,
		fov:      c.session.Camera.FOV,
		aspect:   aspect,
	}
}

func (c *Controller) stepLocked(v view) []dispatch {
	var events []dispatch

	if !c.fresh {
		c.applyMarkersLocked(nil, v)
		return nil
	}
	c.fresh = false

	hand, ok := c.frame.Primary()
	c.handPresent = ok
	if !ok {
		c.pinch.Reset()
		c.smoother.Reset()
		c.applyMarkersLocked(nil, v)
		events = append(events, c.setHoverLocked(nil)...)
		if c.state == stateDragging {
			events = append(events, c.endDragLocked())
		}
		return events
	}

	pos := c.smoother.Next(c.mapping.cursor(&hand, v))
	c.cursor.Position = pos
	c.applyMarkersLocked(&hand, v)

	pinch, changed := c.pinch.Update(&hand)

	switch c.state {
	case stateIdle:
		events = append(events, c.setHoverLocked(c.hitLocked(pos))...)
		if changed && pinch == gesture.PinchClosed && c.hovered != nil {
			c.state = stateDragging
			c.target = c.hovered
			c.offset = r3.Sub(c.target.Position, pos)
			target := c.target
			events = append(events, func(l Listener) { l.OnDragStart(DragStartEvent{Target: target}) })
		}
	case stateDragging:
		c.target.Position = r3.Add(pos, c.offset)
		if pinch == gesture.PinchOpen {
			events = append(events, c.endDragLocked())
		}
	case stateReleasing:
		events = append(events, c.setHoverLocked(c.hitLocked(pos))...)
	}
	return events
}

// hitLocked returns the closest target the cursor touches.
func (c *Controller) hitLocked(pos r3.Vec) *scene.Object {
	var best *scene.Object
	bestDist := 0.0
	for _, t := range c.targets {
		d := r3.Norm(r3.Sub(t.Position, pos))
		if d > t.BoundingRadius()+c.margin {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

func (c *Controller) setHoverLocked(t *scene.Object) []dispatch {
	prev := c.hovered
	if prev == t {
		return nil
	}
	c.hovered = t

	var events []dispatch
	if prev != nil {
		events = append(events, func(l Listener) { l.OnCollision(CollisionEvent{State: CollisionOff, Target: prev}) })
	}
	if t != nil {
		events = append(events, func(l Listener) { l.OnCollision(CollisionEvent{State: CollisionOn, Target: t}) })
	}
	return events
}

func (c *Controller) endDragLocked() dispatch {
	c.state = stateReleasing
	c.generation++
	gen := c.generation
	target := c.target

	var once sync.Once
	done := func() {
		once.Do(func() { c.finishDrag(gen) })
	}
	return func(l Listener) { l.OnDragEnd(DragEndEvent{Target: target, Done: done}) }
}

// finishDrag returns to idle once the listener has handled DragEnd.
func (c *Controller) finishDrag(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateReleasing || c.generation != gen {
		return
	}
	c.state = stateIdle
	c.target = nil
	c.offset = r3.Vec{}
}

// applyMarkersLocked moves the markers to hand, when given, and attaches or
// detaches them to match the landmark toggle.
func (c *Controller) applyMarkersLocked(hand *detector.HandLandmarks, v view) {
	if hand != nil {
		positions := c.mapping.landmarks(hand, v)
		for i, m := range c.markers {
			m.Position = positions[i]
		}
	}

	show := c.showLandmarks && c.handPresent
	if show == c.markersShown {
		return
	}
	if show {
		c.session.Scene.Add(c.markers...)
	} else {
		c.session.Scene.Remove(c.markers...)
	}
	c.markersShown = show
}

// Markers returns the landmark marker objects, in landmark order.
func (c *Controller) Markers() []*scene.Object {
	return c.markers
}
