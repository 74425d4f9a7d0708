package handcontrols

import "github.com/ayusman/pinchgrab/internal/scene"

// CollisionState is the proximity transition reported by CollisionEvent.
type CollisionState string

const (
	CollisionOn  CollisionState = "on"
	CollisionOff CollisionState = "off"
)

// DragStartEvent is emitted when a pinch closes over a target.
type DragStartEvent struct {
	Target *scene.Object
}

// DragEndEvent is emitted when the pinch opens or the hand is lost during a
// drag. Done must be called once the listener has applied its visual
// changes; the controller does not start another drag until it has.
type DragEndEvent struct {
	Target *scene.Object
	Done   func()
}

// CollisionEvent is emitted when the cursor starts or stops touching a
// target.
type CollisionEvent struct {
	State  CollisionState
	Target *scene.Object
}

// Listener receives controller events on the goroutine calling Animate.
type Listener interface {
	OnDragStart(DragStartEvent)
	OnDragEnd(DragEndEvent)
	OnCollision(CollisionEvent)
}

// NopListener ignores all events.
type NopListener struct{}

func (NopListener) OnDragStart(DragStartEvent) {}
func (NopListener) OnDragEnd(e DragEndEvent) {
	if e.Done != nil {
		e.Done()
	}
}
func (NopListener) OnCollision(CollisionEvent) {}
