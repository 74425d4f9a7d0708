package app

import (
	"log"

	"github.com/ayusman/pinchgrab/internal/handcontrols"
	"github.com/ayusman/pinchgrab/internal/scene"
	"github.com/ayusman/pinchgrab/internal/store"
)

var _ handcontrols.Listener = (*App)(nil)

// OnDragStart dims the target and swaps in the closed cursor.
func (a *App) OnDragStart(e handcontrols.DragStartEvent) {
	if e.Target == nil {
		return
	}

	a.stateMu.Lock()
	if a.dragTarget != nil && a.dragTarget != e.Target {
		a.dragTarget.Material.Opacity = 1
	}
	e.Target.Material.Opacity = DragOpacity
	if a.cursorOpened != nil && a.cursorClosed != nil {
		a.cursorClosed.Position = a.cursorOpened.Position
		a.session.Scene.Swap(a.cursorOpened, a.cursorClosed)
		a.cursor = CursorClosed
	}
	a.dragging = true
	a.dragTarget = e.Target
	a.stateMu.Unlock()

	a.recordInteraction(store.InteractionDragStart, e.Target)
}

// OnDragEnd swaps the open cursor back, restores the target and hands
// control back to the controller through e.Done.
func (a *App) OnDragEnd(e handcontrols.DragEndEvent) {
	a.stateMu.Lock()
	a.dragging = false
	if a.cursorOpened != nil && a.cursorClosed != nil {
		a.session.Scene.Swap(a.cursorClosed, a.cursorOpened)
		a.cursor = CursorOpen
	}
	if e.Target != nil {
		e.Target.Material.Opacity = 1
	}
	if a.dragTarget != nil {
		a.dragTarget.Material.Opacity = 1
	}
	a.dragTarget = nil
	a.stateMu.Unlock()

	if e.Done != nil {
		e.Done()
	}

	a.recordInteraction(store.InteractionDragEnd, e.Target)
}

// OnCollision records the proximity transition. It has no visual effect.
func (a *App) OnCollision(e handcontrols.CollisionEvent) {
	kind := store.InteractionCollisionOff
	if e.State == handcontrols.CollisionOn {
		a.collisions.Add(1)
		kind = store.InteractionCollisionOn
	}
	a.recordInteraction(kind, e.Target)
}

func (a *App) startRecord() {
	if a.deps.Store == nil {
		return
	}
	rec, err := a.deps.Store.Sessions().Start(len(a.targets))
	if err != nil {
		log.Printf("Failed to record session: %v", err)
		return
	}
	a.stateMu.Lock()
	a.record = rec
	a.stateMu.Unlock()
}

func (a *App) endRecord() {
	a.stateMu.Lock()
	rec := a.record
	a.stateMu.Unlock()

	if a.deps.Store == nil || rec == nil {
		return
	}
	if err := a.deps.Store.Sessions().End(rec.ID); err != nil {
		log.Printf("Failed to close session %s: %v", rec.ID, err)
	}
}

func (a *App) recordInteraction(kind store.InteractionKind, target *scene.Object) {
	a.stateMu.Lock()
	rec := a.record
	a.stateMu.Unlock()

	if a.deps.Store == nil || rec == nil {
		return
	}

	i := &store.Interaction{SessionID: rec.ID, Kind: kind}
	if target != nil {
		i.TargetID = target.ID
		i.X, i.Y, i.Z = target.Position.X, target.Position.Y, target.Position.Z
	}
	if err := a.deps.Store.Interactions().Record(i); err != nil {
		log.Printf("Failed to record %s: %v", kind, err)
	}
}
