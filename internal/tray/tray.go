// Package tray provides the system tray menu for pinchgrab.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onTracking  func(enabled bool)
	onLandmarks func(show bool)
	onOpen      func()
	onQuit      func()
	tracking    bool
	landmarks   bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuTracking  *systray.MenuItem
	menuLandmarks *systray.MenuItem
	menuStatus    *systray.MenuItem
}

// New creates a new Tray with tracking enabled and the given landmark state.
func New(showLandmarks bool) *Tray {
	return &Tray{
		tracking:  true,
		landmarks: showLandmarks,
	}
}

// OnTracking sets the callback for the tracking toggle.
func (t *Tray) OnTracking(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTracking = fn
}

// OnLandmarks sets the callback for the landmark toggle.
func (t *Tray) OnLandmarks(fn func(show bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onLandmarks = fn
}

// OnOpen sets the callback for the open viewer item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("pinchgrab")
	systray.SetTooltip("pinchgrab hand controls")

	t.mu.Lock()
	t.menuTracking = systray.AddMenuItem(trackingTitle(t.tracking), "Toggle hand tracking")
	t.menuLandmarks = systray.AddMenuItem(landmarksTitle(t.landmarks), "Show hand landmarks in the scene")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("Idle", "Current interaction")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Viewer...", "Open the scene viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit pinchgrab")

	go func() {
		for {
			select {
			case <-t.menuTracking.ClickedCh:
				t.toggleTracking()
			case <-t.menuLandmarks.ClickedCh:
				t.toggleLandmarks()
			case <-menuOpen.ClickedCh:
				t.open()
			case <-menuQuit.ClickedCh:
				t.quit()
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) toggleTracking() {
	t.mu.Lock()
	t.tracking = !t.tracking
	enabled := t.tracking
	if t.menuTracking != nil {
		t.menuTracking.SetTitle(trackingTitle(enabled))
	}
	callback := t.onTracking
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) toggleLandmarks() {
	t.mu.Lock()
	t.landmarks = !t.landmarks
	show := t.landmarks
	if t.menuLandmarks != nil {
		t.menuLandmarks.SetTitle(landmarksTitle(show))
	}
	callback := t.onLandmarks
	t.mu.Unlock()

	if callback != nil {
		callback(show)
	}
}

func (t *Tray) open() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) quit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetLandmarks syncs the landmark item with a change made elsewhere.
func (t *Tray) SetLandmarks(show bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.landmarks = show
	if t.menuLandmarks != nil {
		t.menuLandmarks.SetTitle(landmarksTitle(show))
	}
}

// SetStatus updates the status line, e.g. the dragged target.
func (t *Tray) SetStatus(status string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		if status == "" {
			status = "Idle"
		}
		t.menuStatus.SetTitle(status)
	}
}

// TrackingEnabled returns the tracking toggle state.
func (t *Tray) TrackingEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

// LandmarksShown returns the landmark toggle state.
func (t *Tray) LandmarksShown() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.landmarks
}

func trackingTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Tracking paused"
}

func landmarksTitle(show bool) string {
	if show {
		return "☑ Show Landmarks"
	}
	return "☐ Show Landmarks"
}
