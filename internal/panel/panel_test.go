package panel

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/pinchgrab/internal/app"
)

type fakeControls struct {
	mu       sync.Mutex
	stats    app.Stats
	settings app.SessionConfig
	err      error
	sets     int
}

func (f *fakeControls) Stats() app.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeControls) SessionConfig() app.SessionConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeControls) SetShowLandmarks(show bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.err != nil {
		return f.err
	}
	f.settings.ShowLandmarks = show
	return nil
}

type fakeTracking struct{ enabled bool }

func (f *fakeTracking) SetEnabled(enabled bool) { f.enabled = enabled }
func (f *fakeTracking) IsEnabled() bool         { return f.enabled }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	require.True(t, ok, "Update should return a panel Model")
	return got, cmd
}

func TestModel_ToggleLandmarks(t *testing.T) {
	controls := &fakeControls{stats: app.Stats{Ready: true, CursorName: "open"}}
	m := New(controls, nil)
	assert.Contains(t, m.View(), "[l] Landmarks: off")

	m, cmd := update(t, m, runes("l"))
	assert.Nil(t, cmd)
	assert.True(t, controls.settings.ShowLandmarks)
	assert.Contains(t, m.View(), "[l] Landmarks: on")

	m, _ = update(t, m, runes("l"))
	assert.False(t, controls.settings.ShowLandmarks)
	assert.Equal(t, 2, controls.sets)
	assert.Contains(t, m.View(), "[l] Landmarks: off")
}

func TestModel_ToggleError(t *testing.T) {
	controls := &fakeControls{err: errors.New("disk full")}
	m := New(controls, nil)

	m, _ = update(t, m, runes("l"))
	assert.EqualError(t, m.Err(), "disk full")
	assert.Contains(t, m.View(), "Error: disk full")
	assert.False(t, controls.settings.ShowLandmarks)
}

func TestModel_ToggleTracking(t *testing.T) {
	tracking := &fakeTracking{enabled: true}
	m := New(&fakeControls{}, tracking)
	assert.Contains(t, m.View(), "[t] Tracking:  on")

	m, _ = update(t, m, runes("t"))
	assert.False(t, tracking.enabled)
	assert.Contains(t, m.View(), "[t] Tracking:  off")

	t.Run("hidden without a tracker", func(t *testing.T) {
		m := New(&fakeControls{}, nil)
		m, _ = update(t, m, runes("t"))
		assert.NotContains(t, m.View(), "Tracking")
	})
}

func TestModel_Quit(t *testing.T) {
	keys := []tea.KeyMsg{
		runes("q"),
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	}
	for _, key := range keys {
		t.Run(key.String(), func(t *testing.T) {
			_, cmd := update(t, New(&fakeControls{}, nil), key)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}

func TestModel_TickRefreshesStats(t *testing.T) {
	controls := &fakeControls{}
	m := New(controls, nil)
	assert.Contains(t, m.View(), "Scene: loading")

	controls.mu.Lock()
	controls.stats = app.Stats{Ready: true, CursorName: "closed", DragTarget: "t-1", ForwardedFrames: 12, DroppedFrames: 3}
	controls.mu.Unlock()

	m, cmd := update(t, m, tickMsg{})
	assert.NotNil(t, cmd, "tick should reschedule itself")

	view := m.View()
	assert.Contains(t, view, "Scene: ready")
	assert.Contains(t, view, "Cursor: closed")
	assert.Contains(t, view, "Dragging: t-1")
	assert.Contains(t, view, "Frames: 12 forwarded, 3 dropped")
}

func TestModel_IgnoresOtherKeys(t *testing.T) {
	controls := &fakeControls{}
	m := New(controls, nil)

	_, cmd := update(t, m, runes("x"))
	assert.Nil(t, cmd)
	assert.Zero(t, controls.sets)
}
