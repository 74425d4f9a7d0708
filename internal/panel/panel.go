// Package panel provides the terminal settings panel.
package panel

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ayusman/pinchgrab/internal/app"
)

// RefreshInterval is how often the panel polls stats.
const RefreshInterval = 250 * time.Millisecond

// Controls is the orchestrator surface the panel drives.
type Controls interface {
	Stats() app.Stats
	SessionConfig() app.SessionConfig
	SetShowLandmarks(show bool) error
}

// Tracking switches the detection service on and off.
type Tracking interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model for the panel.
type Model struct {
	controls Controls
	tracking Tracking
	stats    app.Stats
	settings app.SessionConfig
	tracked  bool
	err      error
}

// New creates a panel model. tracking may be nil.
func New(controls Controls, tracking Tracking) Model {
	m := Model{controls: controls, tracking: tracking}
	return m.refresh()
}

func (m Model) refresh() Model {
	m.stats = m.controls.Stats()
	m.settings = m.controls.SessionConfig()
	if m.tracking != nil {
		m.tracked = m.tracking.IsEnabled()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m.refresh(), tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "l":
			m.err = m.controls.SetShowLandmarks(!m.settings.ShowLandmarks)
			return m.refresh(), nil
		case "t":
			if m.tracking != nil {
				m.tracking.SetEnabled(!m.tracking.IsEnabled())
			}
			return m.refresh(), nil
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString("pinchgrab\n")
	b.WriteString("=========\n\n")

	if !m.stats.Ready {
		b.WriteString("Scene: loading\n")
	} else {
		b.WriteString("Scene: ready\n")
	}
	b.WriteString(fmt.Sprintf("Cursor: %s\n", m.stats.CursorName))
	if m.stats.DragTarget != "" {
		b.WriteString(fmt.Sprintf("Dragging: %s\n", m.stats.DragTarget))
	} else {
		b.WriteString("Dragging: none\n")
	}
	b.WriteString(fmt.Sprintf("Frames: %d forwarded, %d dropped\n", m.stats.ForwardedFrames, m.stats.DroppedFrames))
	b.WriteString(fmt.Sprintf("Ticks: %d  Collisions: %d\n\n", m.stats.Ticks, m.stats.Collisions))

	b.WriteString(fmt.Sprintf("[l] Landmarks: %s\n", onOff(m.settings.ShowLandmarks)))
	if m.tracking != nil {
		b.WriteString(fmt.Sprintf("[t] Tracking:  %s\n", onOff(m.tracked)))
	}

	if m.err != nil {
		b.WriteString(fmt.Sprintf("\nError: %v\n", m.err))
	}

	b.WriteString("\n(Press q to quit)")
	return b.String()
}

// Err returns the last toggle error.
func (m Model) Err() error {
	return m.err
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// Run shows the panel until the user quits or ctx is done.
func Run(ctx context.Context, controls Controls, tracking Tracking) error {
	program := tea.NewProgram(New(controls, tracking), tea.WithContext(ctx))
	_, err := program.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
