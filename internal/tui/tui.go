// Package tui is a terminal front panel for the glitch delay. Keys move the
// axes and press the buttons of a control.Panel; the audio goroutine reads
// the same panel through a control.Controller.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-glitch/control"
	"github.com/cwbudde/algo-glitch/dsp/glitch"
)

const refreshInterval = 100 * time.Millisecond

// StatusFunc returns the latest engine snapshot, or nil before the first
// block. It is called from the UI goroutine.
type StatusFunc func() *glitch.Diagnostics

// Run starts the UI on the alternate screen and blocks until the user
// quits.
func Run(panel *control.Panel, status StatusFunc) error {
	p := tea.NewProgram(NewModel(panel, status), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type refreshMsg time.Time

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}
