package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-glitch/control"
	"github.com/cwbudde/algo-glitch/dsp/glitch"
)

const (
	nudgeStep = 0.05
	barWidth  = 20
)

// Model is the bubbletea model for the front panel.
type Model struct {
	panel    *control.Panel
	status   StatusFunc
	selected control.AxisID
	last     *glitch.Diagnostics
	showDiag bool
	width    int
	height   int
}

// NewModel creates a model over panel. status may be nil.
func NewModel(panel *control.Panel, status StatusFunc) Model {
	return Model{panel: panel, status: status}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return refresh()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case refreshMsg:
		if m.status != nil {
			m.last = m.status()
		}
		return m, refresh()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.panel.Release(control.ButtonMode)
		return m, tea.Quit
	case "left", "shift+tab":
		m.selected = (m.selected + control.NumAxes - 1) % control.NumAxes
	case "right", "tab":
		m.selected = (m.selected + 1) % control.NumAxes
	case "up":
		m.panel.Nudge(m.selected, nudgeStep)
	case "down":
		m.panel.Nudge(m.selected, -nudgeStep)
	case " ", "b":
		m.panel.Tap(control.ButtonBeat)
	case "m":
		m.panel.Tap(control.ButtonMode)
	case "h":
		if m.panel.Held(control.ButtonMode) {
			m.panel.Release(control.ButtonMode)
		} else {
			m.panel.Press(control.ButtonMode)
		}
	case "l":
		m.panel.Tap(control.ButtonLoop)
	case "d":
		m.showDiag = !m.showDiag
	}
	return m, nil
}

// View renders the panel.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString("┌─ Glitch Delay ─────────────────────────────────┐\n")
	for id := range control.NumAxes {
		cursor := " "
		if id == m.selected {
			cursor = ">"
		}
		v := m.panel.Axis(id)
		fmt.Fprintf(&b, "│ %s %-8s [%s] %-12s │\n", cursor, id, renderBar(v, barWidth), axisValue(id, v))
	}
	b.WriteString("├────────────────────────────────────────────────┤\n")
	fmt.Fprintf(&b, "│ beat %s  moving %s  frozen %s  bits %s  hold %s │\n",
		led(m.panel.Indicator(control.IndicatorBeat)),
		led(m.panel.Indicator(control.IndicatorMoving)),
		led(m.panel.Indicator(control.IndicatorFrozen)),
		led(m.panel.Indicator(control.IndicatorReducedBits)),
		led(boolLevel(m.panel.Held(control.ButtonMode))))
	b.WriteString("└────────────────────────────────────────────────┘\n")

	if m.showDiag && m.last != nil {
		b.WriteString(m.last.String())
	}
	b.WriteString("←/→:select ↑/↓:adjust space:beat m:mode h:hold l:loop d:diag q:quit\n")
	return b.String()
}

func axisValue(id control.AxisID, v float64) string {
	switch id {
	case control.AxisSpeed:
		return fmt.Sprintf("x%.3f", control.SpeedFromAxis(v))
	case control.AxisNormalMix, control.AxisOctaveMix, control.AxisReverseMix:
		return fmt.Sprintf("gain %.2f", control.HeadGainFromAxis(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func renderBar(v float64, width int) string {
	filled := int(v*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func led(level float64) string {
	if level >= 0.5 {
		return "●"
	}
	return "○"
}

func boolLevel(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
