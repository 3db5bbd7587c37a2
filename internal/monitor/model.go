package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/techposts/ambisense-bridge/internal/bridge"
	"github.com/techposts/ambisense-bridge/internal/device"
	"github.com/techposts/ambisense-bridge/internal/params"
	"github.com/techposts/ambisense-bridge/internal/state"
)

// Color palette for the monitor dashboard
var (
	primaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	successColor = lipgloss.Color("#43BF6D") // Green - available, enabled
	errorColor   = lipgloss.Color("#FF5555") // Red - unavailable, errors
	mutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	textColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(primaryColor).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(textColor)

	availableStyle   = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	unavailableStyle = lipgloss.NewStyle().Foreground(errorColor).Bold(true)

	helpStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// keyMap defines the monitor key bindings
type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh now"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Message types for async operations
type refreshDoneMsg struct {
	snap      state.Snapshot
	available bool
	err       error
}

type tickMsg time.Time

// Model is the live snapshot dashboard. It drives the bridge's Refresh
// on the poll interval and renders the reconciled snapshot; a manual
// refresh joins any in-flight cycle instead of doubling up on the
// device.
type Model struct {
	bridge  *bridge.Bridge
	host    string
	spinner spinner.Model

	snap       state.Snapshot
	available  bool
	lastErr    error
	lastUpdate time.Time
	refreshing bool
}

// New creates a monitor model for a bridge.
func New(b *bridge.Bridge, host string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		bridge:  b,
		host:    host,
		spinner: sp,
		snap:    b.Snapshot(),
	}
}

// Init starts the spinner, the first refresh and the poll timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmd(), m.tickCmd())
}

func (m Model) refreshCmd() tea.Cmd {
	b := m.bridge
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		snap, err := b.Refresh(ctx)
		return refreshDoneMsg{snap: snap, available: b.Available(), err: err}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.bridge.Interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refreshCmd()
		}

	case refreshDoneMsg:
		m.refreshing = false
		m.snap = msg.snap
		m.available = msg.available
		m.lastErr = msg.err
		m.lastUpdate = time.Now()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{m.tickCmd()}
		if !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, m.refreshCmd())
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("AmbiSense Monitor"))
	b.WriteString("  ")
	b.WriteString(valueStyle.Render(m.host))
	b.WriteString("  ")
	if m.available {
		b.WriteString(availableStyle.Render("● online"))
	} else {
		b.WriteString(unavailableStyle.Render("● offline"))
	}
	if m.refreshing {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n\n")

	s := m.snap.Settings

	b.WriteString(sectionStyle.Render("Sensor") + "\n")
	b.WriteString(row("Distance", fmt.Sprintf("%d cm", m.snap.DistanceCm)))
	b.WriteString(row("Range", fmt.Sprintf("%d - %d cm", s.MinDistanceCm, s.MaxDistanceCm)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Light") + "\n")
	b.WriteString(row("Mode", params.LightModeName(s.LightMode)))
	b.WriteString(row("Brightness", fmt.Sprintf("%d", s.Brightness)))
	b.WriteString(row("Color", fmt.Sprintf("RGB(%d, %d, %d)", s.Red, s.Green, s.Blue)))
	b.WriteString(row("Strip", fmt.Sprintf("%d LEDs, span %d", s.NumLeds, s.MovingLightSpan)))
	b.WriteString(row("Center shift", fmt.Sprintf("%d", s.CenterShift)))
	b.WriteString(row("Trail length", fmt.Sprintf("%d", s.TrailLength)))
	b.WriteString(row("Background mode", onOff(s.BackgroundMode)))
	b.WriteString(row("Directional light", onOff(s.DirectionalLight)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Effects") + "\n")
	b.WriteString(row("Speed", fmt.Sprintf("%d", s.EffectSpeed)))
	b.WriteString(row("Intensity", fmt.Sprintf("%d", s.EffectIntensity)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Motion smoothing") + "\n")
	b.WriteString(row("Enabled", onOff(s.MotionSmoothingEnabled)))
	b.WriteString(row("Position factor", fmt.Sprintf("%.2f", s.PositionSmoothingFactor)))
	b.WriteString(row("Velocity factor", fmt.Sprintf("%.2f", s.VelocitySmoothingFactor)))
	b.WriteString(row("Prediction", fmt.Sprintf("%.2f", s.PredictionFactor)))
	b.WriteString(row("P gain", fmt.Sprintf("%.2f", s.PositionPGain)))
	b.WriteString(row("I gain", fmt.Sprintf("%.3f", s.PositionIGain)))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(unavailableStyle.Render(device.GetShortErrorMessage(m.lastErr)) + "\n")
	}
	if !m.lastUpdate.IsZero() {
		b.WriteString(helpStyle.Render(fmt.Sprintf("Updated %s", m.lastUpdate.Format("15:04:05"))) + "\n")
	}
	b.WriteString(helpStyle.Render("r refresh now • q quit"))
	b.WriteString("\n")

	return b.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
