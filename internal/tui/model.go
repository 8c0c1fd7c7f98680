// Package tui provides the BubbleTea live view of the orientation sensor.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/trigg/orientprompt/internal/orientation"
	"github.com/trigg/orientprompt/internal/sensor"
)

// maxEvents bounds the event log.
const maxEvents = 20

// EventKind classifies a log entry.
type EventKind int

const (
	EventAppeared EventKind = iota
	EventVanished
	EventOrientation
)

// Event is one entry in the monitor's log.
type Event struct {
	Kind  EventKind
	Value string
	At    time.Time
}

// SensorAppearedMsg reports the sensor proxy appearing on the bus.
type SensorAppearedMsg struct{ At time.Time }

// SensorVanishedMsg reports the sensor proxy leaving the bus.
type SensorVanishedMsg struct{ At time.Time }

// OrientationMsg carries a new orientation reading.
type OrientationMsg struct {
	Value string
	At    time.Time
}

type tickMsg time.Time

// Model is the monitor TUI model.
type Model struct {
	spinner spinner.Model
	help    help.Model
	keys    KeyMap

	present     bool
	orientation string
	lastChange  time.Time
	events      []Event

	width int
	now   func() time.Time
}

// New creates a monitor model waiting for the sensor.
func New() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return Model{
		spinner: s,
		help:    help.New(),
		keys:    DefaultKeyMap(),
		now:     time.Now,
	}
}

// Init starts the spinner and the clock used for relative times.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Clear):
			m.events = nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case SensorAppearedMsg:
		m.present = true
		m.record(Event{Kind: EventAppeared, At: msg.At})
		return m, nil

	case SensorVanishedMsg:
		m.present = false
		m.orientation = ""
		m.record(Event{Kind: EventVanished, At: msg.At})
		return m, nil

	case OrientationMsg:
		if msg.Value == m.orientation {
			return m, nil
		}
		m.orientation = msg.Value
		m.lastChange = msg.At
		m.record(Event{Kind: EventOrientation, Value: msg.Value, At: msg.At})
		return m, nil

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) record(e Event) {
	m.events = append(m.events, e)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

// Present reports whether the sensor is on the bus.
func (m Model) Present() bool {
	return m.present
}

// Orientation returns the last reading.
func (m Model) Orientation() string {
	return m.orientation
}

// Events returns the event log, oldest first.
func (m Model) Events() []Event {
	return m.events
}

// View renders the TUI.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))
	valueStyle := lipgloss.NewStyle().
		Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("orientprompt monitor") + "\n")

	if !m.present {
		b.WriteString(m.spinner.View() + " Waiting for " + sensor.BusName + "...\n")
	} else {
		o := orientation.Orientation(m.orientation)
		value := m.orientation
		if value == "" {
			value = "no reading"
		}
		b.WriteString(labelStyle.Render("Orientation: ") + valueStyle.Render(value) + "\n")

		if transform, ok := o.Transform(); ok {
			b.WriteString(labelStyle.Render("Transform:   ") + string(transform) + "\n")
		}
		if !m.lastChange.IsZero() {
			b.WriteString(labelStyle.Render("Changed:     ") + humanize.RelTime(m.lastChange, m.now(), "ago", "from now") + "\n")
		}
	}

	if len(m.events) > 0 {
		b.WriteString("\n" + labelStyle.Render("Events:") + "\n")
		for i := len(m.events) - 1; i >= 0; i-- {
			b.WriteString("  " + m.renderEvent(m.events[i]) + "\n")
		}
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) renderEvent(e Event) string {
	when := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(fmt.Sprintf("%-16s", humanize.RelTime(e.At, m.now(), "ago", "from now")))

	switch e.Kind {
	case EventAppeared:
		return when + lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("sensor appeared")
	case EventVanished:
		return when + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("sensor vanished")
	default:
		return when + "orientation " + e.Value
	}
}

// RunOptions configures the monitor.
type RunOptions struct {
	Watcher *sensor.Watcher
}

// Run starts the sensor watcher and the TUI, stopping both on exit.
func Run(ctx context.Context, opts RunOptions) error {
	p := tea.NewProgram(New(), tea.WithContext(ctx))

	w := opts.Watcher
	w.OnAppeared(func() {
		p.Send(SensorAppearedMsg{At: time.Now()})
	})
	w.OnVanished(func() {
		p.Send(SensorVanishedMsg{At: time.Now()})
	})
	w.OnOrientation(func(value string) {
		p.Send(OrientationMsg{Value: value, At: time.Now()})
	})

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	_, err := p.Run()
	return err
}
