package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"webpify/internal/batch"
	"webpify/internal/optimizer"
)

type Model struct {
	events    <-chan batch.Event
	interrupt func()
	started   time.Time
	width     int
	summary   batch.Summary
	stopping  bool
	quitting  bool
}

type doneMsg struct{}

type eventMsg batch.Event

func NewModel(events <-chan batch.Event) Model {
	return Model{events: events, started: time.Now()}
}

// WithInterrupt sets the function called on ctrl+c. The model keeps draining
// events afterwards so in-flight images can finish.
func (m Model) WithInterrupt(fn func()) Model {
	m.interrupt = fn
	return m
}

func (m Model) Init() tea.Cmd {
	return listenForEvents(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := batch.Event(msg)
		m.summary = ev.Summary
		if ev.Kind == batch.EventSummary {
			return m, listenForEvents(m.events)
		}
		return m, tea.Sequence(tea.Println(RenderEvent(ev)), listenForEvents(m.events))
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.stopping {
			m.stopping = true
			if m.interrupt != nil {
				m.interrupt()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	s := m.summary
	ratio := 0.0
	if s.Total > 0 {
		ratio = float64(s.Processed) / float64(s.Total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("webpify"),
		labelStyle.Render(fmt.Sprintf("Images: %d/%d", s.Processed, s.Total)) +
			dimStyle.Render(fmt.Sprintf("  converted:%d skipped:%d errors:%d", s.Converted, s.Skipped, s.Errors)),
		labelStyle.Render(fmt.Sprintf("Space saved: %s", humanize.Bytes(uint64(max(s.BytesSaved(), 0))))),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}
	if m.stopping {
		lines = append(lines, warnStyle.Render("Stopping after in-flight images..."))
	}

	return strings.Join(lines, "\n")
}

// RenderEvent formats one event as the line printed above the progress view.
func RenderEvent(ev batch.Event) string {
	stamp := dimStyle.Render(ev.Time.Format("15:04:05"))
	style := labelStyle
	switch {
	case ev.Kind == batch.EventWarning:
		style = warnStyle
	case ev.Kind != batch.EventProgress:
	case ev.Outcome.Status == optimizer.StatusConverted:
		style = successStyle
	case ev.Outcome.Status == optimizer.StatusSkipped:
		style = skipStyle
	default:
		style = errorStyle
	}
	return stamp + " " + style.Render(ev.Message)
}

func listenForEvents(events <-chan batch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

// Sink forwards batch events to a Model's channel.
type Sink struct {
	events chan<- batch.Event
}

func NewSink(events chan<- batch.Event) Sink {
	return Sink{events: events}
}

func (s Sink) Emit(ev batch.Event) {
	s.events <- ev
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle     = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle     = lipgloss.NewStyle().Foreground(ColorDim)
	successStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	skipStyle    = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	errorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)
