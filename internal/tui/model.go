package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mxprobe/internal/logging"
	"mxprobe/internal/report"
)

// CollectFunc produces a fresh report; it runs off the UI goroutine.
type CollectFunc func(ctx context.Context) report.Report

// probeDoneMsg carries a finished probe run back into Update
type probeDoneMsg struct {
	report   report.Report
	duration time.Duration
}

// Model is the interactive probe view
type Model struct {
	startTime time.Time
	quitting  bool

	logger  *logging.Logger
	collect CollectFunc

	probing      bool
	runs         int
	lastDuration time.Duration
	report       report.Report
	hasReport    bool
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	busyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd700"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).MarginTop(1)
)

// NewModel creates the model; the first probe starts from Init
func NewModel(collect CollectFunc, logger *logging.Logger) Model {
	return Model{
		startTime: time.Now(),
		logger:    logger,
		collect:   collect,
		probing:   true,
	}
}

// Init starts the first probe run
func (m Model) Init() tea.Cmd {
	return m.probeCmd()
}

func (m Model) probeCmd() tea.Cmd {
	collect := m.collect
	return func() tea.Msg {
		started := time.Now()
		r := collect(context.Background())
		return probeDoneMsg{report: r, duration: time.Since(started)}
	}
}

// Update handles key presses and finished probe runs
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case probeDoneMsg:
		m.probing = false
		m.runs++
		m.report = msg.report
		m.hasReport = true
		m.lastDuration = msg.duration
		m.logger.Debug("tui.probe.done", "Probe run finished", map[string]interface{}{
			"run":         m.runs,
			"duration_ms": msg.duration.Milliseconds(),
		})
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		if m.probing {
			return m, nil
		}
		m.probing = true
		return m, m.probeCmd()
	}
	return m, nil
}

// View renders the current state
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	view := titleStyle.Render("mxprobe") + "\n"

	switch {
	case m.probing && !m.hasReport:
		view += busyStyle.Render("Probing MXNet installation…") + "\n"
	case m.probing:
		view += busyStyle.Render("Re-probing…") + "\n\n" + report.Render(m.report)
	default:
		view += report.Render(m.report)
		view += fmt.Sprintf("\nRun %d took %s\n", m.runs, m.lastDuration.Round(time.Millisecond))
	}

	view += helpStyle.Render("r: re-run probe • q: quit")
	return view + "\n"
}
