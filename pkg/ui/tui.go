// Package ui provides the Bubble Tea dashboard for the evaluation engine.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/arbeval/business/evaluation/domain"
)

// Program is the running Bubble Tea program; set by main so collaborators
// can push messages into the UI.
var Program *tea.Program

// Send delivers a message to the running program, dropping it when the
// UI is not active.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}

const maxRows = 50

// Model is the main Bubble Tea model for the dashboard.
type Model struct {
	table table.Model
	keys  KeyMap
	help  help.Model

	evaluations []*domain.Evaluation

	// Counters
	total    uint64
	approved uint64

	paused   bool
	quitting bool
	width    int
	height   int

	lastError  string
	lastUpdate time.Time
	thresholds string
}

// New creates a new dashboard model.
func New() Model {
	columns := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Pair", Width: 10},
		{Title: "Route", Width: 24},
		{Title: "Size", Width: 9},
		{Title: "Spread", Width: 8},
		{Title: "Net", Width: 10},
		{Title: "Risk", Width: 12},
		{Title: "Verdict", Width: 9},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(ColorPrimary)
	t.SetStyles(s)

	return Model{
		table:       t,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		evaluations: make([]*domain.Evaluation, 0, maxRows),
	}
}

// Init initializes the dashboard model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd refreshes the header clock twice a second.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(5, m.height-9))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.evaluations = m.evaluations[:0]
			m.table.SetRows(nil)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case EvaluationMsg:
		if m.paused || msg.Evaluation == nil {
			return m, nil
		}
		m.total++
		if msg.Evaluation.Approved {
			m.approved++
		}
		m.evaluations = append([]*domain.Evaluation{msg.Evaluation}, m.evaluations...)
		if len(m.evaluations) > maxRows {
			m.evaluations = m.evaluations[:maxRows]
		}
		m.table.SetRows(m.rows())
		m.lastUpdate = time.Now()
		return m, nil

	case ThresholdsMsg:
		m.thresholds = msg.Description
		return m, nil

	case ErrorMsg:
		if msg.Error != nil {
			m.lastError = msg.Error.Error()
		}
		return m, nil

	case TickMsg:
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.evaluations))
	for _, ev := range m.evaluations {
		verdict := NegativeValue.Render("REJECT")
		if ev.Approved {
			verdict = PositiveValue.Render("APPROVE")
		}
		rows = append(rows, table.Row{
			ev.EvaluatedAt.Format("15:04:05"),
			ev.Candidate.Pair.String(),
			fmt.Sprintf("%s>%s", ev.Candidate.BuyVenue, ev.Candidate.SellVenue),
			fmt.Sprintf("$%.0f", ev.Candidate.NotionalUSD),
			fmt.Sprintf("%.0fbps", ev.Spread.BasisPoints),
			"$" + ev.Costs.NetProfitUSD.StringFixed(2),
			fmt.Sprintf("%.2f %s", ev.Risk.Score, ev.Risk.Level),
			verdict,
		})
	}
	return rows
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder

	title := TitleStyle.Render(" arbeval ")
	status := fmt.Sprintf(" %d evaluated  %d approved", m.total, m.approved)
	if m.paused {
		status += "  " + StatusReconnecting.Render("PAUSED")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, title, MutedValue.Render(status)))
	b.WriteString("\n")

	if m.thresholds != "" {
		b.WriteString(HelpStyle.Render("thresholds: " + m.thresholds))
		b.WriteString("\n")
	}

	b.WriteString(BoxStyle.Render(m.table.View()))
	b.WriteString("\n")

	if m.lastError != "" {
		b.WriteString(NegativeValue.Render("error: " + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
