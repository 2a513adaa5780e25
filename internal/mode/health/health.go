// Package health implements the registry health-check mode.
package health

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"regatta/internal/keys"
	"regatta/internal/mode"
	"regatta/internal/registry"
	"regatta/internal/ui/styles"
)

// Model holds the health mode state.
type Model struct {
	services mode.Services

	report  *registry.HealthReport
	running bool
	spinner spinner.Model

	viewport viewport.Model

	width  int
	height int
}

type reportMsg struct {
	report *registry.HealthReport
	err    error
}

// New creates a health mode controller.
func New(services mode.Services) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		services: services,
		spinner:  sp,
		viewport: viewport.New(0, 0),
	}
}

// Init runs a health check immediately on entry.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run())
}

// SetSize handles terminal resize.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-2, 10)
	m.viewport.Height = max(height-5, 3)
	if m.report != nil {
		m.viewport.SetContent(m.renderReport())
	}
	return m
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Default.Refresh) {
			if m.running {
				return m, nil
			}
			m.running = true
			return m, tea.Batch(m.spinner.Tick, m.run())
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mode.EnvironmentChangedMsg:
		m.report = nil
		m.running = true
		return m, tea.Batch(m.spinner.Tick, m.run())

	case reportMsg:
		m.running = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		m.report = msg.report
		m.viewport.SetContent(m.renderReport())
		m.viewport.GotoTop()
		return m, nil
	}

	return m, nil
}

func (m Model) run() tea.Cmd {
	env := m.services.Coordinator.Environment()
	client := m.services.Client
	return func() tea.Msg {
		report, err := client.HealthCheck(context.Background(), env)
		return reportMsg{report: report, err: err}
	}
}

func (m Model) renderReport() string {
	r := m.report
	if r == nil {
		return ""
	}

	var b strings.Builder

	summary := fmt.Sprintf("%s · %d issue(s) · %s",
		r.Summary.Status, r.Summary.TotalIssues, r.Timestamp)
	b.WriteString(styles.CheckStatusStyle(r.Summary.Status).Render(summary))
	b.WriteString("\n")
	if r.Endpoint != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render(r.Endpoint))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := r.Checks[name]
		status := styles.CheckStatusStyle(check.Status).Render(fmt.Sprintf("%-8s", check.Status))
		line := fmt.Sprintf("%s %-20s %s", status, name, check.Message)
		if check.Count > 0 {
			line += fmt.Sprintf(" (%d)", check.Count)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// View renders the health mode.
func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Health · %s", m.services.Coordinator.Environment())
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Padding(0, 1).Render(title)
	if m.running {
		header += " " + m.spinner.View() + lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render(" running checks...")
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(styles.StatusBarStyle.Render("r re-run checks"))
	return b.String()
}
