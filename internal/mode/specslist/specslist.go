// Package specslist implements the stored specs listing mode.
package specslist

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"regatta/internal/asyncapi"
	"regatta/internal/keys"
	"regatta/internal/mode"
	"regatta/internal/registry"
	"regatta/internal/ui/styles"
)

// Model holds the specs list mode state.
type Model struct {
	services mode.Services

	table table.Model
	specs []registry.SpecSummary

	loading bool
	opening bool
	spinner spinner.Model

	width  int
	height int
}

type specsMsg struct {
	specs []registry.SpecSummary
	err   error
}

type loadedMsg struct {
	artifact *asyncapi.Artifact
	err      error
}

// New creates a specs list mode controller.
func New(services mode.Services) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.Foreground(styles.TextMutedColor).Bold(false)
	st.Selected = st.Selected.
		Foreground(styles.SelectionIndicatorColor).
		Background(styles.ButtonSecondaryFocusBgColor).
		Bold(true)
	t.SetStyles(st)

	return Model{
		services: services,
		table:    t,
		spinner:  sp,
	}
}

func columns(width int) []table.Column {
	flex := max(width-44, 24)
	return []table.Column{
		{Title: "Topic", Width: flex / 2},
		{Title: "Title", Width: flex - flex/2},
		{Title: "Version", Width: 7},
		{Title: "Channels", Width: 8},
		{Title: "Created", Width: 19},
	}
}

// Init kicks off the initial fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// SetSize handles terminal resize.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width - 4))
	m.table.SetWidth(width - 2)
	m.table.SetHeight(max(height-6, 3))
	return m
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading && !m.opening {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case specsMsg:
		m.loading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		m.specs = msg.specs
		m.table.SetRows(m.rows())
		m.table.SetCursor(0)
		return m, nil

	case loadedMsg:
		m.opening = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		return m, func() tea.Msg {
			return mode.ShowSpecMsg{Artifact: msg.artifact, Return: mode.ModeSpecsList}
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Default.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())

	case key.Matches(msg, keys.Default.Enter):
		if m.opening || m.loading {
			return m, nil
		}
		idx := m.table.Cursor()
		if idx < 0 || idx >= len(m.specs) {
			return m, nil
		}
		m.opening = true
		return m, tea.Batch(m.spinner.Tick, m.open(m.specs[idx].Filename))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, len(m.specs))
	for i, s := range m.specs {
		rows[i] = table.Row{
			asyncapi.TopicFromFilename(s.Filename),
			s.Title,
			s.Version,
			strconv.Itoa(s.Channels),
			s.Created,
		}
	}
	return rows
}

func (m Model) fetch() tea.Cmd {
	workflow := m.services.Workflow
	return func() tea.Msg {
		specs, err := workflow.List(context.Background())
		return specsMsg{specs: specs, err: err}
	}
}

func (m Model) open(filename string) tea.Cmd {
	workflow := m.services.Workflow
	return func() tea.Msg {
		artifact, err := workflow.View(context.Background(), filename)
		return loadedMsg{artifact: artifact, err: err}
	}
}

// View renders the specs list mode.
func (m Model) View() string {
	var b strings.Builder

	title := "Stored Specs"
	if m.services.Config.UI.ShowCounts {
		title = fmt.Sprintf("Stored Specs (%d)", len(m.specs))
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Padding(0, 1).Render(title)
	if m.loading || m.opening {
		header += " " + m.spinner.View()
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(styles.StatusBarStyle.Render("enter view spec · r refresh"))
	return b.String()
}
