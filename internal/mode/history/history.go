// Package history implements the operation history mode. Two sources are
// shown behind tabs: the backend's history feed and the local audit trail.
package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"regatta/internal/audit"
	"regatta/internal/keys"
	"regatta/internal/mode"
	"regatta/internal/registry"
	"regatta/internal/ui/styles"
)

// Source identifies which history feed is shown.
type Source int

const (
	SourceServer Source = iota
	SourceLocal
)

// Model holds the history mode state.
type Model struct {
	services mode.Services

	source Source
	table  table.Model

	remote []registry.HistoryEntry
	local  []audit.Entry

	loading bool
	spinner spinner.Model

	width  int
	height int
}

type historyMsg struct {
	remote []registry.HistoryEntry
	local  []audit.Entry
	err    error
}

// New creates a history mode controller.
func New(services mode.Services) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	t := table.New(
		table.WithColumns(serverColumns(80)),
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

func serverColumns(width int) []table.Column {
	op := max(width-56, 16)
	return []table.Column{
		{Title: "Timestamp", Width: 19},
		{Title: "Env", Width: 8},
		{Title: "Operation", Width: op},
		{Title: "User", Width: 12},
		{Title: "Status", Width: 8},
	}
}

func localColumns(width int) []table.Column {
	subjects := max(width-64, 16)
	return []table.Column{
		{Title: "Timestamp", Width: 19},
		{Title: "Env", Width: 8},
		{Title: "Operation", Width: 18},
		{Title: "Subjects", Width: subjects},
		{Title: "Outcome", Width: 7},
		{Title: "OK/Fail", Width: 7},
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
	m.applyColumns()
	m.table.SetWidth(width - 2)
	m.table.SetHeight(max(height-8, 3))
	return m
}

func (m *Model) applyColumns() {
	// Clear rows first: SetColumns panics on a width mismatch with rows.
	m.table.SetRows(nil)
	if m.source == SourceLocal {
		m.table.SetColumns(localColumns(m.width - 4))
	} else {
		m.table.SetColumns(serverColumns(m.width - 4))
	}
	m.table.SetRows(m.rows())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mode.EnvironmentChangedMsg:
		m.remote = nil
		m.local = nil
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())

	case historyMsg:
		m.loading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		m.remote = msg.remote
		m.local = msg.local
		m.table.SetRows(m.rows())
		m.table.SetCursor(0)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Default.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())

	case key.Matches(msg, keys.Default.NextTab), key.Matches(msg, keys.Default.PrevTab),
		key.Matches(msg, keys.Default.Left), key.Matches(msg, keys.Default.Right):
		if m.source == SourceServer {
			m.source = SourceLocal
		} else {
			m.source = SourceServer
		}
		m.applyColumns()
		m.table.SetCursor(0)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) rows() []table.Row {
	if m.source == SourceLocal {
		rows := make([]table.Row, len(m.local))
		for i, e := range m.local {
			rows[i] = table.Row{
				e.CreatedAt.Format(time.DateTime),
				e.Environment,
				e.Operation,
				strings.Join(e.Subjects, ", "),
				e.Outcome,
				fmt.Sprintf("%d/%d", e.SuccessCount, e.FailureCount),
			}
		}
		return rows
	}

	rows := make([]table.Row, len(m.remote))
	for i, e := range m.remote {
		rows[i] = table.Row{e.Timestamp, e.Environment, e.Operation, e.User, e.Status}
	}
	return rows
}

func (m Model) fetch() tea.Cmd {
	env := m.services.Coordinator.Environment()
	limit := m.services.Config.HistoryLimit
	client := m.services.Client
	store := m.services.Audit

	return func() tea.Msg {
		remote, err := client.History(context.Background(), env, limit)
		if err != nil {
			return historyMsg{err: err}
		}
		local, err := store.List(env, limit)
		if err != nil {
			return historyMsg{err: err}
		}
		return historyMsg{remote: remote, local: local}
	}
}

// View renders the history mode.
func (m Model) View() string {
	var b strings.Builder

	serverTab := styles.TabInactiveStyle
	localTab := styles.TabInactiveStyle
	if m.source == SourceServer {
		serverTab = styles.TabActiveStyle
	} else {
		localTab = styles.TabActiveStyle
	}

	count := len(m.remote)
	if m.source == SourceLocal {
		count = len(m.local)
	}
	title := "History"
	if m.services.Config.UI.ShowCounts {
		title = "History (" + strconv.Itoa(count) + ")"
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Padding(0, 1).Render(title)
	if m.loading {
		header += " " + m.spinner.View()
	}

	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Bottom,
		serverTab.Render("server"), localTab.Render("local audit")))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(styles.StatusBarStyle.Render("tab switch source · r refresh"))
	return b.String()
}
