// Package topics implements the topic listing mode and the entry point of
// spec generation.
package topics

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
	"regatta/internal/cachemanager"
	"regatta/internal/keys"
	"regatta/internal/mode"
	"regatta/internal/registry"
	"regatta/internal/ui/styles"
	"regatta/internal/ui/toaster"
)

// Model holds the topics mode state.
type Model struct {
	services mode.Services

	table  table.Model
	topics []registry.TopicSummary

	loading    bool
	generating bool
	spinner    spinner.Model

	width  int
	height int
}

type topicsMsg struct {
	topics []registry.TopicSummary
	err    error
}

type generatedMsg struct {
	artifact *asyncapi.Artifact
	err      error
}

// New creates a topics mode controller.
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
	name := max(width-36, 20)
	return []table.Column{
		{Title: "Topic", Width: name},
		{Title: "Partitions", Width: 10},
		{Title: "Schemas", Width: 7},
		{Title: "Key", Width: 4},
		{Title: "Value", Width: 5},
	}
}

// Init kicks off the initial topic fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(false))
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
		if !m.loading && !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mode.EnvironmentChangedMsg:
		m.topics = nil
		m.table.SetRows(nil)
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch(false))

	case topicsMsg:
		m.loading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		m.topics = msg.topics
		m.table.SetRows(m.rows())
		m.table.SetCursor(0)
		return m, nil

	case generatedMsg:
		m.generating = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		return m, tea.Batch(
			mode.Toast(fmt.Sprintf("Spec generated for %q", msg.artifact.Topic), toaster.StyleSuccess),
			func() tea.Msg {
				return mode.ShowSpecMsg{Artifact: msg.artifact, Return: mode.ModeTopics}
			},
		)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Default.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch(true))

	case key.Matches(msg, keys.Default.Generate), key.Matches(msg, keys.Default.Enter):
		// Generation is single-flight: further presses are ignored until the
		// current request resolves.
		if m.generating || m.loading {
			return m, nil
		}
		topic, ok := m.selectedTopic()
		if !ok {
			return m, nil
		}
		if topic.SchemasCount == 0 {
			return m, mode.Toast(fmt.Sprintf("Topic %q has no associated schemas", topic.Name), toaster.StyleWarn)
		}
		m.generating = true
		return m, tea.Batch(m.spinner.Tick, m.generate(topic))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) selectedTopic() (registry.TopicSummary, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.topics) {
		return registry.TopicSummary{}, false
	}
	return m.topics[idx], true
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, len(m.topics))
	for i, t := range m.topics {
		rows[i] = table.Row{
			t.Name,
			strconv.Itoa(t.Partitions),
			strconv.Itoa(t.SchemasCount),
			yesNo(t.HasKeySchema),
			yesNo(t.HasValueSchema),
		}
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func (m Model) fetch(force bool) tea.Cmd {
	env := m.services.Coordinator.Environment()
	cache := m.services.Topics
	client := m.services.Client

	return func() tea.Msg {
		ctx := context.Background()
		if force {
			_ = cache.Flush(ctx)
		} else if cached, ok := cache.Get(ctx, env); ok {
			return topicsMsg{topics: cached}
		}
		topics, err := client.Topics(ctx, env)
		if err != nil {
			return topicsMsg{err: err}
		}
		cache.Set(ctx, env, topics, cachemanager.DefaultExpiration)
		return topicsMsg{topics: topics}
	}
}

func (m Model) generate(topic registry.TopicSummary) tea.Cmd {
	env := m.services.Coordinator.Environment()
	workflow := m.services.Workflow

	return func() tea.Msg {
		artifact, err := workflow.Generate(context.Background(), env, topic)
		return generatedMsg{artifact: artifact, err: err}
	}
}

// View renders the topics mode.
func (m Model) View() string {
	var b strings.Builder

	title := "Topics"
	if m.services.Config.UI.ShowCounts {
		title = fmt.Sprintf("Topics (%d)", len(m.topics))
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Padding(0, 1).Render(title)
	if m.loading || m.generating {
		header += " " + m.spinner.View()
	}
	if m.generating {
		header += lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render(" generating...")
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(styles.StatusBarStyle.Render("g/enter generate spec · r refresh"))
	return b.String()
}
