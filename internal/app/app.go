// Package app contains the root application model.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"regatta/internal/keys"
	"regatta/internal/log"
	"regatta/internal/mode"
	"regatta/internal/mode/chat"
	"regatta/internal/mode/health"
	"regatta/internal/mode/history"
	"regatta/internal/mode/schemas"
	"regatta/internal/mode/specslist"
	"regatta/internal/mode/specviewer"
	"regatta/internal/mode/topics"
	"regatta/internal/registry"
	"regatta/internal/session"
	"regatta/internal/ui/overlay"
	"regatta/internal/ui/styles"
	"regatta/internal/ui/toaster"
)

// Model is the root application state.
type Model struct {
	// Mode management
	currentMode mode.AppMode
	schemas     schemas.Model
	topics      topics.Model
	specViewer  specviewer.Model
	specsList   specslist.Model
	history     history.Model
	health      health.Model
	chat        chat.Model

	// Shared services (passed to mode controllers)
	services mode.Services

	// Environment selection
	envs       []registry.Environment
	pickerOpen bool
	pickerIdx  int

	// Centralized toaster - owned by app, not individual modes
	toaster toaster.Model

	// fatal, when set, is rendered as the final frame before quitting.
	fatal string

	width  int
	height int
}

type environmentsMsg struct {
	envs []registry.Environment
	err  error
}

// New creates the application model. The environment picker opens on startup
// unless the configured environment matches a configured backend target.
func New(services mode.Services) Model {
	return Model{
		currentMode: mode.ModeSchemas,
		schemas:     schemas.New(services),
		topics:      topics.New(services),
		specViewer:  specviewer.New(services),
		specsList:   specslist.New(services),
		history:     history.New(services),
		health:      health.New(services),
		chat:        chat.New(services),
		services:    services,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.fetchEnvironments()
}

func (m Model) fetchEnvironments() tea.Cmd {
	client := m.services.Client
	return func() tea.Msg {
		envs, err := client.Environments(context.Background())
		return environmentsMsg{envs: envs, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.schemas = m.schemas.SetSize(msg.Width, msg.Height)
		m.topics = m.topics.SetSize(msg.Width, msg.Height)
		m.specViewer = m.specViewer.SetSize(msg.Width, msg.Height)
		m.specsList = m.specsList.SetSize(msg.Width, msg.Height)
		m.history = m.history.SetSize(msg.Width, msg.Height)
		m.health = m.health.SetSize(msg.Width, msg.Height)
		m.chat = m.chat.SetSize(msg.Width, msg.Height)
		return m, nil

	case environmentsMsg:
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		m.envs = configured(msg.envs)
		if len(m.envs) == 0 {
			m.fatal = "No configured environments. Check the backend configuration."
			return m, tea.Quit
		}
		// Preselect the configured environment when it is usable.
		for _, env := range m.envs {
			if env.Name == m.services.Config.Environment {
				return m.selectEnvironment(env.Name)
			}
		}
		m.pickerOpen = true
		m.pickerIdx = 0
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case mode.SwitchModeMsg:
		return m.switchMode(msg.Mode)

	case mode.ShowSpecMsg:
		log.Info(log.CatMode, "Switching mode", "to", "specviewer", "topic", msg.Artifact.Topic)
		m.specViewer = m.specViewer.SetArtifact(msg.Artifact, msg.Return)
		m.specViewer = m.specViewer.SetSize(m.width, m.height)
		m.currentMode = mode.ModeSpecViewer
		return m, nil

	case mode.ShowToastMsg:
		m.toaster = m.toaster.Show(msg.Message, msg.Style)
		return m, toaster.ScheduleDismiss(3 * time.Second)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil

	case mode.AuthRejectedMsg:
		// The backend rejected our credentials: clear them and stop. No
		// automatic retry - the user re-enters credentials on next start.
		log.Warn(log.CatAuth, "Credentials rejected, clearing stored credentials")
		session.Clear()
		m.fatal = "Authentication rejected by the backend.\nStored credentials were cleared - restart and enter new ones."
		return m, tea.Quit
	}

	if _, ok := msg.(tea.MouseMsg); ok {
		return m.updateActiveMode(msg)
	}
	// Everything else (async results, ticks) is broadcast so in-flight
	// operations resolve even after the user switches modes.
	return m.broadcast(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.pickerOpen {
		return m.handlePickerKey(msg)
	}

	// Global keys are skipped while a mode is capturing text input.
	capturing := (m.currentMode == mode.ModeSchemas && m.schemas.Capturing()) ||
		(m.currentMode == mode.ModeChat && m.chat.InputFocused())
	if !capturing {
		switch {
		case key.Matches(msg, keys.Default.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Default.Environment):
			if len(m.envs) > 0 {
				m.pickerOpen = true
				m.pickerIdx = m.currentEnvIndex()
			}
			return m, nil
		case key.Matches(msg, keys.Default.Schemas):
			return m.switchMode(mode.ModeSchemas)
		case key.Matches(msg, keys.Default.Topics):
			return m.switchMode(mode.ModeTopics)
		case key.Matches(msg, keys.Default.SpecsList):
			return m.switchMode(mode.ModeSpecsList)
		case key.Matches(msg, keys.Default.History):
			return m.switchMode(mode.ModeHistory)
		case key.Matches(msg, keys.Default.Health):
			return m.switchMode(mode.ModeHealth)
		case key.Matches(msg, keys.Default.Chat):
			return m.switchMode(mode.ModeChat)
		}
	}

	return m.updateActiveMode(msg)
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Default.Up):
		if m.pickerIdx > 0 {
			m.pickerIdx--
		}
	case key.Matches(msg, keys.Default.Down):
		if m.pickerIdx < len(m.envs)-1 {
			m.pickerIdx++
		}
	case key.Matches(msg, keys.Default.Enter):
		return m.selectEnvironment(m.envs[m.pickerIdx].Name)
	case key.Matches(msg, keys.Default.Escape):
		// Esc only closes the picker once an environment is active.
		if m.services.Coordinator.Environment() != "" {
			m.pickerOpen = false
		}
	}
	return m, nil
}

// selectEnvironment activates env: the coordinator is retargeted, pending
// state and caches dropped, and every mode told to refetch.
func (m Model) selectEnvironment(env string) (tea.Model, tea.Cmd) {
	previous := m.services.Coordinator.Environment()
	m.pickerOpen = false
	if env == previous {
		return m, nil
	}

	log.Info(log.CatMode, "Environment selected", "env", env, "previous", previous)
	m.services.Coordinator.SetEnvironment(env)
	m.services.Workflow.Clear()
	ctx := context.Background()
	if err := m.services.Subjects.Flush(ctx); err != nil {
		log.Warn(log.CatCache, "Failed to flush subject cache", "error", err)
	}
	if err := m.services.Topics.Flush(ctx); err != nil {
		log.Warn(log.CatCache, "Failed to flush topic cache", "error", err)
	}

	// A stale spec viewer has nothing to show: leave it.
	if m.currentMode == mode.ModeSpecViewer {
		m.currentMode = mode.ModeTopics
	}

	return m.broadcast(mode.EnvironmentChangedMsg{Env: env})
}

// switchMode activates a mode and re-runs its Init so listings are fresh
// (served from cache when still warm).
func (m Model) switchMode(target mode.AppMode) (tea.Model, tea.Cmd) {
	if target == m.currentMode {
		return m, nil
	}
	log.Info(log.CatMode, "Switching mode", "from", m.currentMode, "to", target)
	m.currentMode = target

	switch target {
	case mode.ModeSchemas:
		return m, m.schemas.Init()
	case mode.ModeTopics:
		return m, m.topics.Init()
	case mode.ModeSpecsList:
		return m, m.specsList.Init()
	case mode.ModeHistory:
		return m, m.history.Init()
	case mode.ModeHealth:
		return m, m.health.Init()
	case mode.ModeChat:
		return m, m.chat.Init()
	}
	return m, nil
}

// broadcast delivers msg to every mode controller.
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.schemas, cmd = m.schemas.Update(msg)
	cmds = append(cmds, cmd)
	m.topics, cmd = m.topics.Update(msg)
	cmds = append(cmds, cmd)
	m.specViewer, cmd = m.specViewer.Update(msg)
	cmds = append(cmds, cmd)
	m.specsList, cmd = m.specsList.Update(msg)
	cmds = append(cmds, cmd)
	m.history, cmd = m.history.Update(msg)
	cmds = append(cmds, cmd)
	m.health, cmd = m.health.Update(msg)
	cmds = append(cmds, cmd)
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) updateActiveMode(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentMode {
	case mode.ModeSchemas:
		m.schemas, cmd = m.schemas.Update(msg)
	case mode.ModeTopics:
		m.topics, cmd = m.topics.Update(msg)
	case mode.ModeSpecViewer:
		m.specViewer, cmd = m.specViewer.Update(msg)
	case mode.ModeSpecsList:
		m.specsList, cmd = m.specsList.Update(msg)
	case mode.ModeHistory:
		m.history, cmd = m.history.Update(msg)
	case mode.ModeHealth:
		m.health, cmd = m.health.Update(msg)
	case mode.ModeChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

func (m Model) currentEnvIndex() int {
	current := m.services.Coordinator.Environment()
	for i, env := range m.envs {
		if env.Name == current {
			return i
		}
	}
	return 0
}

func configured(envs []registry.Environment) []registry.Environment {
	out := make([]registry.Environment, 0, len(envs))
	for _, env := range envs {
		if env.Configured {
			out = append(out, env)
		}
	}
	return out
}

// View implements tea.Model.
func (m Model) View() string {
	if m.fatal != "" {
		return styles.ErrorStyle.Render(m.fatal) + "\n"
	}

	var view string
	switch m.currentMode {
	case mode.ModeTopics:
		view = m.topics.View()
	case mode.ModeSpecViewer:
		view = m.specViewer.View()
	case mode.ModeSpecsList:
		view = m.specsList.View()
	case mode.ModeHistory:
		view = m.history.View()
	case mode.ModeHealth:
		view = m.health.View()
	case mode.ModeChat:
		view = m.chat.View()
	default:
		view = m.schemas.View()
	}

	view = m.renderTopBar() + "\n" + view

	if m.pickerOpen {
		view = overlay.Place(overlay.Config{Width: m.width, Height: m.height}, m.renderPicker(), view)
	}

	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}

	return zone.Scan(view)
}

func (m Model) renderTopBar() string {
	env := m.services.Coordinator.Environment()
	if env == "" {
		env = "no environment"
	}
	left := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Render("regatta")
	right := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Render(env + " · e switch · 1-6 modes · q quit")
	return styles.StatusBarStyle.Render(left + "  " + right)
}

func (m Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(styles.OverlayTitleColor).Render("Select Environment"))
	b.WriteString("\n\n")
	for i, env := range m.envs {
		line := fmt.Sprintf("  %s", env.Name)
		if env.Endpoint != "" {
			line += lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("  " + env.Endpoint)
		}
		if i == m.pickerIdx {
			line = styles.SelectionIndicatorStyle.Render("> " + env.Name)
			if env.Endpoint != "" {
				line += lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("  " + env.Endpoint)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("j/k move · enter select"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(1, 2).
		Render(b.String())
}
