// Package chat implements the registry assistant mode, a thin conversation
// UI over the backend's chat endpoints.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"regatta/internal/mode"
	"regatta/internal/ui/styles"
)

type role int

const (
	roleUser role = iota
	roleAssistant
)

type message struct {
	role role
	text string
}

// Model holds the chat mode state.
type Model struct {
	services mode.Services

	sessionID string
	messages  []message

	input    textinput.Model
	viewport viewport.Model

	waiting bool
	spinner spinner.Model

	width  int
	height int
}

type replyMsg struct {
	sessionID string
	text      string
	err       error
}

// New creates a chat mode controller.
func New(services mode.Services) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	ti := textinput.New()
	ti.Placeholder = "Ask about subjects, versions, or cleanup..."
	ti.Prompt = "> "
	ti.Focus()

	return Model{
		services: services,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
}

// Init returns initial commands for the mode.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// InputFocused reports whether keystrokes are being captured by the input.
// The app skips global keybindings while this is true.
func (m Model) InputFocused() bool {
	return m.input.Focused()
}

// SetSize handles terminal resize.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-2, 10)
	m.viewport.Height = max(height-5, 3)
	m.input.Width = max(width-6, 20)
	m.viewport.SetContent(m.renderTranscript())
	return m
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mode.EnvironmentChangedMsg:
		// Sessions are environment-scoped on the backend side: start fresh.
		m.sessionID = ""
		return m, nil

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		m.sessionID = msg.sessionID
		m.messages = append(m.messages, message{role: roleAssistant, text: msg.text})
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if !m.input.Focused() {
		switch msg.String() {
		case "i", "enter":
			m.input.Focus()
			return m, textinput.Blink
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		m.input.Blur()
		return m, nil

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.waiting {
			return m, nil
		}
		m.input.SetValue("")
		m.messages = append(m.messages, message{role: roleUser, text: text})
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		m.waiting = true
		return m, tea.Batch(m.spinner.Tick, m.send(text))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send delivers one message, lazily opening the session first.
func (m Model) send(text string) tea.Cmd {
	client := m.services.Client
	sessionID := m.sessionID
	env := m.services.Coordinator.Environment()

	return func() tea.Msg {
		ctx := context.Background()
		if sessionID == "" {
			id, err := client.ChatStart(ctx)
			if err != nil {
				return replyMsg{err: err}
			}
			sessionID = id
		}
		reply, err := client.ChatMessage(ctx, sessionID, text, env)
		if err != nil {
			return replyMsg{err: err}
		}
		return replyMsg{sessionID: sessionID, text: reply}
	}
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Padding(1, 1).
			Render("Ask the assistant about the selected environment's registry.")
	}

	userStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor)
	assistantStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.StatusSuccessColor)
	wrap := lipgloss.NewStyle().Width(max(m.viewport.Width-2, 20))

	var b strings.Builder
	for _, msg := range m.messages {
		if msg.role == roleUser {
			b.WriteString(userStyle.Render("you"))
		} else {
			b.WriteString(assistantStyle.Render("assistant"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// View renders the chat mode.
func (m Model) View() string {
	var b strings.Builder

	header := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Padding(0, 1).Render("Assistant")
	if m.waiting {
		header += " " + m.spinner.View() + lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render(" thinking...")
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	hint := "enter send · esc release input"
	if !m.input.Focused() {
		hint = "i focus input · j/k scroll"
	}
	b.WriteString(styles.StatusBarStyle.Render(hint))
	return b.String()
}
