// Package modal provides a reusable modal component for confirmation dialogs
// and input prompts.
package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"regatta/internal/ui/overlay"
	"regatta/internal/ui/styles"
)

// ButtonVariant controls the styling of the confirm button.
type ButtonVariant int

const (
	ButtonPrimary ButtonVariant = iota // Blue (default)
	ButtonDanger                       // Red (for destructive actions)
)

// InputConfig defines a single input field.
type InputConfig struct {
	Key         string // Identifier for this input (used in SubmitMsg.Values)
	Label       string // Label displayed in the input section border
	Placeholder string // Placeholder text shown when empty
	Value       string // Initial value (optional)
	MaxLength   int    // Character limit (0 = unlimited)
	AllowEmpty  bool   // Permit submitting with this input empty
}

// Config controls modal appearance and behavior.
type Config struct {
	Title          string        // Modal title (e.g. "Hard Delete", "Edit Filters")
	Message        string        // Optional message/prompt text
	Inputs         []InputConfig // Input fields; if empty, modal is in confirmation mode
	ConfirmLabel   string        // Confirm button label (default "Confirm"/"Save")
	ConfirmVariant ButtonVariant // Style for confirm button (default: ButtonPrimary)
	MinWidth       int           // Minimum width (0 = default 40)
}

// SubmitMsg is sent when the user confirms the modal.
// Values contains input values keyed by InputConfig.Key.
type SubmitMsg struct {
	Values map[string]string
}

// CancelMsg is sent when the user cancels the modal (Esc or Cancel button).
type CancelMsg struct{}

// Field identifies which button is focused.
type Field int

const (
	FieldConfirm Field = iota
	FieldCancel
)

// Model is the modal component state.
type Model struct {
	config       Config
	inputs       []textinput.Model
	inputKeys    []string
	hasInputs    bool
	focusedInput int   // Focused input index, -1 when on buttons
	focusedField Field // Focused button when focusedInput == -1
	width        int
	height       int
}

// New creates a modal from the given configuration. With Inputs the modal
// operates in input mode; without, it is a plain confirm/cancel dialog.
func New(cfg Config) Model {
	m := Model{
		config:       cfg,
		hasInputs:    len(cfg.Inputs) > 0,
		focusedInput: 0,
		focusedField: FieldConfirm,
	}

	if m.hasInputs {
		m.inputs = make([]textinput.Model, len(cfg.Inputs))
		m.inputKeys = make([]string, len(cfg.Inputs))

		for i, ic := range cfg.Inputs {
			ti := textinput.New()
			ti.Placeholder = ic.Placeholder
			ti.Width = 36 // fits within the default box minus borders/padding
			ti.Prompt = ""
			if ic.MaxLength > 0 {
				ti.CharLimit = ic.MaxLength
			}
			if ic.Value != "" {
				ti.SetValue(ic.Value)
			}
			if i == 0 {
				ti.Focus()
			}
			m.inputs[i] = ti
			m.inputKeys[i] = ic.Key
		}
	} else {
		m.focusedInput = -1
	}

	return m
}

// Init starts the cursor blink in input mode.
func (m Model) Init() tea.Cmd {
	if m.hasInputs {
		return textinput.Blink
	}
	return nil
}

// Update handles messages for the modal.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down", "ctrl+n":
			return m.nextField(), nil

		case "shift+tab", "up", "ctrl+p":
			return m.prevField(), nil

		case "left", "h":
			if m.focusedInput == -1 && m.focusedField == FieldCancel {
				m.focusedField = FieldConfirm
				return m, nil
			}

		case "right", "l":
			if m.focusedInput == -1 && m.focusedField == FieldConfirm {
				m.focusedField = FieldCancel
				return m, nil
			}

		case "enter":
			if m.focusedInput >= 0 {
				return m.nextField(), nil
			}
			switch m.focusedField {
			case FieldConfirm:
				if !m.submittable() {
					return m, nil
				}
				values := make(map[string]string)
				for i, input := range m.inputs {
					values[m.inputKeys[i]] = strings.TrimSpace(input.Value())
				}
				return m, func() tea.Msg { return SubmitMsg{Values: values} }
			case FieldCancel:
				return m, func() tea.Msg { return CancelMsg{} }
			}

		case "esc":
			return m, func() tea.Msg { return CancelMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	if m.hasInputs && m.focusedInput >= 0 && m.focusedInput < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusedInput], cmd = m.inputs[m.focusedInput].Update(msg)
		return m, cmd
	}

	return m, nil
}

// submittable reports whether every required input has a value.
func (m Model) submittable() bool {
	for i, input := range m.inputs {
		if strings.TrimSpace(input.Value()) == "" && !m.config.Inputs[i].AllowEmpty {
			return false
		}
	}
	return true
}

func (m Model) nextField() Model {
	if m.focusedInput >= 0 {
		m.inputs[m.focusedInput].Blur()
		if m.focusedInput < len(m.inputs)-1 {
			m.focusedInput++
			m.inputs[m.focusedInput].Focus()
		} else {
			m.focusedInput = -1
			m.focusedField = FieldConfirm
		}
		return m
	}

	if m.focusedField == FieldConfirm {
		m.focusedField = FieldCancel
	} else if m.hasInputs {
		m.focusedInput = 0
		m.inputs[0].Focus()
	} else {
		m.focusedField = FieldConfirm
	}
	return m
}

func (m Model) prevField() Model {
	if m.focusedInput >= 0 {
		m.inputs[m.focusedInput].Blur()
		if m.focusedInput > 0 {
			m.focusedInput--
			m.inputs[m.focusedInput].Focus()
		} else {
			m.focusedInput = -1
			m.focusedField = FieldCancel
		}
		return m
	}

	if m.focusedField == FieldCancel {
		m.focusedField = FieldConfirm
	} else if m.hasInputs {
		m.focusedInput = len(m.inputs) - 1
		m.inputs[m.focusedInput].Focus()
	} else {
		m.focusedField = FieldCancel
	}
	return m
}

// View renders the modal content (without overlay).
func (m Model) View() string {
	minWidth := 40
	if m.config.MinWidth > minWidth {
		minWidth = m.config.MinWidth
	}
	contentWidth := max(minWidth, lipgloss.Width(m.config.Title))
	boxWidth := contentWidth + 2

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor).
		PaddingLeft(1)

	divider := lipgloss.NewStyle().
		Foreground(styles.OverlayBorderColor).
		Render(strings.Repeat("─", boxWidth))

	var content strings.Builder

	if m.config.Message != "" {
		msgStyle := lipgloss.NewStyle().
			Foreground(styles.TextPrimaryColor).
			Width(contentWidth)
		content.WriteString(msgStyle.Render(m.config.Message))
		content.WriteString("\n\n")
	}

	for i, ic := range m.config.Inputs {
		label := ic.Label
		if label == "" {
			label = "Input"
		}
		section := styles.RenderFormSection(
			[]string{m.inputs[i].View()}, label, "", contentWidth,
			m.focusedInput == i, styles.BorderHighlightFocusColor)
		content.WriteString(section)
		content.WriteString("\n\n")
	}

	content.WriteString(m.renderButtons())

	var result strings.Builder
	result.WriteString(titleStyle.Render(m.config.Title))
	result.WriteString("\n")
	result.WriteString(divider)
	result.WriteString("\n")
	result.WriteString(lipgloss.NewStyle().Padding(1, 1).Render(content.String()))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(boxWidth).
		Render(result.String())
}

func (m Model) renderButtons() string {
	onButtons := m.focusedInput == -1

	var confirmStyle lipgloss.Style
	switch m.config.ConfirmVariant {
	case ButtonDanger:
		confirmStyle = styles.DangerButtonStyle
		if onButtons && m.focusedField == FieldConfirm {
			confirmStyle = styles.DangerButtonFocusedStyle
		}
	default:
		confirmStyle = styles.PrimaryButtonStyle
		if onButtons && m.focusedField == FieldConfirm {
			confirmStyle = styles.PrimaryButtonFocusedStyle
		}
	}

	label := m.config.ConfirmLabel
	if label == "" {
		if m.hasInputs {
			label = "Save"
		} else {
			label = "Confirm"
		}
	}

	cancelStyle := styles.SecondaryButtonStyle
	if onButtons && m.focusedField == FieldCancel {
		cancelStyle = styles.SecondaryButtonFocusedStyle
	}

	return confirmStyle.Render(label) + "  " + cancelStyle.Render("Cancel")
}

// Overlay renders the modal centered on the given background.
func (m Model) Overlay(bg string) string {
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, m.View(), bg)
}

// SetSize updates the viewport dimensions used for centering.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// FocusedInput returns the focused input index (-1 when on buttons).
func (m Model) FocusedInput() int {
	return m.focusedInput
}

// FocusedField returns the focused button.
func (m Model) FocusedField() Field {
	return m.focusedField
}
