package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Rounded border characters used by RenderFormSection.
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// RenderFormSection renders a bordered section with an inline title and an
// optional hint: ╭─ Title (hint) ──╮. Focused sections use focusedBorderColor
// for the border and title; unfocused sections use BorderDefaultColor. This is
// the shared renderer for form components (filter form, modal inputs).
func RenderFormSection(content []string, title, hint string, width int, focused bool, focusedBorderColor lipgloss.TerminalColor) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = focusedBorderColor
	}

	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(borderColor)
	hintStyle := lipgloss.NewStyle().Foreground(TextMutedColor)

	innerWidth := max(width-2, 1)

	var top string
	if title == "" {
		top = borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	} else {
		titleLen := lipgloss.Width(title)
		if hint != "" {
			titleLen = lipgloss.Width(title + " (" + hint + ")")
		}
		dashesAfter := max(innerWidth-titleLen-3, 0) // "─ " before and " " after the title

		top = borderStyle.Render(borderTopLeft+borderHorizontal+" ") + titleStyle.Render(title)
		if hint != "" {
			top += " " + hintStyle.Render("("+hint+")")
		}
		top += borderStyle.Render(" " + strings.Repeat(borderHorizontal, dashesAfter) + borderTopRight)
	}

	var rows []string
	for _, row := range content {
		pad := ""
		if w := lipgloss.Width(row); w < innerWidth {
			pad = strings.Repeat(" ", innerWidth-w)
		}
		rows = append(rows, borderStyle.Render(borderVertical)+row+pad+borderStyle.Render(borderVertical))
	}

	bottom := borderStyle.Render(borderBottomLeft + strings.Repeat(borderHorizontal, innerWidth) + borderBottomRight)

	return top + "\n" + strings.Join(rows, "\n") + "\n" + bottom
}
