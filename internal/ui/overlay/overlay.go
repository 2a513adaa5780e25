// Package overlay composites floating content (modals, toasts) on top of a
// rendered background view without clearing the screen.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position anchors the floating content within the viewport.
type Position int

const (
	// Center anchors the content in the middle of the viewport.
	Center Position = iota
	// Top anchors the content at the top, horizontally centered.
	Top
	// Bottom anchors the content at the bottom, horizontally centered.
	Bottom
)

// Config controls overlay placement.
type Config struct {
	// Width and Height are the full viewport dimensions.
	Width  int
	Height int
	// Position anchors the content.
	Position Position
	// PadY offsets Top/Bottom anchored content from the edge.
	PadY int
}

// Place draws fg on top of bg at the configured position. Both strings may
// contain ANSI escape sequences; background styling outside the overlay
// region is preserved.
func Place(cfg Config, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < cfg.Height {
		bgLines = append(bgLines, strings.Repeat(" ", cfg.Width))
	}

	fgWidth := lipgloss.Width(fg)
	x, y := anchor(cfg, fgWidth, len(fgLines))

	for i, line := range fgLines {
		row := y + i
		if row >= len(bgLines) {
			break
		}
		bgLines[row] = splice(bgLines[row], line, x)
	}

	return strings.Join(bgLines, "\n")
}

// splice inserts fg into bg starting at column x, keeping whatever of the
// background extends past the inserted content.
func splice(bg, fg string, x int) string {
	left := ansi.Truncate(bg, x, "")
	if pad := x - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}

	end := x + ansi.StringWidth(fg)
	var right string
	if end < ansi.StringWidth(bg) {
		right = ansi.TruncateLeft(bg, end, "")
	}

	return left + fg + right
}

func anchor(cfg Config, fgWidth, fgHeight int) (x, y int) {
	x = (cfg.Width - fgWidth) / 2
	switch cfg.Position {
	case Top:
		y = cfg.PadY
	case Bottom:
		y = cfg.Height - fgHeight - cfg.PadY
	default:
		y = (cfg.Height - fgHeight) / 2
	}

	return max(x, 0), max(y, 0)
}
