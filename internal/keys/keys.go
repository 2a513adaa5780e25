// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Mode switching
	Schemas   key.Binding
	Topics    key.Binding
	SpecsList key.Binding
	History   key.Binding
	Health    key.Binding
	Chat      key.Binding

	// Actions
	Enter       key.Binding
	Refresh     key.Binding
	Environment key.Binding
	SoftDelete  key.Binding
	HardDelete  key.Binding
	Preview     key.Binding
	Execute     key.Binding
	ExecuteHard key.Binding
	Purge       key.Binding
	Filter      key.Binding
	Generate    key.Binding
	Download    key.Binding
	Yank        key.Binding
	Open        key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding

	// General
	Escape key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "move left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "move right"),
		),

		Schemas: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "schemas"),
		),
		Topics: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "topics"),
		),
		SpecsList: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "stored specs"),
		),
		History: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "history"),
		),
		Health: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "health check"),
		),
		Chat: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "assistant"),
		),

		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Environment: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "switch environment"),
		),
		SoftDelete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "soft delete"),
		),
		HardDelete: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "hard delete"),
		),
		Preview: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bulk preview"),
		),
		Execute: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "bulk soft delete"),
		),
		ExecuteHard: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "bulk hard delete"),
		),
		Purge: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "purge soft-deleted"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "edit filters"),
		),
		Generate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate spec"),
		),
		Download: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save spec"),
		),
		Yank: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy spec"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "studio link"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous tab"),
		),

		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Default is the package-level keymap used by mode controllers.
var Default = DefaultKeyMap()
