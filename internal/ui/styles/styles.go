// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#CCCCCC"} // Main text
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#BBBBBB"} // Subject names, secondary info
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Hints, help text, footers
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"} // Input placeholders

	// Borders
	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	AccentColor        = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	// Health check statuses
	CheckOKColor       = StatusSuccessColor
	CheckWarningColor  = StatusWarningColor
	CheckCriticalColor = StatusErrorColor

	// Selection indicator (">" prefix in lists)
	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	// Buttons
	ButtonTextColor             = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor        = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonPrimaryFocusBgColor   = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	ButtonSecondaryBgColor      = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#2D3436"}
	ButtonSecondaryFocusBgColor = lipgloss.AdaptiveColor{Light: "#636E72", Dark: "#636E72"}
	ButtonDangerBgColor         = lipgloss.AdaptiveColor{Light: "#922B21", Dark: "#922B21"}
	ButtonDangerFocusBgColor    = lipgloss.AdaptiveColor{Light: "#E74C3C", Dark: "#E74C3C"}

	baseButtonStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true)

	PrimaryButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonPrimaryBgColor)

	PrimaryButtonFocusedStyle = baseButtonStyle.
					Foreground(ButtonTextColor).
					Background(ButtonPrimaryFocusBgColor).
					Underline(true).
					UnderlineSpaces(true)

	SecondaryButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonSecondaryBgColor)

	SecondaryButtonFocusedStyle = baseButtonStyle.
					Foreground(ButtonTextColor).
					Background(ButtonSecondaryFocusBgColor).
					Underline(true).
					UnderlineSpaces(true)

	DangerButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonDangerBgColor)

	DangerButtonFocusedStyle = baseButtonStyle.
					Foreground(ButtonTextColor).
					Background(ButtonDangerFocusBgColor).
					Underline(true).
					UnderlineSpaces(true)

	// Overlay chrome
	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#8C8C8C"}

	// Toast notifications
	ToastBorderSuccessColor = StatusSuccessColor
	ToastBorderErrorColor   = StatusErrorColor
	ToastBorderInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ToastBorderWarnColor    = StatusWarningColor

	// Viewer tabs
	TabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SelectionIndicatorColor).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder(), true, true, false, true).
			BorderForeground(BorderHighlightFocusColor)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(TextMutedColor).
				Padding(0, 2).
				Border(lipgloss.RoundedBorder(), true, true, false, true).
				BorderForeground(BorderDefaultColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true).
			Padding(1, 2)

	// Loading spinner color
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}
)

// CheckStatusStyle maps a health-check status string to its display style.
func CheckStatusStyle(status string) lipgloss.Style {
	switch status {
	case "OK":
		return lipgloss.NewStyle().Foreground(CheckOKColor)
	case "WARNING":
		return lipgloss.NewStyle().Foreground(CheckWarningColor).Bold(true)
	case "CRITICAL", "ERROR":
		return lipgloss.NewStyle().Foreground(CheckCriticalColor).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(TextSecondaryColor)
	}
}

// ApplyTheme applies custom theme colors from configuration.
// Empty strings are ignored, keeping the default values.
func ApplyTheme(highlight, subtle, errorColor, success string) {
	if highlight != "" {
		BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: highlight, Dark: highlight}
		AccentColor = lipgloss.AdaptiveColor{Light: highlight, Dark: highlight}
	}
	if subtle != "" {
		TextMutedColor = lipgloss.AdaptiveColor{Light: subtle, Dark: subtle}
		BorderDefaultColor = lipgloss.AdaptiveColor{Light: subtle, Dark: subtle}
	}
	if errorColor != "" {
		StatusErrorColor = lipgloss.AdaptiveColor{Light: errorColor, Dark: errorColor}
	}
	if success != "" {
		StatusSuccessColor = lipgloss.AdaptiveColor{Light: success, Dark: success}
	}
}
