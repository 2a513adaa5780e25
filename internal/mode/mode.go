// Package mode defines the mode controller interface and shared services.
package mode

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"regatta/internal/asyncapi"
	"regatta/internal/audit"
	"regatta/internal/cachemanager"
	"regatta/internal/config"
	"regatta/internal/mode/shared"
	"regatta/internal/ops"
	"regatta/internal/registry"
	"regatta/internal/ui/toaster"
)

// AppMode identifies the current application mode. Modes are mutually
// exclusive: exactly one is active at a time.
type AppMode int

const (
	ModeSchemas AppMode = iota
	ModeTopics
	ModeSpecViewer
	ModeSpecsList
	ModeHistory
	ModeHealth
	ModeChat
)

// Controller defines the interface all modes must implement.
type Controller interface {
	// Init returns initial commands for the mode.
	Init() tea.Cmd

	// Update handles messages and returns updated model and commands.
	Update(msg tea.Msg) (Controller, tea.Cmd)

	// View renders the mode's UI.
	View() string

	// SetSize handles terminal resize events.
	SetSize(width, height int) Controller
}

// Registry is the slice of the backend client the mode controllers call
// directly. Destructive operations go through the coordinator instead.
type Registry interface {
	Environments(ctx context.Context) ([]registry.Environment, error)
	Schemas(ctx context.Context, env string, filter registry.SchemaFilter) ([]registry.SubjectSummary, error)
	Topics(ctx context.Context, env string) ([]registry.TopicSummary, error)
	HealthCheck(ctx context.Context, env string) (*registry.HealthReport, error)
	History(ctx context.Context, env string, limit int) ([]registry.HistoryEntry, error)
	ChatStart(ctx context.Context) (string, error)
	ChatMessage(ctx context.Context, sessionID, message, env string) (string, error)
}

// Services contains shared dependencies injected into mode controllers.
type Services struct {
	Client      Registry
	Coordinator *ops.Coordinator
	Workflow    *asyncapi.Workflow
	Audit       *audit.Store
	Config      *config.Config
	ConfigPath  string

	Subjects cachemanager.CacheManager[string, []registry.SubjectSummary]
	Topics   cachemanager.CacheManager[string, []registry.TopicSummary]

	Clipboard shared.Clipboard
	Browser   shared.Browser
}

// SwitchModeMsg asks the app to activate a different mode.
type SwitchModeMsg struct {
	Mode AppMode
}

// ShowSpecMsg asks the app to open the spec viewer on the given artifact.
// Return names the mode Esc goes back to.
type ShowSpecMsg struct {
	Artifact *asyncapi.Artifact
	Return   AppMode
}

// ShowToastMsg asks the app to show a transient notification.
type ShowToastMsg struct {
	Message string
	Style   toaster.Style
}

// AuthRejectedMsg reports a 401 from any backend call. The app treats it as
// fatal for the session: stored credentials are cleared and the user is told
// to restart and re-enter them.
type AuthRejectedMsg struct{}

// EnvironmentChangedMsg is broadcast to the active mode after the user
// switches environments so it can drop stale rows and refetch.
type EnvironmentChangedMsg struct {
	Env string
}

// Fail routes an operation error to the right app-level reaction: auth
// rejections become AuthRejectedMsg (session is over), everything else a
// transient error toast.
func Fail(err error) tea.Cmd {
	if errors.Is(err, registry.ErrAuthRejected) {
		return func() tea.Msg { return AuthRejectedMsg{} }
	}
	return Toast(err.Error(), toaster.StyleError)
}

// Toast builds a command that surfaces a toast via the app model.
func Toast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg { return ShowToastMsg{Message: message, Style: style} }
}

// Switch builds a command that activates the given mode.
func Switch(m AppMode) tea.Cmd {
	return func() tea.Msg { return SwitchModeMsg{Mode: m} }
}
