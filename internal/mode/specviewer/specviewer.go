// Package specviewer implements the spec viewer mode: yaml, json, and
// preview tabs over the current artifact, plus download/copy/open actions.
package specviewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"regatta/internal/asyncapi"
	"regatta/internal/keys"
	"regatta/internal/mode"
	"regatta/internal/ui/styles"
	"regatta/internal/ui/toaster"
)

// Tab identifies a viewer tab.
type Tab int

const (
	TabYAML Tab = iota
	TabJSON
	TabPreview
)

var tabNames = [...]string{"yaml", "json", "preview"}

const zoneTabPrefix = "specviewer-tab:"

// makeTabZoneID creates a bubblezone ID for a viewer tab.
func makeTabZoneID(t Tab) string {
	return fmt.Sprintf("%s%d", zoneTabPrefix, t)
}

// Model holds the spec viewer state.
type Model struct {
	services mode.Services

	artifact *asyncapi.Artifact
	returnTo mode.AppMode

	tab      Tab
	viewport viewport.Model

	// Rendered tab bodies, derived once per artifact.
	yamlBody    string
	jsonBody    string
	previewBody string

	downloading bool

	width  int
	height int
}

type downloadedMsg struct {
	dest string
	err  error
}

// New creates a spec viewer controller.
func New(services mode.Services) Model {
	return Model{
		services: services,
		viewport: viewport.New(0, 0),
	}
}

// SetArtifact loads a new artifact into the viewer and re-derives every tab
// body. returnTo is where Esc navigates back to.
func (m Model) SetArtifact(artifact *asyncapi.Artifact, returnTo mode.AppMode) Model {
	m.artifact = artifact
	m.returnTo = returnTo
	m.tab = TabYAML

	m.yamlBody = artifact.Body

	jsonBody, err := asyncapi.YAMLToJSON(artifact.Body)
	if err != nil {
		jsonBody = "conversion failed: " + err.Error()
	}
	m.jsonBody = jsonBody

	m.previewBody = m.renderPreview(artifact.Body)

	m.viewport.SetContent(m.yamlBody)
	m.viewport.GotoTop()
	return m
}

func (m Model) renderPreview(body string) string {
	md, err := asyncapi.PreviewMarkdown(body)
	if err != nil {
		return "preview unavailable: " + err.Error()
	}

	style := m.services.Config.UI.MarkdownStyle
	if style == "" {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(m.width-4, 40)),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Init returns initial commands for the mode.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetSize handles terminal resize.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-2, 10)
	m.viewport.Height = max(height-6, 3)
	if m.artifact != nil {
		// Preview wraps to the viewport width, so re-render on resize.
		m.previewBody = m.renderPreview(m.artifact.Body)
		m.viewport.SetContent(m.tabContent())
	}
	return m
}

func (m Model) tabContent() string {
	switch m.tab {
	case TabJSON:
		return m.jsonBody
	case TabPreview:
		return m.previewBody
	default:
		return m.yamlBody
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			for t := TabYAML; t <= TabPreview; t++ {
				if z := zone.Get(makeTabZoneID(t)); z != nil && z.InBounds(msg) {
					return m.selectTab(t), nil
				}
			}
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case downloadedMsg:
		m.downloading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		return m, mode.Toast("Saved to "+msg.dest, toaster.StyleSuccess)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Default.Escape):
		return m, mode.Switch(m.returnTo)

	case key.Matches(msg, keys.Default.NextTab):
		return m.selectTab((m.tab + 1) % 3), nil

	case key.Matches(msg, keys.Default.PrevTab):
		return m.selectTab((m.tab + 2) % 3), nil

	case key.Matches(msg, keys.Default.Download):
		if m.artifact == nil {
			return m, mode.Toast("No spec loaded", toaster.StyleWarn)
		}
		if m.downloading {
			return m, nil
		}
		m.downloading = true
		return m, m.download()

	case key.Matches(msg, keys.Default.Yank):
		if m.artifact == nil {
			return m, mode.Toast("No spec loaded", toaster.StyleWarn)
		}
		if err := m.services.Clipboard.Copy(m.artifact.Body); err != nil {
			return m, mode.Toast("Copy failed: "+err.Error(), toaster.StyleError)
		}
		return m, mode.Toast("Spec copied to clipboard", toaster.StyleSuccess)

	case key.Matches(msg, keys.Default.Open):
		if m.artifact == nil {
			return m, mode.Toast("No spec loaded", toaster.StyleWarn)
		}
		url, err := m.services.Workflow.StudioURL()
		if err != nil {
			return m, mode.Fail(err)
		}
		if err := m.services.Browser.Open(url); err != nil {
			return m, mode.Toast("Open failed: "+err.Error(), toaster.StyleError)
		}
		return m, mode.Toast("Opened in AsyncAPI Studio", toaster.StyleInfo)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) selectTab(t Tab) Model {
	if t == m.tab {
		return m
	}
	m.tab = t
	m.viewport.SetContent(m.tabContent())
	m.viewport.GotoTop()
	return m
}

func (m Model) download() tea.Cmd {
	workflow := m.services.Workflow
	outputDir := m.services.Config.OutputDir
	return func() tea.Msg {
		dest, err := workflow.Download(context.Background(), outputDir)
		return downloadedMsg{dest: dest, err: err}
	}
}

// View renders the spec viewer.
func (m Model) View() string {
	if m.artifact == nil {
		return styles.ErrorStyle.Render("No spec loaded")
	}

	var b strings.Builder

	title := fmt.Sprintf("%s · %s", m.artifact.Topic, m.artifact.Filename)
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Padding(0, 1).Render(title))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(styles.StatusBarStyle.Render("tab switch · s save · y copy · o studio · esc back"))
	return b.String()
}

func (m Model) renderTabs() string {
	var tabs []string
	for t := TabYAML; t <= TabPreview; t++ {
		style := styles.TabInactiveStyle
		if t == m.tab {
			style = styles.TabActiveStyle
		}
		tabs = append(tabs, zone.Mark(makeTabZoneID(t), style.Render(tabNames[t])))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}
