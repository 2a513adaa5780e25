// Package schemas implements the subject listing mode: filtering, single
// soft/hard deletes, bulk preview/execute, and purge.
package schemas

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"regatta/internal/cachemanager"
	"regatta/internal/keys"
	"regatta/internal/mode"
	"regatta/internal/ops"
	"regatta/internal/registry"
	"regatta/internal/ui/modal"
	"regatta/internal/ui/overlay"
	"regatta/internal/ui/styles"
	"regatta/internal/ui/toaster"
)

// ViewMode represents overlay states within schemas mode.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewFilter       // filter modal
	ViewSoftConfirm  // inline y/n prompt in the footer
	ViewHardConfirm  // danger modal for a single hard delete
	ViewPreview      // bulk preview overlay
	ViewExecConfirm  // danger modal for bulk execute
	ViewPurgeConfirm // danger modal for purge
)

// Model holds the schemas mode state.
type Model struct {
	services mode.Services

	table    table.Model
	subjects []registry.SubjectSummary
	filter   registry.SchemaFilter

	loading bool
	spinner spinner.Model

	view        ViewMode
	filterModal modal.Model
	confirm     modal.Model
	target      string // subject pending a single delete
	execType    registry.BulkType
	preview     viewport.Model

	width  int
	height int
}

type subjectsMsg struct {
	subjects []registry.SubjectSummary
	err      error
}

type deletedMsg struct {
	subject string
	hard    bool
	err     error
}

type previewMsg struct {
	matches []string
	err     error
}

type executedMsg struct {
	typ registry.BulkType
	res *registry.BulkResult
	err error
}

type purgedMsg struct {
	count int
	err   error
}

// New creates a schemas mode controller.
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
	name := max(width-38, 20)
	return []table.Column{
		{Title: "Subject", Width: name},
		{Title: "Versions", Width: 8},
		{Title: "Latest", Width: 6},
		{Title: "Size KB", Width: 8},
		{Title: "Type", Width: 8},
	}
}

// Capturing reports whether an overlay (modal, prompt, preview) currently
// owns the keyboard. The app skips global keybindings while this is true.
func (m Model) Capturing() bool {
	return m.view != ViewList
}

// Init kicks off the initial subject fetch.
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
	m.preview.Width = max(width/2, 30)
	m.preview.Height = max(height/2, 5)
	m.filterModal.SetSize(width, height)
	m.confirm.SetSize(width, height)
	return m
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mode.EnvironmentChangedMsg:
		m.subjects = nil
		m.table.SetRows(nil)
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch(false))

	case subjectsMsg:
		m.loading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		m.subjects = msg.subjects
		m.table.SetRows(m.rows())
		m.table.SetCursor(0)
		return m, nil

	case deletedMsg:
		m.loading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		verb := "soft-deleted"
		if msg.hard {
			verb = "permanently deleted"
		}
		return m, tea.Batch(
			mode.Toast(fmt.Sprintf("Subject %q %s", msg.subject, verb), toaster.StyleSuccess),
			m.fetch(true),
		)

	case previewMsg:
		m.loading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		if len(msg.matches) == 0 {
			return m, mode.Toast("No subjects match the current filters", toaster.StyleWarn)
		}
		m.preview.SetContent(m.previewContent(msg.matches))
		m.preview.GotoTop()
		m.view = ViewPreview
		return m, nil

	case executedMsg:
		m.loading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		text := fmt.Sprintf("Bulk %s delete: %d succeeded", msg.typ, msg.res.SuccessCount)
		style := toaster.StyleSuccess
		if msg.res.FailureCount > 0 {
			text += fmt.Sprintf(", %d failed", msg.res.FailureCount)
			style = toaster.StyleWarn
		}
		return m, tea.Batch(mode.Toast(text, style), m.fetch(true))

	case purgedMsg:
		m.loading = false
		if msg.err != nil {
			return m, mode.Fail(msg.err)
		}
		return m, tea.Batch(
			mode.Toast(fmt.Sprintf("Purged %d soft-deleted subject(s)", msg.count), toaster.StyleSuccess),
			m.fetch(true),
		)

	case modal.SubmitMsg:
		return m.handleModalSubmit(msg)

	case modal.CancelMsg:
		m.view = ViewList
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.view {
	case ViewFilter:
		var cmd tea.Cmd
		m.filterModal, cmd = m.filterModal.Update(msg)
		return m, cmd

	case ViewHardConfirm, ViewExecConfirm, ViewPurgeConfirm:
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd

	case ViewSoftConfirm:
		switch msg.String() {
		case "y", "Y":
			m.view = ViewList
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.softDelete(m.target))
		case "n", "N", "esc":
			m.view = ViewList
			m.target = ""
		}
		return m, nil

	case ViewPreview:
		switch {
		case key.Matches(msg, keys.Default.Escape):
			m.view = ViewList
			return m, nil
		case key.Matches(msg, keys.Default.Execute):
			return m.openExecConfirm(registry.BulkSoft)
		case key.Matches(msg, keys.Default.ExecuteHard):
			return m.openExecConfirm(registry.BulkHard)
		}
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	// ViewList
	switch {
	case key.Matches(msg, keys.Default.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch(true))

	case key.Matches(msg, keys.Default.Filter):
		m.filterModal = m.makeFilterModal()
		m.filterModal.SetSize(m.width, m.height)
		m.view = ViewFilter
		return m, m.filterModal.Init()

	case key.Matches(msg, keys.Default.SoftDelete):
		if m.busy() {
			return m, nil
		}
		subject := m.selectedSubject()
		if subject == "" {
			return m, nil
		}
		m.target = subject
		m.view = ViewSoftConfirm
		return m, nil

	case key.Matches(msg, keys.Default.HardDelete):
		if m.busy() {
			return m, nil
		}
		subject := m.selectedSubject()
		if subject == "" {
			return m, nil
		}
		m.target = subject
		m.confirm = modal.New(modal.Config{
			Title:          "Hard Delete",
			Message:        fmt.Sprintf("Permanently delete %q?\n\nThis action cannot be undone.", subject),
			ConfirmLabel:   "Delete",
			ConfirmVariant: modal.ButtonDanger,
		})
		m.confirm.SetSize(m.width, m.height)
		m.view = ViewHardConfirm
		return m, nil

	case key.Matches(msg, keys.Default.Preview):
		if m.busy() {
			return m, nil
		}
		if m.filter.IsZero() {
			return m, mode.Toast("Set a name pattern or minimum version count first", toaster.StyleWarn)
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.runPreview())

	case key.Matches(msg, keys.Default.Execute):
		return m.openExecConfirm(registry.BulkSoft)

	case key.Matches(msg, keys.Default.ExecuteHard):
		return m.openExecConfirm(registry.BulkHard)

	case key.Matches(msg, keys.Default.Purge):
		if m.busy() {
			return m, nil
		}
		m.confirm = modal.New(modal.Config{
			Title: "Purge Soft-Deleted",
			Message: fmt.Sprintf("Permanently remove every soft-deleted subject in %q?\n\nThis action cannot be undone.",
				m.services.Coordinator.Environment()),
			ConfirmLabel:   "Purge",
			ConfirmVariant: modal.ButtonDanger,
		})
		m.confirm.SetSize(m.width, m.height)
		m.view = ViewPurgeConfirm
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// openExecConfirm gates a bulk execute behind the danger modal. Requires a
// live selection from a previous preview.
func (m Model) openExecConfirm(typ registry.BulkType) (Model, tea.Cmd) {
	if m.busy() {
		return m, nil
	}
	if !m.services.Coordinator.HasSelection() {
		return m, mode.Toast("No subjects selected - run a preview first", toaster.StyleWarn)
	}
	count := len(m.services.Coordinator.Selection())
	label := "Soft Delete"
	if typ == registry.BulkHard {
		label = "Delete"
	}
	m.execType = typ
	m.confirm = modal.New(modal.Config{
		Title:          "Bulk Delete",
		Message:        ops.ConfirmWording(typ, count),
		ConfirmLabel:   label,
		ConfirmVariant: modal.ButtonDanger,
	})
	m.confirm.SetSize(m.width, m.height)
	m.view = ViewExecConfirm
	return m, nil
}

func (m Model) handleModalSubmit(msg modal.SubmitMsg) (Model, tea.Cmd) {
	switch m.view {
	case ViewFilter:
		m.view = ViewList
		m.filter = filterFromValues(msg.Values)
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch(false))

	case ViewHardConfirm:
		m.view = ViewList
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.hardDelete(m.target))

	case ViewExecConfirm:
		m.view = ViewList
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.execute(m.execType))

	case ViewPurgeConfirm:
		m.view = ViewList
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.purge())
	}
	return m, nil
}

func (m Model) makeFilterModal() modal.Model {
	minVersions := ""
	if m.filter.MinVersions > 0 {
		minVersions = strconv.Itoa(m.filter.MinVersions)
	}
	includeDeleted := ""
	if m.filter.IncludeDeleted {
		includeDeleted = "y"
	}
	return modal.New(modal.Config{
		Title: "Edit Filters",
		Inputs: []modal.InputConfig{
			{Key: "pattern", Label: "Name Pattern", Placeholder: "e.g. orders-*", Value: m.filter.Pattern, AllowEmpty: true},
			{Key: "min_versions", Label: "Min Versions", Placeholder: "e.g. 5", Value: minVersions, AllowEmpty: true},
			{Key: "include_deleted", Label: "Include Deleted (y/n)", Placeholder: "n", Value: includeDeleted, AllowEmpty: true},
		},
		ConfirmLabel: "Apply",
	})
}

func filterFromValues(values map[string]string) registry.SchemaFilter {
	f := registry.SchemaFilter{Pattern: values["pattern"]}
	if n, err := strconv.Atoi(values["min_versions"]); err == nil && n > 0 {
		f.MinVersions = n
	}
	switch strings.ToLower(values["include_deleted"]) {
	case "y", "yes", "true":
		f.IncludeDeleted = true
	}
	return f
}

func (m Model) busy() bool {
	return m.loading || m.services.Coordinator.Executing()
}

func (m Model) selectedSubject() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.subjects) {
		return ""
	}
	return m.subjects[idx].Subject
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, len(m.subjects))
	for i, s := range m.subjects {
		rows[i] = table.Row{
			s.Subject,
			strconv.Itoa(s.VersionCount),
			strconv.Itoa(s.LatestVer),
			fmt.Sprintf("%.1f", s.SizeKB),
			s.SchemaType,
		}
	}
	return rows
}

// cacheKey identifies one env+filter listing in the subject cache.
func (m Model) cacheKey() string {
	return fmt.Sprintf("%s|%s|%d|%t",
		m.services.Coordinator.Environment(), m.filter.Pattern, m.filter.MinVersions, m.filter.IncludeDeleted)
}

// fetch loads subjects, from cache unless force is set.
func (m Model) fetch(force bool) tea.Cmd {
	env := m.services.Coordinator.Environment()
	filter := m.filter
	key := m.cacheKey()
	cache := m.services.Subjects
	client := m.services.Client

	return func() tea.Msg {
		ctx := context.Background()
		if force {
			_ = cache.Flush(ctx)
		} else if cached, ok := cache.Get(ctx, key); ok {
			return subjectsMsg{subjects: cached}
		}
		subjects, err := client.Schemas(ctx, env, filter)
		if err != nil {
			return subjectsMsg{err: err}
		}
		cache.Set(ctx, key, subjects, cachemanager.DefaultExpiration)
		return subjectsMsg{subjects: subjects}
	}
}

func (m Model) softDelete(subject string) tea.Cmd {
	coord := m.services.Coordinator
	return func() tea.Msg {
		err := coord.SoftDelete(context.Background(), subject)
		return deletedMsg{subject: subject, err: err}
	}
}

func (m Model) hardDelete(subject string) tea.Cmd {
	coord := m.services.Coordinator
	return func() tea.Msg {
		err := coord.HardDelete(context.Background(), subject)
		return deletedMsg{subject: subject, hard: true, err: err}
	}
}

func (m Model) runPreview() tea.Cmd {
	coord := m.services.Coordinator
	filter := m.filter
	return func() tea.Msg {
		matches, err := coord.Preview(context.Background(), filter)
		return previewMsg{matches: matches, err: err}
	}
}

func (m Model) execute(typ registry.BulkType) tea.Cmd {
	coord := m.services.Coordinator
	return func() tea.Msg {
		res, err := coord.Execute(context.Background(), typ)
		return executedMsg{typ: typ, res: res, err: err}
	}
}

func (m Model) purge() tea.Cmd {
	coord := m.services.Coordinator
	return func() tea.Msg {
		count, err := coord.Purge(context.Background())
		return purgedMsg{count: count, err: err}
	}
}

func (m Model) previewContent(matches []string) string {
	var b strings.Builder
	for i, s := range matches {
		b.WriteString(fmt.Sprintf("%3d. %s\n", i+1, s))
	}
	return b.String()
}

// View renders the schemas mode.
func (m Model) View() string {
	main := m.renderMain()

	switch m.view {
	case ViewFilter:
		return m.filterModal.Overlay(main)
	case ViewHardConfirm, ViewExecConfirm, ViewPurgeConfirm:
		return m.confirm.Overlay(main)
	case ViewPreview:
		return m.renderPreviewOverlay(main)
	}
	return main
}

func (m Model) renderMain() string {
	var b strings.Builder

	title := "Schemas"
	if m.services.Config.UI.ShowCounts {
		title = fmt.Sprintf("Schemas (%d)", len(m.subjects))
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(styles.AccentColor).Padding(0, 1).Render(title)
	if m.loading {
		header += " " + m.spinner.View()
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderFooter() string {
	if m.view == ViewSoftConfirm {
		prompt := fmt.Sprintf("Soft delete %q? (y/n)", m.target)
		return lipgloss.NewStyle().Foreground(styles.StatusWarningColor).Padding(0, 1).Render(prompt)
	}

	var parts []string
	if !m.filter.IsZero() {
		var f []string
		if m.filter.Pattern != "" {
			f = append(f, "pattern="+m.filter.Pattern)
		}
		if m.filter.MinVersions > 0 {
			f = append(f, fmt.Sprintf("min_versions=%d", m.filter.MinVersions))
		}
		if m.filter.IncludeDeleted {
			f = append(f, "deleted")
		}
		parts = append(parts, "filters: "+strings.Join(f, " "))
	}
	if m.services.Coordinator.HasSelection() {
		parts = append(parts, fmt.Sprintf("selection: %d", len(m.services.Coordinator.Selection())))
	}
	parts = append(parts, "/ filters · d soft · D hard · b preview · x/X bulk · P purge · r refresh")
	return styles.StatusBarStyle.Render(strings.Join(parts, "  |  "))
}

func (m Model) renderPreviewOverlay(bg string) string {
	title := fmt.Sprintf("Bulk Preview (%d match)", len(m.services.Coordinator.Selection()))
	body := m.preview.View()
	hint := lipgloss.NewStyle().Foreground(styles.TextMutedColor).
		Render("x soft delete all · X hard delete all · esc close")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Foreground(styles.OverlayTitleColor).Render(title),
			body, hint))

	return overlay.Place(overlay.Config{Width: m.width, Height: m.height}, box, bg)
}
