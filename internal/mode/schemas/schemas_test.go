package schemas

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"regatta/internal/cachemanager"
	"regatta/internal/config"
	"regatta/internal/mode"
	"regatta/internal/ops"
	"regatta/internal/registry"
	"regatta/internal/ui/modal"
	"regatta/internal/ui/toaster"
)

// fakeClient implements both the mode registry slice and the coordinator
// backend so one fixture drives the whole mode.
type fakeClient struct {
	subjects     []registry.SubjectSummary
	schemasCalls int

	softDeleted  []string
	hardDeleted  []string
	bulkSubjects []string
	bulkType     registry.BulkType
	purgeCount   int
}

func (f *fakeClient) Environments(ctx context.Context) ([]registry.Environment, error) {
	return nil, nil
}

func (f *fakeClient) Schemas(ctx context.Context, env string, filter registry.SchemaFilter) ([]registry.SubjectSummary, error) {
	f.schemasCalls++
	return f.subjects, nil
}

func (f *fakeClient) Topics(ctx context.Context, env string) ([]registry.TopicSummary, error) {
	return nil, nil
}

func (f *fakeClient) HealthCheck(ctx context.Context, env string) (*registry.HealthReport, error) {
	return &registry.HealthReport{}, nil
}

func (f *fakeClient) History(ctx context.Context, env string, limit int) ([]registry.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeClient) ChatStart(ctx context.Context) (string, error) { return "", nil }

func (f *fakeClient) ChatMessage(ctx context.Context, sessionID, message, env string) (string, error) {
	return "", nil
}

func (f *fakeClient) SoftDelete(ctx context.Context, env, subject string) (*registry.DeleteResult, error) {
	f.softDeleted = append(f.softDeleted, subject)
	return &registry.DeleteResult{Success: true, Subject: subject}, nil
}

func (f *fakeClient) HardDelete(ctx context.Context, env, subject string) (*registry.DeleteResult, error) {
	f.hardDeleted = append(f.hardDeleted, subject)
	return &registry.DeleteResult{Success: true, Subject: subject}, nil
}

func (f *fakeClient) BulkDelete(ctx context.Context, env string, subjects []string, typ registry.BulkType) (*registry.BulkResult, error) {
	f.bulkSubjects = subjects
	f.bulkType = typ
	return &registry.BulkResult{SuccessCount: len(subjects)}, nil
}

func (f *fakeClient) PurgeSoftDeleted(ctx context.Context, env string) (int, error) {
	return f.purgeCount, nil
}

func newTestModel(client *fakeClient) Model {
	coordinator := ops.New(client, nil)
	coordinator.SetEnvironment("dev")
	cfg := config.Defaults()
	services := mode.Services{
		Client:      client,
		Coordinator: coordinator,
		Config:      &cfg,
		Subjects: cachemanager.NewInMemoryCacheManager[string, []registry.SubjectSummary](
			"subjects", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
	}
	return New(services).SetSize(100, 30)
}

// drain runs a command tree to completion, feeding every produced message
// back into the model, and returns the messages that are app-level (not
// consumed by this mode).
func drain(m Model, cmd tea.Cmd) (Model, []tea.Msg) {
	var appMsgs []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		switch msg.(type) {
		case mode.ShowToastMsg, mode.AuthRejectedMsg, mode.SwitchModeMsg, mode.ShowSpecMsg:
			appMsgs = append(appMsgs, msg)
			continue
		}
		var followUp tea.Cmd
		m, followUp = m.Update(msg)
		queue = append(queue, followUp)
	}
	return m, appMsgs
}

func toasts(msgs []tea.Msg) []mode.ShowToastMsg {
	var out []mode.ShowToastMsg
	for _, msg := range msgs {
		if toast, ok := msg.(mode.ShowToastMsg); ok {
			out = append(out, toast)
		}
	}
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInit_LoadsSubjects(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{
		{Subject: "orders-value", VersionCount: 3, LatestVer: 3},
		{Subject: "payments-value", VersionCount: 1, LatestVer: 1},
	}}
	m := newTestModel(client)

	m, appMsgs := drain(m, m.Init())
	require.Empty(t, toasts(appMsgs))
	require.False(t, m.loading)
	require.Len(t, m.subjects, 2)
	require.Contains(t, m.View(), "orders-value")
}

func TestFetch_UsesCacheUntilForced(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{{Subject: "a"}}}
	m := newTestModel(client)

	m, _ = drain(m, m.Init())
	require.Equal(t, 1, client.schemasCalls)

	// Second plain fetch hits the cache.
	m, _ = drain(m, m.fetch(false))
	require.Equal(t, 1, client.schemasCalls)

	// Refresh flushes and refetches.
	m, _ = drain(m, m.fetch(true))
	require.Equal(t, 2, client.schemasCalls)
}

func TestSoftDelete_InlineConfirmFlow(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{{Subject: "orders-value"}}}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	// d opens the inline prompt; nothing is deleted yet.
	m, _ = m.Update(runes("d"))
	require.Equal(t, ViewSoftConfirm, m.view)
	require.True(t, m.Capturing())
	require.Empty(t, client.softDeleted)
	require.Contains(t, m.View(), `Soft delete "orders-value"? (y/n)`)

	// y confirms and performs the delete.
	m, cmd := m.Update(runes("y"))
	require.Equal(t, ViewList, m.view)
	m, appMsgs := drain(m, cmd)
	require.Equal(t, []string{"orders-value"}, client.softDeleted)

	// Success re-fetches the listing; rows are never patched locally.
	require.Equal(t, 2, client.schemasCalls)

	ts := toasts(appMsgs)
	require.Len(t, ts, 1)
	require.Contains(t, ts[0].Message, "soft-deleted")
	require.Equal(t, toaster.StyleSuccess, ts[0].Style)
}

func TestSoftDelete_DeclinedLeavesSubjectAlone(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{{Subject: "orders-value"}}}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	m, _ = m.Update(runes("d"))
	m, _ = m.Update(runes("n"))
	require.Equal(t, ViewList, m.view)
	require.Empty(t, client.softDeleted)
}

func TestHardDelete_RequiresModalConfirm(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{{Subject: "orders-value"}}}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	m, _ = m.Update(runes("D"))
	require.Equal(t, ViewHardConfirm, m.view)
	require.Contains(t, m.View(), "cannot be undone")
	require.Empty(t, client.hardDeleted)

	// Confirm button is focused by default; enter fires the delete.
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, appMsgs := drain(m, cmd)
	require.Equal(t, ViewList, m.view)
	require.Equal(t, []string{"orders-value"}, client.hardDeleted)

	// Success re-fetches the listing; rows are never patched locally.
	require.Equal(t, 2, client.schemasCalls)

	ts := toasts(appMsgs)
	require.Len(t, ts, 1)
	require.Contains(t, ts[0].Message, "permanently deleted")
}

func TestHardDelete_EscCancels(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{{Subject: "orders-value"}}}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	m, _ = m.Update(runes("D"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = drain(m, cmd)
	require.Equal(t, ViewList, m.view)
	require.Empty(t, client.hardDeleted)
}

func TestPreview_WithoutFilterWarns(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{{Subject: "a"}}}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	m, cmd := m.Update(runes("b"))
	_, appMsgs := drain(m, cmd)
	ts := toasts(appMsgs)
	require.Len(t, ts, 1)
	require.Equal(t, toaster.StyleWarn, ts[0].Style)
	require.False(t, m.services.Coordinator.HasSelection())
}

func TestExecute_WithoutSelectionWarns(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{{Subject: "a"}}}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	m, cmd := m.Update(runes("x"))
	require.Equal(t, ViewList, m.view)
	_, appMsgs := drain(m, cmd)
	ts := toasts(appMsgs)
	require.Len(t, ts, 1)
	require.Equal(t, toaster.StyleWarn, ts[0].Style)
	require.Empty(t, client.bulkSubjects)
}

func TestBulkFlow_FilterPreviewExecute(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{
		{Subject: "orders-v1"}, {Subject: "orders-v2"},
	}}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	// Apply a pattern filter through the modal.
	m, _ = m.Update(runes("/"))
	require.Equal(t, ViewFilter, m.view)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("orders-*")})
	m, _ = drain(m, cmd)
	for i := 0; i < 3; i++ { // past min_versions and include_deleted to buttons
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = drain(m, cmd)
	require.Equal(t, ViewList, m.view)
	require.Equal(t, "orders-*", m.filter.Pattern)

	// Preview opens the overlay with a live selection.
	m, cmd = m.Update(runes("b"))
	m, _ = drain(m, cmd)
	require.Equal(t, ViewPreview, m.view)
	require.True(t, m.services.Coordinator.HasSelection())
	require.Contains(t, m.View(), "Bulk Preview (2 match)")

	// X from the preview opens the hard-delete confirmation.
	m, _ = m.Update(runes("X"))
	require.Equal(t, ViewExecConfirm, m.view)
	require.Contains(t, m.View(), "cannot be undone")
	require.Empty(t, client.bulkSubjects)

	// Confirming executes exactly the previewed selection.
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, appMsgs := drain(m, cmd)
	require.Equal(t, ViewList, m.view)
	require.Equal(t, []string{"orders-v1", "orders-v2"}, client.bulkSubjects)
	require.Equal(t, registry.BulkHard, client.bulkType)
	require.False(t, m.services.Coordinator.HasSelection())

	ts := toasts(appMsgs)
	require.Len(t, ts, 1)
	require.Contains(t, ts[0].Message, "2 succeeded")
}

func TestPreview_NoMatchesStaysInList(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())
	m.filter = registry.SchemaFilter{Pattern: "none-*"}

	m, cmd := m.Update(runes("b"))
	m, appMsgs := drain(m, cmd)
	require.Equal(t, ViewList, m.view)
	ts := toasts(appMsgs)
	require.Len(t, ts, 1)
	require.Equal(t, toaster.StyleWarn, ts[0].Style)
}

func TestPurge_ConfirmFlow(t *testing.T) {
	client := &fakeClient{purgeCount: 3}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	m, _ = m.Update(runes("P"))
	require.Equal(t, ViewPurgeConfirm, m.view)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, appMsgs := drain(m, cmd)
	require.Equal(t, ViewList, m.view)

	ts := toasts(appMsgs)
	require.Len(t, ts, 1)
	require.Contains(t, ts[0].Message, "Purged 3")
}

func TestEnvironmentChanged_DropsRowsAndRefetches(t *testing.T) {
	client := &fakeClient{subjects: []registry.SubjectSummary{{Subject: "a"}}}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())
	require.Len(t, m.subjects, 1)

	client.subjects = []registry.SubjectSummary{{Subject: "b"}, {Subject: "c"}}
	m.services.Coordinator.SetEnvironment("prod")
	m, cmd := m.Update(mode.EnvironmentChangedMsg{Env: "prod"})
	require.Nil(t, m.subjects)

	m, _ = drain(m, cmd)
	require.Len(t, m.subjects, 2)
}

func TestModalCancel_ReturnsToList(t *testing.T) {
	client := &fakeClient{}
	m := newTestModel(client)
	m, _ = drain(m, m.Init())

	m, _ = m.Update(runes("/"))
	require.True(t, m.Capturing())

	m, _ = m.Update(modal.CancelMsg{})
	require.Equal(t, ViewList, m.view)
	require.False(t, m.Capturing())
}

func TestFilterFromValues(t *testing.T) {
	f := filterFromValues(map[string]string{
		"pattern":         "orders-*",
		"min_versions":    "5",
		"include_deleted": "Y",
	})
	require.Equal(t, "orders-*", f.Pattern)
	require.Equal(t, 5, f.MinVersions)
	require.True(t, f.IncludeDeleted)

	f = filterFromValues(map[string]string{"min_versions": "junk", "include_deleted": "n"})
	require.Zero(t, f.MinVersions)
	require.False(t, f.IncludeDeleted)
	require.True(t, f.IsZero())
}
