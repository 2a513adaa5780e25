package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"regatta/internal/asyncapi"
	"regatta/internal/audit"
	"regatta/internal/cachemanager"
	"regatta/internal/config"
	"regatta/internal/mode"
	"regatta/internal/mode/shared"
	"regatta/internal/ops"
	"regatta/internal/registry"
	"regatta/internal/session"
	"regatta/internal/ui/toaster"
)

func TestMain(m *testing.M) {
	zone.NewGlobal()
	keyring.MockInit()
	os.Exit(m.Run())
}

// fakeClient satisfies mode.Registry, ops.Backend and asyncapi.Backend so a
// single fixture can stand behind every shared service.
type fakeClient struct {
	envs []registry.Environment

	schemasCalls int
	topicsCalls  int
}

func (f *fakeClient) Environments(ctx context.Context) ([]registry.Environment, error) {
	return f.envs, nil
}

func (f *fakeClient) Schemas(ctx context.Context, env string, filter registry.SchemaFilter) ([]registry.SubjectSummary, error) {
	f.schemasCalls++
	return []registry.SubjectSummary{
		{Subject: "orders-value", VersionCount: 3, LatestVer: 3, SizeKB: 1.2, SchemaType: "AVRO"},
	}, nil
}

func (f *fakeClient) Topics(ctx context.Context, env string) ([]registry.TopicSummary, error) {
	f.topicsCalls++
	return []registry.TopicSummary{
		{Name: "orders", Partitions: 6, SchemasCount: 2, HasValueSchema: true},
	}, nil
}

func (f *fakeClient) HealthCheck(ctx context.Context, env string) (*registry.HealthReport, error) {
	return &registry.HealthReport{}, nil
}

func (f *fakeClient) History(ctx context.Context, env string, limit int) ([]registry.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeClient) ChatStart(ctx context.Context) (string, error) { return "s1", nil }

func (f *fakeClient) ChatMessage(ctx context.Context, sessionID, message, env string) (string, error) {
	return "", nil
}

func (f *fakeClient) SoftDelete(ctx context.Context, env, subject string) (*registry.DeleteResult, error) {
	return &registry.DeleteResult{Success: true}, nil
}

func (f *fakeClient) HardDelete(ctx context.Context, env, subject string) (*registry.DeleteResult, error) {
	return &registry.DeleteResult{Success: true}, nil
}

func (f *fakeClient) BulkDelete(ctx context.Context, env string, subjects []string, typ registry.BulkType) (*registry.BulkResult, error) {
	return &registry.BulkResult{}, nil
}

func (f *fakeClient) PurgeSoftDeleted(ctx context.Context, env string) (int, error) {
	return 0, nil
}

func (f *fakeClient) GenerateSpec(ctx context.Context, env, topic string) (*registry.GenerateResult, error) {
	return nil, nil
}

func (f *fakeClient) GetSpec(ctx context.Context, filename string) (string, error) {
	return "asyncapi: 3.0.0\n", nil
}

func (f *fakeClient) ListSpecs(ctx context.Context) ([]registry.SpecSummary, error) {
	return nil, nil
}

func (f *fakeClient) DownloadSpec(ctx context.Context, filename, destPath string) error {
	return nil
}

func twoEnvs() []registry.Environment {
	return []registry.Environment{
		{Name: "dev", Configured: true, Endpoint: "http://sr-dev:8081"},
		{Name: "prod", Configured: true, Endpoint: "http://sr-prod:8081"},
	}
}

func newTestApp(t *testing.T, client *fakeClient, cfgEnv string) Model {
	t.Helper()
	db, err := audit.NewDB(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := audit.NewStore(db)

	cfg := config.Defaults()
	cfg.Environment = cfgEnv
	services := mode.Services{
		Client:      client,
		Coordinator: ops.New(client, store),
		Workflow:    asyncapi.New(client),
		Audit:       store,
		Config:      &cfg,
		Subjects: cachemanager.NewInMemoryCacheManager[string, []registry.SubjectSummary](
			"subjects", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		Topics: cachemanager.NewInMemoryCacheManager[string, []registry.TopicSummary](
			"topics", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		Clipboard: &shared.MockClipboard{},
		Browser:   &shared.MockBrowser{},
	}

	m := New(services)
	res, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return res.(Model)
}

// drain executes a command tree, feeding produced messages back into the
// model. Toasts are applied without their dismiss timer so tests never sleep
// on the 3s tick, and quit messages terminate their branch.
func drain(m Model, cmd tea.Cmd) Model {
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
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		if _, ok := msg.(mode.ShowToastMsg); ok {
			res, _ := m.Update(msg)
			m = res.(Model)
			continue
		}
		res, followUp := m.Update(msg)
		m = res.(Model)
		queue = append(queue, followUp)
	}
	return m
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestStartup_PreselectsConfiguredEnvironment(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")

	m = drain(m, m.Init())
	require.False(t, m.pickerOpen)
	require.Equal(t, "dev", m.services.Coordinator.Environment())
	require.Len(t, m.envs, 2)
}

func TestStartup_OpensPickerWithoutConfiguredMatch(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "")

	m = drain(m, m.Init())
	require.True(t, m.pickerOpen)
	require.Equal(t, 0, m.pickerIdx)
	require.Empty(t, m.services.Coordinator.Environment())
	require.Contains(t, m.View(), "Select Environment")
}

func TestStartup_DropsUnconfiguredEnvironments(t *testing.T) {
	client := &fakeClient{envs: []registry.Environment{
		{Name: "dev", Configured: true},
		{Name: "legacy", Configured: false},
	}}
	m := newTestApp(t, client, "dev")

	m = drain(m, m.Init())
	require.Len(t, m.envs, 1)
	require.Equal(t, "dev", m.envs[0].Name)
}

func TestStartup_NoConfiguredEnvironmentsIsFatal(t *testing.T) {
	client := &fakeClient{}
	m := newTestApp(t, client, "dev")

	res, cmd := m.Update(environmentsMsg{envs: []registry.Environment{
		{Name: "legacy", Configured: false},
	}})
	m = res.(Model)
	require.Contains(t, m.fatal, "No configured environments")
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.Contains(t, m.View(), "No configured environments")
}

func TestStartup_EnvironmentFetchErrorBecomesToast(t *testing.T) {
	client := &fakeClient{}
	m := newTestApp(t, client, "dev")

	_, cmd := m.Update(environmentsMsg{err: errors.New("backend unreachable")})
	require.NotNil(t, cmd)
	toast, ok := cmd().(mode.ShowToastMsg)
	require.True(t, ok)
	require.Equal(t, "backend unreachable", toast.Message)
	require.Equal(t, toaster.StyleError, toast.Style)
}

func TestPicker_NavigateAndSelect(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "")
	m = drain(m, m.Init())

	res, _ := m.Update(keyRune('j'))
	m = res.(Model)
	require.Equal(t, 1, m.pickerIdx)

	// Movement clamps at the list edges.
	res, _ = m.Update(keyRune('j'))
	m = res.(Model)
	require.Equal(t, 1, m.pickerIdx)

	res, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = res.(Model)
	require.False(t, m.pickerOpen)
	require.Equal(t, "prod", m.services.Coordinator.Environment())

	// Selection broadcasts the change so every mode refetches.
	m = drain(m, cmd)
	require.Positive(t, client.schemasCalls)
	require.Positive(t, client.topicsCalls)
}

func TestPicker_EscapeOnlyClosesWithActiveEnvironment(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "")
	m = drain(m, m.Init())

	// No environment is active yet, so esc is refused.
	res, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = res.(Model)
	require.True(t, m.pickerOpen)

	res, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(res.(Model), cmd)
	require.False(t, m.pickerOpen)

	// e reopens the picker preselected on the active environment; esc now
	// closes it without changing anything.
	res, _ = m.Update(keyRune('e'))
	m = res.(Model)
	require.True(t, m.pickerOpen)
	require.Equal(t, 0, m.pickerIdx)

	res, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = res.(Model)
	require.False(t, m.pickerOpen)
	require.Equal(t, "dev", m.services.Coordinator.Environment())
}

func TestNumberKeys_SwitchModes(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")
	m = drain(m, m.Init())
	require.Equal(t, mode.ModeSchemas, m.currentMode)

	res, cmd := m.Update(keyRune('2'))
	m = drain(res.(Model), cmd)
	require.Equal(t, mode.ModeTopics, m.currentMode)

	// Re-selecting the active mode is a no-op.
	res, cmd = m.Update(keyRune('2'))
	m = res.(Model)
	require.Nil(t, cmd)
	require.Equal(t, mode.ModeTopics, m.currentMode)

	res, cmd = m.Update(keyRune('5'))
	m = drain(res.(Model), cmd)
	require.Equal(t, mode.ModeHealth, m.currentMode)
	require.Contains(t, m.View(), "Health · dev")
}

func TestModeSwitch_ServesWarmCache(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")
	m = drain(m, m.Init())
	require.Equal(t, 1, client.schemasCalls)

	res, cmd := m.Update(keyRune('2'))
	m = drain(res.(Model), cmd)
	res, cmd = m.Update(keyRune('1'))
	m = drain(res.(Model), cmd)

	// Returning to schemas re-runs its Init, served from the subject cache.
	require.Equal(t, mode.ModeSchemas, m.currentMode)
	require.Equal(t, 1, client.schemasCalls)
}

func TestChatInput_CapturesGlobalKeys(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")
	m = drain(m, m.Init())

	res, cmd := m.Update(keyRune('6'))
	m = drain(res.(Model), cmd)
	require.Equal(t, mode.ModeChat, m.currentMode)
	require.True(t, m.chat.InputFocused())

	// While the input is focused, 1 is text, not a mode switch.
	res, _ = m.Update(keyRune('1'))
	m = res.(Model)
	require.Equal(t, mode.ModeChat, m.currentMode)

	res, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = res.(Model)
	require.False(t, m.chat.InputFocused())

	res, cmd = m.Update(keyRune('1'))
	m = drain(res.(Model), cmd)
	require.Equal(t, mode.ModeSchemas, m.currentMode)
}

func TestShowSpec_OpensViewerAndEscReturns(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")
	m = drain(m, m.Init())

	artifact := &asyncapi.Artifact{Topic: "orders", Filename: "orders.yaml", Body: "asyncapi: 3.0.0\n"}
	res, _ := m.Update(mode.ShowSpecMsg{Artifact: artifact, Return: mode.ModeTopics})
	m = res.(Model)
	require.Equal(t, mode.ModeSpecViewer, m.currentMode)
	require.Contains(t, m.View(), "orders")

	res, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = drain(res.(Model), cmd)
	require.Equal(t, mode.ModeTopics, m.currentMode)
}

func TestToast_ShowsAndDismisses(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")
	m = drain(m, m.Init())

	res, cmd := m.Update(mode.ShowToastMsg{Message: "saved to ~/Downloads", Style: toaster.StyleSuccess})
	m = res.(Model)
	require.NotNil(t, cmd)
	require.True(t, m.toaster.Visible())
	require.Contains(t, m.View(), "saved to ~/Downloads")

	res, _ = m.Update(toaster.DismissMsg{})
	m = res.(Model)
	require.False(t, m.toaster.Visible())
	require.NotContains(t, m.View(), "saved to ~/Downloads")
}

func TestAuthRejected_ClearsCredentialsAndQuits(t *testing.T) {
	require.NoError(t, session.Save(session.Credentials{Key: "k", Secret: "s"}))

	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")
	m = drain(m, m.Init())

	res, cmd := m.Update(mode.AuthRejectedMsg{})
	m = res.(Model)
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.Contains(t, m.View(), "Authentication rejected")

	_, ok := session.Load()
	require.False(t, ok)
}

func TestCtrlC_Quits(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")
	m = drain(m, m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgram_BootsSelectsEnvironmentAndQuits(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "")

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Select Environment"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Schemas (1)"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	fm, ok := tm.FinalModel(t).(Model)
	require.True(t, ok)
	require.Equal(t, "dev", fm.services.Coordinator.Environment())
}

func TestView_TopBarShowsEnvironment(t *testing.T) {
	client := &fakeClient{envs: twoEnvs()}
	m := newTestApp(t, client, "dev")

	require.Contains(t, m.View(), "no environment")

	m = drain(m, m.Init())
	view := m.View()
	require.Contains(t, view, "regatta")
	require.Contains(t, view, "dev")
}
