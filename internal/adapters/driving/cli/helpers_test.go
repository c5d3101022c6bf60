package cli

import (
	"bytes"
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
)

// mockSessionService is a driving.SessionService backed by canned values.
type mockSessionService struct {
	importer  *mockImportService
	dataLists *mockDataListService
	items     []*domain.ImportItem
	openErr   error
	readErr   error

	opened  []driving.SessionOptions
	read    []string
	watched string
}

func (m *mockSessionService) Open(_ context.Context, opts driving.SessionOptions) (*driving.Session, error) {
	m.opened = append(m.opened, opts)
	if m.openErr != nil {
		return nil, m.openErr
	}
	s := &driving.Session{Import: m.importer, DataLists: m.dataLists}
	if opts.Overwrite != nil {
		s.Overwrite = *opts.Overwrite
	}
	return s, nil
}

func (m *mockSessionService) ReadManifest(_ context.Context, path string) ([]*domain.ImportItem, error) {
	m.read = append(m.read, path)
	return m.items, m.readErr
}

// WatchManifest reports one change and returns.
func (m *mockSessionService) WatchManifest(_ context.Context, path string, onChange func()) error {
	m.watched = path
	onChange()
	return nil
}

// mockImportService returns batch for every ImportAll call.
type mockImportService struct {
	batch *domain.BatchResult
	err   error

	calls int
}

func (m *mockImportService) Import(_ context.Context, _ *domain.ImportItem) (*domain.ImportResult, error) {
	return &domain.ImportResult{Action: domain.ActionCreated}, nil
}

func (m *mockImportService) ImportAll(_ context.Context, _ []*domain.ImportItem) (*domain.BatchResult, error) {
	m.calls++
	return m.batch, m.err
}

type mockDataListService struct {
	container *domain.RepositoryObject
	lists     []domain.RepositoryObject
	err       error

	create bool
}

func (m *mockDataListService) Container(_ context.Context, _ string, create bool) (*domain.RepositoryObject, error) {
	m.create = create
	return m.container, m.err
}

func (m *mockDataListService) Lists(_ context.Context, _, _ string, create bool) ([]domain.RepositoryObject, error) {
	m.create = create
	return m.lists, m.err
}

type mockRunService struct {
	runs    []domain.ImportRun
	run     *domain.ImportRun
	records []domain.ItemRecord
	err     error

	limit int
}

func (m *mockRunService) List(_ context.Context, limit int) ([]domain.ImportRun, error) {
	m.limit = limit
	return m.runs, m.err
}

func (m *mockRunService) Get(_ context.Context, _ string) (*domain.ImportRun, []domain.ItemRecord, error) {
	return m.run, m.records, m.err
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings domain.AppSettings
	values   map[string]string
	password string
	err      error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		values:   make(map[string]string),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) SetPassword(password string) error {
	if m.err != nil {
		return m.err
	}
	m.password = password
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"repository.hostname", "import.overwrite"}
}

func (m *mockSettingsService) Validate() error {
	return m.settings.Validate()
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// setupTestServices installs s and returns a cleanup that restores the
// previous services and resets every flag.
func setupTestServices(s Services) func() {
	prev := Services{Session: sessionService, Runs: runService, Settings: settingsService}
	SetServices(s)
	return func() {
		SetServices(prev)
		resetFlags(rootCmd)
	}
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
