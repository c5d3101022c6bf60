package mcp

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
)

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	importer  *mockImportService
	dataLists *mockDataListService
	err       error

	// opened records the options of each Open call.
	opened []driving.SessionOptions
}

func (m *mockSessionService) Open(_ context.Context, opts driving.SessionOptions) (*driving.Session, error) {
	m.opened = append(m.opened, opts)
	if m.err != nil {
		return nil, m.err
	}
	session := &driving.Session{}
	if m.importer != nil {
		session.Import = m.importer
	}
	if m.dataLists != nil {
		session.DataLists = m.dataLists
	}
	if opts.Overwrite != nil {
		session.Overwrite = *opts.Overwrite
	}
	return session, nil
}

func (m *mockSessionService) ReadManifest(_ context.Context, _ string) ([]*domain.ImportItem, error) {
	return nil, m.err
}

func (m *mockSessionService) WatchManifest(_ context.Context, _ string, _ func()) error {
	return m.err
}

// mockImportService is a mock implementation of driving.ImportService.
type mockImportService struct {
	result *domain.ImportResult
	err    error

	items []*domain.ImportItem
}

func (m *mockImportService) Import(_ context.Context, item *domain.ImportItem) (*domain.ImportResult, error) {
	m.items = append(m.items, item)
	return m.result, m.err
}

func (m *mockImportService) ImportAll(_ context.Context, items []*domain.ImportItem) (*domain.BatchResult, error) {
	m.items = append(m.items, items...)
	return &domain.BatchResult{}, m.err
}

// mockDataListService is a mock implementation of driving.DataListService.
type mockDataListService struct {
	container *domain.RepositoryObject
	lists     []domain.RepositoryObject
	err       error

	create   bool
	itemType string
}

func (m *mockDataListService) Container(_ context.Context, _ string, create bool) (*domain.RepositoryObject, error) {
	m.create = create
	return m.container, m.err
}

func (m *mockDataListService) Lists(
	_ context.Context,
	_, itemType string,
	create bool,
) ([]domain.RepositoryObject, error) {
	m.create = create
	m.itemType = itemType
	return m.lists, m.err
}

// mockRunService is a mock implementation of driving.RunService.
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
