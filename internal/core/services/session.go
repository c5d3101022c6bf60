package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService wires a fresh import session from stored settings.
type SessionService struct {
	settings  driving.SettingsService
	factory   driven.SessionFactory
	journal   driven.RunJournal
	manifests driven.ManifestReader
	newCache  func() driven.IdentityCache
	newRunID  func() string
}

// NewSessionService creates a session service.
// newCache supplies the identity cache for sessions opened without one; journal and
// manifests may be nil.
func NewSessionService(
	settings driving.SettingsService,
	factory driven.SessionFactory,
	journal driven.RunJournal,
	manifests driven.ManifestReader,
	newCache func() driven.IdentityCache,
) *SessionService {
	return &SessionService{
		settings:  settings,
		factory:   factory,
		journal:   journal,
		manifests: manifests,
		newCache:  newCache,
	}
}

// SetRunIDGenerator sets the run id generator passed to each session.
func (s *SessionService) SetRunIDGenerator(fn func() string) {
	s.newRunID = fn
}

// Open validates the settings, connects and builds the session services.
func (s *SessionService) Open(ctx context.Context, opts driving.SessionOptions) (*driving.Session, error) {
	if s.settings == nil || s.factory == nil || (s.newCache == nil && opts.Cache == nil) {
		return nil, fmt.Errorf("%w: session service not configured", domain.ErrRepositoryUnavailable)
	}

	settings, err := s.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	overwrite := settings.Import.Overwrite
	if opts.Overwrite != nil {
		overwrite = *opts.Overwrite
	}

	gateway, err := s.factory.Connect(ctx, *settings)
	if err != nil {
		return nil, err
	}
	logger.Debug("session: connected to %s as %s", settings.Connection.URL(), settings.Connection.User)

	cache := opts.Cache
	if cache == nil {
		cache = s.newCache()
	}
	importer := NewImportService(gateway, cache, s.journal, overwrite)
	importer.SetRunIDGenerator(s.newRunID)
	importer.SetSecondaryTypes(settings.Import.SecondaryTypes)

	return &driving.Session{
		Import:    importer,
		DataLists: NewDataListService(gateway, cache, settings.Connection.User),
		Overwrite: overwrite,
		Cache:     cache,
	}, nil
}

// ReadManifest parses a manifest with the configured reader.
func (s *SessionService) ReadManifest(ctx context.Context, path string) ([]*domain.ImportItem, error) {
	if s.manifests == nil {
		return nil, fmt.Errorf("%w: no manifest reader", domain.ErrUnsupportedType)
	}
	return s.manifests.Read(ctx, path)
}

// WatchManifest blocks, calling onChange after each change to the manifest.
func (s *SessionService) WatchManifest(ctx context.Context, path string, onChange func()) error {
	if s.manifests == nil {
		return fmt.Errorf("%w: no manifest reader", domain.ErrUnsupportedType)
	}
	return s.manifests.Watch(ctx, path, onChange)
}
