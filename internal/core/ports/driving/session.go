package driving

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// SessionOptions adjusts how a session is opened.
type SessionOptions struct {
	// Overwrite overrides the import.overwrite setting when non-nil.
	Overwrite *bool

	// Cache is reused instead of a fresh identity cache when non-nil, so
	// objects imported through one session resolve in another.
	Cache driven.IdentityCache
}

// Session is one connected repository session. Its services share an
// identity cache that lives as long as the session.
type Session struct {
	Import    ImportService
	DataLists DataListService

	// Overwrite is the effective overwrite switch.
	Overwrite bool

	// Cache is the identity cache the session's services share.
	Cache driven.IdentityCache
}

// SessionService connects to the configured repository and reads manifests.
type SessionService interface {
	// Open connects using the stored settings.
	// Errors wrap domain.ErrRepositoryUnavailable or domain.ErrInvalidInput.
	Open(ctx context.Context, opts SessionOptions) (*Session, error)

	// ReadManifest parses a manifest file into import items.
	ReadManifest(ctx context.Context, path string) ([]*domain.ImportItem, error)

	// WatchManifest calls onChange after each change to the manifest at
	// path. It blocks until ctx is done.
	WatchManifest(ctx context.Context, path string, onChange func()) error
}
