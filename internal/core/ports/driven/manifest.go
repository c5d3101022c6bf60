package driven

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// ManifestReader reads import items from a manifest file.
type ManifestReader interface {
	// Read parses the manifest at path.
	// Returns domain.ErrUnsupportedType for unknown formats.
	Read(ctx context.Context, path string) ([]*domain.ImportItem, error)

	// Formats returns the supported file extensions.
	Formats() []string

	// Watch calls onChange after each settled change to the manifest at
	// path, until ctx is done.
	Watch(ctx context.Context, path string, onChange func()) error
}
