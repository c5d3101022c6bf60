package driving

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// ImportService imports items into the content repository.
type ImportService interface {
	// Import processes a single item. The result is always non-nil and
	// carries the item's definitive outcome. The error is non-nil when the
	// item failed; it wraps domain.ErrRepositoryUnavailable when there is
	// no session.
	Import(ctx context.Context, item *domain.ImportItem) (*domain.ImportResult, error)

	// ImportAll processes items in order and returns one result per item,
	// continuing past item failures. The error is non-nil only when the
	// run as a whole cannot continue (no session, cancelled context).
	ImportAll(ctx context.Context, items []*domain.ImportItem) (*domain.BatchResult, error)
}
