package driving

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// DataListService locates and creates site data lists.
type DataListService interface {
	// Container returns the site's data list container, creating it when
	// absent and create is true. Returns domain.ErrNotFound otherwise.
	Container(ctx context.Context, site string, create bool) (*domain.RepositoryObject, error)

	// Lists returns the site's data lists holding itemType items, creating
	// one when none exist and create is true.
	Lists(ctx context.Context, site, itemType string, create bool) ([]domain.RepositoryObject, error)
}
