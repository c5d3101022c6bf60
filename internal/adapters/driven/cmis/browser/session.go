package browser

import (
	"context"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// Ensure SessionFactory implements the interface.
var _ driven.SessionFactory = (*SessionFactory)(nil)

// SessionFactory opens browser binding gateways.
type SessionFactory struct {
	base Options
}

// NewSessionFactory creates a factory. base supplies the transport
// options settings do not carry, such as the HTTP client.
func NewSessionFactory(base Options) *SessionFactory {
	return &SessionFactory{base: base}
}

// Connect creates a gateway and binds it to its repository, so an
// unreachable host or rejected credentials fail here rather than on the
// first import.
func (f *SessionFactory) Connect(ctx context.Context, settings domain.AppSettings) (driven.RepositoryGateway, error) {
	opts := f.base
	opts.Gateway = settings.Gateway
	opts.SecondaryTypes = settings.Import.SecondaryTypes

	g := New(settings.Connection, opts)
	if _, err := g.Repository(ctx); err != nil {
		return nil, err
	}
	return g, nil
}
