package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// TypeResolver validates primary types against the repository type system.
// Definitions are cached for the life of the session.
type TypeResolver struct {
	gateway driven.RepositoryGateway

	mu   sync.Mutex
	defs map[string]*domain.TypeDefinition
}

// NewTypeResolver creates a type resolver over a repository session.
func NewTypeResolver(gateway driven.RepositoryGateway) *TypeResolver {
	return &TypeResolver{
		gateway: gateway,
		defs:    make(map[string]*domain.TypeDefinition),
	}
}

// Resolve returns the definition of spec's primary type.
// Aspects are not consulted. An unknown primary type wraps domain.ErrResolution.
func (r *TypeResolver) Resolve(ctx context.Context, spec domain.TypeSpec) (*domain.TypeDefinition, error) {
	if spec.IsZero() {
		return nil, fmt.Errorf("%w: no primary type", domain.ErrResolution)
	}
	def, err := r.Definition(ctx, spec.Primary)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown type %q: %w", domain.ErrResolution, spec.Primary, err)
		}
		return nil, fmt.Errorf("get type %q: %w", spec.Primary, err)
	}
	return def, nil
}

// ResolveString parses a type string and resolves its primary type.
func (r *TypeResolver) ResolveString(ctx context.Context, typeString string) (domain.TypeSpec, *domain.TypeDefinition, error) {
	spec, err := domain.ParseTypeSpec(typeString)
	if err != nil {
		return domain.TypeSpec{}, nil, fmt.Errorf("%w: %w", domain.ErrResolution, err)
	}
	def, err := r.Resolve(ctx, spec)
	if err != nil {
		return spec, nil, err
	}
	return spec, def, nil
}

// Definition returns a type definition by id, fetching it on first use.
func (r *TypeResolver) Definition(ctx context.Context, typeID string) (*domain.TypeDefinition, error) {
	if r.gateway == nil {
		return nil, domain.ErrRepositoryUnavailable
	}

	r.mu.Lock()
	def, ok := r.defs[typeID]
	r.mu.Unlock()
	if ok {
		return def, nil
	}

	def, err := r.gateway.GetTypeDefinition(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("type %q: %w", typeID, domain.ErrNotFound)
	}

	r.mu.Lock()
	r.defs[typeID] = def
	r.mu.Unlock()
	return def, nil
}
