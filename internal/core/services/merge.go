package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// MergeDecision is what to do with an item given what already exists.
type MergeDecision int

// Merge decisions.
const (
	// DecisionCreate creates a new object.
	DecisionCreate MergeDecision = iota

	// DecisionSkip leaves the existing object untouched.
	DecisionSkip

	// DecisionUpdateProperties updates the existing object's properties.
	DecisionUpdateProperties

	// DecisionUpdateContent updates properties, then replaces the content stream.
	DecisionUpdateContent
)

// String returns the string representation.
func (d MergeDecision) String() string {
	switch d {
	case DecisionCreate:
		return "create"
	case DecisionSkip:
		return "skip"
	case DecisionUpdateProperties:
		return "update_properties"
	case DecisionUpdateContent:
		return "update_content"
	default:
		return "unknown"
	}
}

// Decide applies the merge table.
//
//	existing | overwrite | kind                   | decision
//	no       | -         | -                      | create
//	yes      | false     | -                      | skip
//	yes      | true      | non-document           | update properties
//	yes      | true      | document, content      | update content
//	yes      | true      | document, no content   | update properties
func Decide(existing *domain.RepositoryObject, overwrite, hasContent bool) MergeDecision {
	switch {
	case existing == nil:
		return DecisionCreate
	case !overwrite:
		return DecisionSkip
	case existing.IsDocument() && hasContent:
		return DecisionUpdateContent
	default:
		return DecisionUpdateProperties
	}
}

// MergePolicy finds same-named objects in a container.
type MergePolicy struct {
	gateway driven.RepositoryGateway
}

// NewMergePolicy creates a merge policy over a repository session.
func NewMergePolicy(gateway driven.RepositoryGateway) *MergePolicy {
	return &MergePolicy{gateway: gateway}
}

// FindChild returns the first direct child of container named exactly name,
// or nil when there is none. Later same-named children are never seen.
func (p *MergePolicy) FindChild(
	ctx context.Context,
	container *domain.RepositoryObject,
	name string,
) (*domain.RepositoryObject, error) {
	if p.gateway == nil {
		return nil, domain.ErrRepositoryUnavailable
	}
	if container == nil {
		return nil, fmt.Errorf("%w: no container", domain.ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no name", domain.ErrInvalidInput)
	}

	children, err := p.gateway.GetChildren(ctx, container.ID)
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", container, err)
	}
	for i := range children {
		if children[i].Name == name {
			return &children[i], nil
		}
	}
	return nil, nil
}
