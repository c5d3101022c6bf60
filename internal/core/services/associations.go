package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// relationshipTypePrefix marks a relationship type id.
const relationshipTypePrefix = "R:"

// AssociationLinker creates relationships from an imported object to
// previously cached targets.
type AssociationLinker struct {
	gateway driven.RepositoryGateway
	cache   driven.IdentityCache
}

// NewAssociationLinker creates a linker over a session and its identity cache.
func NewAssociationLinker(gateway driven.RepositoryGateway, cache driven.IdentityCache) *AssociationLinker {
	return &AssociationLinker{gateway: gateway, cache: cache}
}

// Link creates one relationship per (association type, target) pair.
// Association types are processed in sorted order, targets in list order.
// No failure stops the remaining pairs.
func (l *AssociationLinker) Link(ctx context.Context, sourceID string, associations map[string]string) []domain.LinkResult {
	names := make([]string, 0, len(associations))
	for name := range associations {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []domain.LinkResult
	for _, name := range names {
		logger.Debug("Creating %s associations from %s", name, sourceID)
		for _, target := range splitTargets(associations[name]) {
			res := l.linkOne(ctx, sourceID, name, target)
			if w := res.Warning(); w != nil {
				logger.Warn("%s", w.Message)
			}
			results = append(results, res)
		}
	}
	return results
}

func (l *AssociationLinker) linkOne(ctx context.Context, sourceID, name, target string) domain.LinkResult {
	res := domain.LinkResult{AssociationType: name, TargetID: target}

	obj, ok := l.cache.Object(target)
	if !ok {
		res.Status = domain.LinkTargetMissing
		return res
	}
	if l.gateway == nil {
		res.Status = domain.LinkFailed
		res.Err = domain.ErrRepositoryUnavailable
		return res
	}

	props := domain.Properties{
		domain.PropSourceID:     sourceID,
		domain.PropTargetID:     obj.ID,
		domain.PropObjectTypeID: relationshipType(name),
	}
	outcome, err := l.gateway.CreateRelationship(ctx, props)
	switch {
	case err != nil:
		res.Status = domain.LinkFailed
		res.Err = err
	case outcome == domain.OutcomeAlreadyExists:
		res.Status = domain.LinkAlreadyExists
	case outcome == domain.OutcomeUnsupported:
		res.Status = domain.LinkFailed
		res.Err = fmt.Errorf("%w: %s", domain.ErrUnsupportedType, relationshipType(name))
	default:
		res.Status = domain.LinkCreated
	}
	return res
}

// relationshipType returns the relationship type id for an association name.
func relationshipType(name string) string {
	if strings.HasPrefix(name, relationshipTypePrefix) {
		return name
	}
	return relationshipTypePrefix + name
}

// splitTargets splits a comma-separated target list, dropping blanks.
func splitTargets(list string) []string {
	var targets []string
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}

// linkWarnings collects the warnings of non-created links.
func linkWarnings(links []domain.LinkResult) []domain.Warning {
	var warnings []domain.Warning
	for _, l := range links {
		if w := l.Warning(); w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings
}

// isUnavailable reports whether err means the session is gone.
func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrRepositoryUnavailable)
}
