package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// DestinationResolver turns an item's destination hint into a container.
type DestinationResolver struct {
	gateway driven.RepositoryGateway
	cache   driven.IdentityCache
	types   *TypeResolver
}

// NewDestinationResolver creates a resolver that shares cache and types with its caller.
func NewDestinationResolver(
	gateway driven.RepositoryGateway,
	cache driven.IdentityCache,
	types *TypeResolver,
) *DestinationResolver {
	return &DestinationResolver{
		gateway: gateway,
		cache:   cache,
		types:   types,
	}
}

// Resolve returns the item's destination container and records it on the item.
// Failures wrap domain.ErrResolution and leave the repository untouched.
func (r *DestinationResolver) Resolve(ctx context.Context, item *domain.ImportItem) (*domain.RepositoryObject, error) {
	if item.DestinationResolved != nil {
		return item.DestinationResolved, nil
	}

	dest := item.Destination()
	switch {
	case dest == "" && item.Site != "":
		docLib, err := r.DocumentLibrary(ctx, item.Site)
		if err != nil {
			return nil, fmt.Errorf("%w: document library of site %q: %w", domain.ErrResolution, item.Site, err)
		}
		item.SetDestination(docLib.ID)
		item.DestinationResolved = docLib
		return docLib, nil

	case dest != "":
		// Cached ids resolve in any form; only a miss is classified.
		obj, ok := r.cache.Object(dest)
		if !ok {
			if domain.IsNodeRef(dest) {
				return nil, fmt.Errorf("%w: destination %s: %w", domain.ErrResolution, dest, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("%w: unrecognised destination %q", domain.ErrResolution, dest)
		}
		if !obj.IsFolder() {
			return nil, fmt.Errorf("%w: destination %s is not a folder", domain.ErrResolution, obj)
		}
		item.DestinationResolved = obj
		return obj, nil

	default:
		return nil, fmt.Errorf("%w: no destination or site", domain.ErrResolution)
	}
}

// SiteFolder returns the folder of a site, querying on first use.
// Returns domain.ErrNotFound if no folder matches.
func (r *DestinationResolver) SiteFolder(ctx context.Context, site string) (*domain.RepositoryObject, error) {
	if folder, ok := r.cache.SiteFolder(site); ok {
		return folder, nil
	}

	def, err := r.types.Definition(ctx, string(domain.BaseFolder))
	if err != nil {
		return nil, err
	}
	stmt, alias := selectObjectIDs(def, containsPath(sitePath(site)))

	folder, err := r.firstObject(ctx, stmt, alias)
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", site, err)
	}
	r.cache.PutSiteFolder(site, folder)
	return folder, nil
}

// DocumentLibrary returns the document library of a site, querying on first use.
// Returns domain.ErrNotFound if the site or its library does not exist.
func (r *DestinationResolver) DocumentLibrary(ctx context.Context, site string) (*domain.RepositoryObject, error) {
	if folder, ok := r.cache.DocumentLibrary(site); ok {
		return folder, nil
	}

	siteFolder, err := r.SiteFolder(ctx, site)
	if err != nil {
		return nil, err
	}

	def, err := r.types.Definition(ctx, string(domain.BaseFolder))
	if err != nil {
		return nil, err
	}
	where := fmt.Sprintf("%s = %s AND IN_FOLDER(%s)",
		domain.PropName, quoteLiteral(documentLibraryName), quoteLiteral(siteFolder.ID))
	stmt, alias := selectObjectIDs(def, where)

	folder, err := r.firstObject(ctx, stmt, alias)
	if err != nil {
		return nil, fmt.Errorf("site %q: %s: %w", site, documentLibraryName, err)
	}
	r.cache.PutDocumentLibrary(site, folder)
	return folder, nil
}

// firstObject runs stmt and fetches the object of the first row.
// Further rows are ignored.
func (r *DestinationResolver) firstObject(ctx context.Context, stmt, alias string) (*domain.RepositoryObject, error) {
	objs, err := queryObjects(ctx, r.gateway, stmt, alias, 1)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &objs[0], nil
}

// queryObjects runs stmt and fetches the objects whose ids are reported under
// alias. limit <= 0 fetches every row.
func queryObjects(
	ctx context.Context,
	gateway driven.RepositoryGateway,
	stmt, alias string,
	limit int,
) ([]domain.RepositoryObject, error) {
	if gateway == nil {
		return nil, domain.ErrRepositoryUnavailable
	}
	logger.Debug("Query: %s", stmt)

	rows, err := gateway.Query(ctx, stmt, false)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	var objs []domain.RepositoryObject
	for _, row := range rows {
		if limit > 0 && len(objs) >= limit {
			break
		}
		id := row.String(alias)
		if id == "" {
			continue
		}
		obj, err := gateway.GetObject(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get object %s: %w", id, err)
		}
		debugObject(obj)
		objs = append(objs, *obj)
	}
	return objs, nil
}

// debugObject dumps an object when verbose logging is on.
func debugObject(obj *domain.RepositoryObject) {
	if !logger.IsVerbose() {
		return
	}
	logger.Debug("Object: %s", obj)
	logger.Debug("  Type: %s", obj.TypeID)
	logger.Debug("  Properties:")
	keys := make([]string, 0, len(obj.Properties))
	for k := range obj.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		logger.Debug("    %s = %v", k, obj.Properties[k])
	}
}
