package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driving"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// Ensure DataListService implements the interface.
var _ driving.DataListService = (*DataListService)(nil)

// Data list types and properties.
const (
	dataListType          = "F:dl:dataList"
	dataListItemTypeProp  = "dl:dataListItemType"
	dataListItemPrefix    = "D:"
	dataListContainerType = "cmis:folder,P:st:siteContainer,P:cm:ownable,P:cm:titled,P:cm:tagscope"

	propComponentID = "st:componentId"
	propOwner       = "cm:owner"
	propDescription = "cm:description"
)

// DataListService locates and creates site data lists.
// Folders it finds or creates are cached so later imports can use them
// as destinations.
type DataListService struct {
	gateway      driven.RepositoryGateway
	cache        driven.IdentityCache
	types        *TypeResolver
	destinations *DestinationResolver
	owner        string
}

// NewDataListService creates a data list service. owner is recorded as
// cm:owner on containers it creates.
func NewDataListService(gateway driven.RepositoryGateway, cache driven.IdentityCache, owner string) *DataListService {
	types := NewTypeResolver(gateway)
	return &DataListService{
		gateway:      gateway,
		cache:        cache,
		types:        types,
		destinations: NewDestinationResolver(gateway, cache, types),
		owner:        owner,
	}
}

// Container returns the site's data list container.
func (s *DataListService) Container(ctx context.Context, site string, create bool) (*domain.RepositoryObject, error) {
	if s.gateway == nil {
		return nil, domain.ErrRepositoryUnavailable
	}
	if strings.TrimSpace(site) == "" {
		return nil, fmt.Errorf("%w: no site name", domain.ErrInvalidInput)
	}

	folderDef, err := s.types.Definition(ctx, string(domain.BaseFolder))
	if err != nil {
		return nil, err
	}
	stmt, alias := selectObjectIDs(folderDef, containsPath(sitePath(site)+"/cm:"+dataListsName))
	found, err := queryObjects(ctx, s.gateway, stmt, alias, 1)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		s.cache.PutObject(&found[0])
		return &found[0], nil
	}
	if !create {
		return nil, fmt.Errorf("data lists of site %q: %w", site, domain.ErrNotFound)
	}

	siteFolder, err := s.destinations.SiteFolder(ctx, site)
	if err != nil {
		return nil, err
	}
	logger.Info("Creating data list container in site %s", site)
	props := domain.Properties{
		domain.PropName:         dataListsName,
		domain.PropObjectTypeID: dataListContainerType,
		propComponentID:         dataListsName,
		propOwner:               s.owner,
		propDescription:         "Data Lists",
	}
	return s.createFolder(ctx, props, siteFolder.ID)
}

// Lists returns the site's data lists of itemType, creating one when
// none exist and create is true.
func (s *DataListService) Lists(
	ctx context.Context,
	site, itemType string,
	create bool,
) ([]domain.RepositoryObject, error) {
	if s.gateway == nil {
		return nil, domain.ErrRepositoryUnavailable
	}
	if strings.TrimSpace(site) == "" {
		return nil, fmt.Errorf("%w: no site name", domain.ErrInvalidInput)
	}
	itemType = strings.TrimPrefix(strings.TrimSpace(itemType), dataListItemPrefix)
	if itemType == "" {
		return nil, fmt.Errorf("%w: no data list item type", domain.ErrInvalidInput)
	}

	itemDef, err := s.types.Definition(ctx, dataListItemPrefix+itemType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no data list item type %q: %w", domain.ErrResolution, itemType, err)
		}
		return nil, err
	}
	listDef, err := s.types.Definition(ctx, dataListType)
	if err != nil {
		return nil, err
	}

	where := fmt.Sprintf("%s = %s AND %s",
		dataListItemTypeProp, quoteLiteral(itemType),
		containsDescendants(sitePath(site)+"/cm:"+dataListsName))
	stmt, alias := selectObjectIDs(listDef, where)
	lists, err := queryObjects(ctx, s.gateway, stmt, alias, 0)
	if err != nil {
		return nil, err
	}
	for i := range lists {
		s.cache.PutObject(&lists[i])
	}
	if len(lists) > 0 || !create {
		return lists, nil
	}

	container, err := s.Container(ctx, site, true)
	if err != nil {
		return nil, err
	}

	display := itemDef.DisplayName
	if display == "" {
		display = itemType
	}
	logger.Info("Creating data list %s in site %s", display, site)
	props := domain.Properties{
		domain.PropName:         display,
		domain.PropObjectTypeID: listDef.ID + ",P:cm:titled",
		dataListItemTypeProp:    itemType,
		propDescription:         "Imported data list: " + display,
	}
	list, err := s.createFolder(ctx, props, container.ID)
	if err != nil {
		return nil, err
	}
	return []domain.RepositoryObject{*list}, nil
}

func (s *DataListService) createFolder(
	ctx context.Context,
	props domain.Properties,
	parentID string,
) (*domain.RepositoryObject, error) {
	id, err := s.gateway.CreateFolder(ctx, props, parentID)
	if err != nil {
		return nil, fmt.Errorf("create folder %s: %w", props[domain.PropName], err)
	}
	obj, err := s.gateway.GetObject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get created folder %s: %w", id, err)
	}
	debugObject(obj)
	s.cache.PutObject(obj)
	return obj, nil
}
