package browser

import (
	"fmt"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

// objectData is one object in succinct form.
type objectData struct {
	SuccinctProperties map[string]any `json:"succinctProperties"`
}

// queryResultList is the response to cmisselector=query.
type queryResultList struct {
	Results      []objectData `json:"results"`
	HasMoreItems bool         `json:"hasMoreItems"`
	NumItems     int          `json:"numItems"`
}

// childrenList is the response to cmisselector=children.
type childrenList struct {
	Objects []struct {
		Object objectData `json:"object"`
	} `json:"objects"`
	HasMoreItems bool `json:"hasMoreItems"`
	NumItems     int  `json:"numItems"`
}

// typeDefinition is the response to cmisselector=typeDefinition.
type typeDefinition struct {
	ID                  string                        `json:"id"`
	QueryName           string                        `json:"queryName"`
	DisplayName         string                        `json:"displayName"`
	BaseID              string                        `json:"baseId"`
	PropertyDefinitions map[string]propertyDefinition `json:"propertyDefinitions"`
}

type propertyDefinition struct {
	ID          string `json:"id"`
	QueryName   string `json:"queryName"`
	DisplayName string `json:"displayName"`
}

// toObject converts succinct properties into a repository object.
func (o objectData) toObject() (*domain.RepositoryObject, error) {
	props := o.SuccinctProperties
	id := stringValue(props[domain.PropObjectID])
	if id == "" {
		return nil, fmt.Errorf("cmis: object without %s", domain.PropObjectID)
	}
	return &domain.RepositoryObject{
		ID:         id,
		Name:       stringValue(props[domain.PropName]),
		TypeID:     stringValue(props[domain.PropObjectTypeID]),
		BaseType:   domain.BaseType(stringValue(props[domain.PropBaseTypeID])),
		Properties: props,
	}, nil
}

// toRow returns the properties as a query row keyed by query name.
func (o objectData) toRow() domain.QueryRow {
	row := make(domain.QueryRow, len(o.SuccinctProperties))
	for k, v := range o.SuccinctProperties {
		row[k] = v
	}
	return row
}

// toDomain converts a type definition.
func (t *typeDefinition) toDomain() *domain.TypeDefinition {
	def := &domain.TypeDefinition{
		ID:                  t.ID,
		QueryName:           t.QueryName,
		DisplayName:         t.DisplayName,
		BaseType:            domain.BaseType(t.BaseID),
		PropertyDefinitions: make(map[string]domain.PropertyDefinition, len(t.PropertyDefinitions)),
	}
	for key, p := range t.PropertyDefinitions {
		id := p.ID
		if id == "" {
			id = key
		}
		def.PropertyDefinitions[id] = domain.PropertyDefinition{
			ID:          id,
			QueryName:   p.QueryName,
			DisplayName: p.DisplayName,
		}
	}
	return def
}

// stringValue reads a single string, taking the first element of a list.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
