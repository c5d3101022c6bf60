package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
)

// --- Mock implementations ---

// queryRule answers any statement containing match with the given ids.
type queryRule struct {
	match string
	ids   []string
}

// mockGateway implements driven.RepositoryGateway over an in-memory tree.
type mockGateway struct {
	objects  map[string]*domain.RepositoryObject
	children map[string][]string
	types    map[string]*domain.TypeDefinition
	rules    []queryRule
	nextID   int

	// Recorded calls
	calls         map[string]int
	queries       []string
	uploads       []*domain.ContentStream
	contentSets   []*domain.ContentStream
	relationships []domain.Properties
	updates       []domain.Properties

	// Injected behaviour
	relOutcomes    map[string]domain.WriteOutcome
	relErrs        map[string]error
	contentOutcome domain.WriteOutcome
	contentErr     error
	createItemErr  error
	queryErr       error
	getChildrenErr error
}

var _ driven.RepositoryGateway = (*mockGateway)(nil)

// newMockGateway returns a repository holding site "demo" with its document library.
func newMockGateway() *mockGateway {
	g := &mockGateway{
		objects:     make(map[string]*domain.RepositoryObject),
		children:    make(map[string][]string),
		types:       make(map[string]*domain.TypeDefinition),
		calls:       make(map[string]int),
		relOutcomes: make(map[string]domain.WriteOutcome),
		relErrs:     make(map[string]error),
	}
	g.addType("cmis:folder", "cmis:folder", domain.BaseFolder)
	g.addType("cmis:document", "cmis:document", domain.BaseDocument)
	g.addType("cmis:item", "cmis:item", domain.BaseItem)
	g.addType("D:cm:content", "cm:content", domain.BaseDocument)
	g.addType("I:ex:record", "ex:record", domain.BaseItem)

	g.addObject("", &domain.RepositoryObject{ID: "site-demo", Name: "demo", BaseType: domain.BaseFolder})
	g.addObject("site-demo", &domain.RepositoryObject{
		ID: "doclib-demo", Name: "documentLibrary", BaseType: domain.BaseFolder,
	})
	g.rules = append(g.rules,
		queryRule{match: `=PATH:"/app:company_home/st:sites/cm:demo"`, ids: []string{"site-demo"}},
		queryRule{match: `IN_FOLDER('site-demo')`, ids: []string{"doclib-demo"}},
	)
	return g
}

func (g *mockGateway) addType(id, queryName string, base domain.BaseType) *domain.TypeDefinition {
	def := &domain.TypeDefinition{
		ID:          id,
		QueryName:   queryName,
		DisplayName: id,
		BaseType:    base,
		PropertyDefinitions: map[string]domain.PropertyDefinition{
			domain.PropObjectID: {ID: domain.PropObjectID, QueryName: domain.PropObjectID},
			domain.PropName:     {ID: domain.PropName, QueryName: domain.PropName},
		},
	}
	g.types[id] = def
	return def
}

func (g *mockGateway) addObject(parentID string, obj *domain.RepositoryObject) *domain.RepositoryObject {
	g.objects[obj.ID] = obj
	if parentID != "" {
		g.children[parentID] = append(g.children[parentID], obj.ID)
	}
	return obj
}

func (g *mockGateway) mutations() int {
	return g.calls["CreateFolder"] + g.calls["CreateDocument"] + g.calls["CreateItem"] +
		g.calls["CreateRelationship"] + g.calls["UpdateProperties"] + g.calls["SetContentStream"]
}

func (g *mockGateway) record(name string) error {
	g.calls[name]++
	return nil
}

func (g *mockGateway) Query(_ context.Context, statement string, _ bool) ([]domain.QueryRow, error) {
	if err := g.record("Query"); err != nil {
		return nil, err
	}
	g.queries = append(g.queries, statement)
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	for _, r := range g.rules {
		if strings.Contains(statement, r.match) {
			rows := make([]domain.QueryRow, 0, len(r.ids))
			for _, id := range r.ids {
				rows = append(rows, domain.QueryRow{domain.PropObjectID: id})
			}
			return rows, nil
		}
	}
	return nil, nil
}

func (g *mockGateway) GetObject(_ context.Context, id string) (*domain.RepositoryObject, error) {
	if err := g.record("GetObject"); err != nil {
		return nil, err
	}
	obj, ok := g.objects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *obj
	return &cp, nil
}

func (g *mockGateway) GetChildren(_ context.Context, folderID string) ([]domain.RepositoryObject, error) {
	if err := g.record("GetChildren"); err != nil {
		return nil, err
	}
	if g.getChildrenErr != nil {
		return nil, g.getChildrenErr
	}
	var out []domain.RepositoryObject
	for _, id := range g.children[folderID] {
		out = append(out, *g.objects[id])
	}
	return out, nil
}

func (g *mockGateway) GetTypeDefinition(_ context.Context, typeID string) (*domain.TypeDefinition, error) {
	if err := g.record("GetTypeDefinition"); err != nil {
		return nil, err
	}
	def, ok := g.types[typeID]
	if !ok {
		return nil, fmt.Errorf("type %s: %w", typeID, domain.ErrNotFound)
	}
	return def, nil
}

func (g *mockGateway) create(props domain.Properties, parentID string) *domain.RepositoryObject {
	g.nextID++
	typeID := props[domain.PropObjectTypeID]
	spec, _ := domain.ParseTypeSpec(typeID)
	base := domain.BaseItem
	if def, ok := g.types[spec.Primary]; ok {
		base = def.BaseType
	}
	obj := &domain.RepositoryObject{
		ID:         fmt.Sprintf("workspace://SpacesStore/node-%d", g.nextID),
		Name:       props[domain.PropName],
		TypeID:     typeID,
		BaseType:   base,
		Properties: make(map[string]any),
	}
	for k, v := range props {
		obj.Properties[k] = v
	}
	return g.addObject(parentID, obj)
}

func (g *mockGateway) CreateFolder(_ context.Context, props domain.Properties, parentID string) (string, error) {
	if err := g.record("CreateFolder"); err != nil {
		return "", err
	}
	obj := g.create(props, parentID)
	obj.BaseType = domain.BaseFolder
	return obj.ID, nil
}

func (g *mockGateway) CreateDocument(
	_ context.Context,
	props domain.Properties,
	parentID string,
	stream *domain.ContentStream,
	_ domain.VersioningState,
) (*domain.RepositoryObject, error) {
	if err := g.record("CreateDocument"); err != nil {
		return nil, err
	}
	g.uploads = append(g.uploads, stream)
	obj := g.create(props, parentID)
	obj.BaseType = domain.BaseDocument
	cp := *obj
	return &cp, nil
}

func (g *mockGateway) CreateItem(_ context.Context, props domain.Properties, parentID string) (string, error) {
	if err := g.record("CreateItem"); err != nil {
		return "", err
	}
	if g.createItemErr != nil {
		return "", g.createItemErr
	}
	return g.create(props, parentID).ID, nil
}

func (g *mockGateway) CreateRelationship(_ context.Context, props domain.Properties) (domain.WriteOutcome, error) {
	if err := g.record("CreateRelationship"); err != nil {
		return domain.OutcomeApplied, err
	}
	target := props[domain.PropTargetID]
	if err := g.relErrs[target]; err != nil {
		return domain.OutcomeApplied, err
	}
	g.relationships = append(g.relationships, props)
	return g.relOutcomes[target], nil
}

func (g *mockGateway) UpdateProperties(
	_ context.Context,
	id string,
	props domain.Properties,
) (*domain.RepositoryObject, error) {
	if err := g.record("UpdateProperties"); err != nil {
		return nil, err
	}
	obj, ok := g.objects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	g.updates = append(g.updates, props)
	if obj.Properties == nil {
		obj.Properties = make(map[string]any)
	}
	for k, v := range props {
		obj.Properties[k] = v
	}
	cp := *obj
	return &cp, nil
}

func (g *mockGateway) SetContentStream(
	_ context.Context,
	_ string,
	stream *domain.ContentStream,
	_ bool,
) (domain.WriteOutcome, error) {
	if err := g.record("SetContentStream"); err != nil {
		return domain.OutcomeApplied, err
	}
	if g.contentErr != nil {
		return domain.OutcomeApplied, g.contentErr
	}
	if g.contentOutcome == domain.OutcomeApplied {
		g.contentSets = append(g.contentSets, stream)
	}
	return g.contentOutcome, nil
}
