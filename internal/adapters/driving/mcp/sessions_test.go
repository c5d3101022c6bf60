package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cmisimport/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/core/services"
)

// fakeGateway is an in-memory repository holding site "demo".
type fakeGateway struct {
	mu            sync.Mutex
	objects       map[string]*domain.RepositoryObject
	children      map[string][]string
	relationships []domain.Properties
	nextID        int
	lost          bool
}

var _ driven.RepositoryGateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	g := &fakeGateway{
		objects:  make(map[string]*domain.RepositoryObject),
		children: make(map[string][]string),
	}
	g.add("", &domain.RepositoryObject{ID: "site-demo", Name: "demo", BaseType: domain.BaseFolder})
	g.add("site-demo", &domain.RepositoryObject{ID: "doclib-demo", Name: "documentLibrary", BaseType: domain.BaseFolder})
	return g
}

func (g *fakeGateway) add(parentID string, obj *domain.RepositoryObject) string {
	g.objects[obj.ID] = obj
	if parentID != "" {
		g.children[parentID] = append(g.children[parentID], obj.ID)
	}
	return obj.ID
}

func (g *fakeGateway) create(props domain.Properties, parentID string, base domain.BaseType) string {
	g.nextID++
	return g.add(parentID, &domain.RepositoryObject{
		ID:       fmt.Sprintf("workspace://SpacesStore/node-%d", g.nextID),
		Name:     props[domain.PropName],
		TypeID:   props[domain.PropObjectTypeID],
		BaseType: base,
	})
}

func (g *fakeGateway) check() error {
	if g.lost {
		return domain.ErrRepositoryUnavailable
	}
	return nil
}

func (g *fakeGateway) Query(_ context.Context, statement string, _ bool) ([]domain.QueryRow, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check(); err != nil {
		return nil, err
	}
	switch {
	case strings.Contains(statement, "IN_FOLDER('site-demo')"):
		return []domain.QueryRow{{domain.PropObjectID: "doclib-demo"}}, nil
	case strings.Contains(statement, "/st:sites/cm:demo"):
		return []domain.QueryRow{{domain.PropObjectID: "site-demo"}}, nil
	}
	return nil, nil
}

func (g *fakeGateway) GetObject(_ context.Context, id string) (*domain.RepositoryObject, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check(); err != nil {
		return nil, err
	}
	obj, ok := g.objects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *obj
	return &cp, nil
}

func (g *fakeGateway) GetChildren(_ context.Context, folderID string) ([]domain.RepositoryObject, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.check(); err != nil {
		return nil, err
	}
	var out []domain.RepositoryObject
	for _, id := range g.children[folderID] {
		out = append(out, *g.objects[id])
	}
	return out, nil
}

func (g *fakeGateway) GetTypeDefinition(_ context.Context, typeID string) (*domain.TypeDefinition, error) {
	bases := map[string]domain.BaseType{
		"cmis:folder":   domain.BaseFolder,
		"cmis:document": domain.BaseDocument,
		"cmis:item":     domain.BaseItem,
	}
	base, ok := bases[typeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.TypeDefinition{ID: typeID, QueryName: typeID, BaseType: base}, nil
}

func (g *fakeGateway) CreateFolder(_ context.Context, props domain.Properties, parentID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.create(props, parentID, domain.BaseFolder), nil
}

func (g *fakeGateway) CreateDocument(
	_ context.Context,
	props domain.Properties,
	parentID string,
	_ *domain.ContentStream,
	_ domain.VersioningState,
) (*domain.RepositoryObject, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *g.objects[g.create(props, parentID, domain.BaseDocument)]
	return &cp, nil
}

func (g *fakeGateway) CreateItem(_ context.Context, props domain.Properties, parentID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.create(props, parentID, domain.BaseItem), nil
}

func (g *fakeGateway) CreateRelationship(_ context.Context, props domain.Properties) (domain.WriteOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.relationships = append(g.relationships, props)
	return domain.OutcomeApplied, nil
}

func (g *fakeGateway) UpdateProperties(
	ctx context.Context,
	id string,
	_ domain.Properties,
) (*domain.RepositoryObject, error) {
	return g.GetObject(ctx, id)
}

func (g *fakeGateway) SetContentStream(
	_ context.Context,
	_ string,
	_ *domain.ContentStream,
	_ bool,
) (domain.WriteOutcome, error) {
	return domain.OutcomeApplied, nil
}

// fakeFactory hands out the same gateway and counts connections.
type fakeFactory struct {
	gateway  *fakeGateway
	connects int
}

func (f *fakeFactory) Connect(_ context.Context, _ domain.AppSettings) (driven.RepositoryGateway, error) {
	f.connects++
	return f.gateway, nil
}

func newSessionServer(t *testing.T) (*Server, *fakeFactory) {
	t.Helper()
	factory := &fakeFactory{gateway: newFakeGateway()}
	sessions := services.NewSessionService(
		services.NewSettingsService(memory.NewConfigStore()),
		factory,
		nil,
		nil,
		func() driven.IdentityCache { return memory.NewIdentityCache() },
	)
	server, err := NewServer(&Ports{Session: sessions})
	require.NoError(t, err)
	return server, factory
}

func TestServer_ToolCallsShareIdentities(t *testing.T) {
	ctx := context.Background()
	server, factory := newSessionServer(t)
	g := factory.gateway

	_, folder, err := server.handleImportItem(ctx, nil, ImportItemInput{Name: "Reports", Type: "cmis:folder", Site: "demo"})
	require.NoError(t, err)
	require.Equal(t, "created", folder.Action)

	_, target, err := server.handleImportItem(ctx, nil, ImportItemInput{Name: "ref", Type: "cmis:item", Site: "demo"})
	require.NoError(t, err)
	require.Equal(t, "created", target.Action)

	overwrite := true
	_, doc, err := server.handleImportItem(ctx, nil, ImportItemInput{
		Name:         "q1.txt",
		Type:         "cmis:document",
		Destination:  folder.ObjectID,
		Content:      "q1",
		Associations: map[string]string{"cm:references": target.ObjectID},
		Overwrite:    &overwrite,
	})

	require.NoError(t, err)
	assert.Equal(t, "created", doc.Action)
	assert.Empty(t, doc.Error)
	assert.Empty(t, doc.Warnings)
	assert.Contains(t, g.children[folder.ObjectID], doc.ObjectID)
	require.Len(t, g.relationships, 1)
	assert.Equal(t, target.ObjectID, g.relationships[0][domain.PropTargetID])

	// One session per overwrite mode, reused afterwards.
	_, _, err = server.handleImportItem(ctx, nil, ImportItemInput{Name: "notes", Type: "cmis:item", Destination: folder.ObjectID})
	require.NoError(t, err)
	assert.Equal(t, 2, factory.connects)
}

func TestServer_ReconnectsAfterLostSession(t *testing.T) {
	ctx := context.Background()
	server, factory := newSessionServer(t)
	g := factory.gateway

	_, folder, err := server.handleImportItem(ctx, nil, ImportItemInput{Name: "Reports", Type: "cmis:folder", Site: "demo"})
	require.NoError(t, err)
	require.Equal(t, 1, factory.connects)

	g.lost = true
	_, failed, err := server.handleImportItem(ctx, nil, ImportItemInput{Name: "a", Type: "cmis:item", Destination: folder.ObjectID})
	require.NoError(t, err)
	assert.Equal(t, "failed", failed.Action)

	g.lost = false
	_, res, err := server.handleImportItem(ctx, nil, ImportItemInput{Name: "a", Type: "cmis:item", Destination: folder.ObjectID})

	require.NoError(t, err)
	assert.Equal(t, "created", res.Action)
	assert.Equal(t, 2, factory.connects)
}
