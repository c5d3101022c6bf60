package browser

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

func TestGateway_Repository_BindsOnce(t *testing.T) {
	repo := newFakeRepository(t)
	g := repo.gateway(Options{})

	info, err := g.Repository(context.Background())
	require.NoError(t, err)
	_, err = g.Repository(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "-default-", info.RepositoryID)
	assert.Equal(t, repo.srv.URL+"/cmis/-default-/root", info.RootFolderURL)
	assert.Equal(t, 1, repo.hitCount("repositoryInfo"))
}

func TestGateway_Repository_UnknownID(t *testing.T) {
	repo := newFakeRepository(t)
	conn := repo.conn()
	conn.RepositoryID = "other"

	_, err := New(conn, Options{}).Repository(context.Background())

	assert.ErrorIs(t, err, domain.ErrRepositoryUnavailable)
}

func TestGateway_Repository_Unreachable(t *testing.T) {
	repo := newFakeRepository(t)
	g := repo.gateway(Options{})
	repo.srv.Close()

	_, err := g.Query(context.Background(), "SELECT * FROM cmis:folder", false)

	assert.ErrorIs(t, err, domain.ErrRepositoryUnavailable)
}

func TestGateway_Repository_AuthRejected(t *testing.T) {
	repo := newFakeRepository(t)
	repo.fail("repositoryInfo", failure{status: http.StatusUnauthorized, exception: "permissionDenied"})

	_, err := repo.gateway(Options{}).Repository(context.Background())

	assert.ErrorIs(t, err, domain.ErrRepositoryUnavailable)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestGateway_BasicAuth(t *testing.T) {
	repo := newFakeRepository(t)

	_, err := repo.gateway(Options{}).Repository(context.Background())
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	assert.Equal(t, []string{want}, repo.auth)
}

func TestGateway_BearerToken(t *testing.T) {
	repo := newFakeRepository(t)
	conn := repo.conn()
	conn.Token = "tok-123"

	_, err := New(conn, Options{}).Repository(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer tok-123"}, repo.auth)
}

func TestGateway_Query_FollowsPages(t *testing.T) {
	repo := newFakeRepository(t)
	repo.rows = []map[string]any{
		{"cmis:objectId": "a"},
		{"cmis:objectId": "b"},
		{"cmis:objectId": "c"},
	}
	g := repo.gateway(Options{PageSize: 2})

	rows, err := g.Query(context.Background(), "SELECT cmis:objectId FROM cmis:folder", false)

	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "c", rows[2].String("cmis:objectId"))
	assert.Equal(t, 2, repo.hitCount("query"))
}

func TestGateway_GetObject(t *testing.T) {
	repo := newFakeRepository(t)
	repo.addObject("f1", "Shared", "cmis:folder", domain.BaseFolder, "")
	g := repo.gateway(Options{})

	obj, err := g.GetObject(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "Shared", obj.Name)
	assert.True(t, obj.IsFolder())

	_, err = g.GetObject(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrRepositoryUnavailable)
}

func TestGateway_GetChildren_FollowsPages(t *testing.T) {
	repo := newFakeRepository(t)
	repo.addObject("root", "root", "cmis:folder", domain.BaseFolder, "")
	for _, id := range []string{"c1", "c2", "c3"} {
		repo.addObject(id, id+".txt", "cmis:document", domain.BaseDocument, "root")
	}
	g := repo.gateway(Options{PageSize: 2})

	children, err := g.GetChildren(context.Background(), "root")

	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "c3.txt", children[2].Name)
	assert.Equal(t, 2, repo.hitCount("children"))
}

func TestGateway_GetTypeDefinition(t *testing.T) {
	repo := newFakeRepository(t)
	repo.types["D:dl:task"] = map[string]any{
		"id":          "D:dl:task",
		"queryName":   "dl:task",
		"displayName": "Task",
		"baseId":      "cmis:item",
		"propertyDefinitions": map[string]any{
			"cmis:objectId": map[string]any{"id": "cmis:objectId", "queryName": "cmis:objectId"},
			"dl:taskStatus": map[string]any{"queryName": "dl:taskStatus", "displayName": "Status"},
		},
	}
	g := repo.gateway(Options{})

	def, err := g.GetTypeDefinition(context.Background(), "D:dl:task")
	require.NoError(t, err)
	assert.Equal(t, "Task", def.DisplayName)
	assert.Equal(t, domain.BaseItem, def.BaseType)
	assert.Equal(t, "dl:taskStatus", def.QueryNameOf("dl:taskStatus"))
	assert.Equal(t, "dl:taskStatus", def.PropertyDefinitions["dl:taskStatus"].ID)

	_, err = g.GetTypeDefinition(context.Background(), "D:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGateway_CreateFolder(t *testing.T) {
	repo := newFakeRepository(t)
	g := repo.gateway(Options{})

	id, err := g.CreateFolder(context.Background(), domain.Properties{
		domain.PropName:         "Reports",
		domain.PropObjectTypeID: "cmis:folder,P:cm:titled",
	}, "parent-1")

	require.NoError(t, err)
	assert.Equal(t, "new-Reports", id)

	posts := repo.recordedPosts()
	require.Len(t, posts, 1)
	assert.Equal(t, "createFolder", posts[0].Form.Get("cmisaction"))
	assert.Equal(t, "parent-1", posts[0].Form.Get("objectId"))
	assert.Equal(t, "cmis:folder,P:cm:titled", formProperties(posts[0].Form)[domain.PropObjectTypeID])
}

func TestGateway_CreateFolder_SecondaryTypes(t *testing.T) {
	repo := newFakeRepository(t)
	g := repo.gateway(Options{SecondaryTypes: true})

	_, err := g.CreateFolder(context.Background(), domain.Properties{
		domain.PropName:         "Reports",
		domain.PropObjectTypeID: "cmis:folder,P:cm:titled",
	}, "parent-1")
	require.NoError(t, err)

	form := repo.recordedPosts()[0].Form
	assert.Equal(t, "cmis:folder", formProperties(form)[domain.PropObjectTypeID])
	assert.Equal(t, domain.PropSecondaryObjectTypeIDs, form.Get("propertyId[2]"))
	assert.Equal(t, "P:cm:titled", form.Get("propertyValue[2][0]"))
}

func TestGateway_CreateDocument_Multipart(t *testing.T) {
	repo := newFakeRepository(t)
	g := repo.gateway(Options{})

	obj, err := g.CreateDocument(context.Background(),
		domain.Properties{domain.PropName: "note.txt", domain.PropObjectTypeID: "cmis:document"},
		"lib-1",
		&domain.ContentStream{FileName: "note.txt", MimeType: "text/plain", Length: 5, Data: []byte("hello")},
		domain.VersioningMajor,
	)

	require.NoError(t, err)
	assert.True(t, obj.IsDocument())

	post := repo.recordedPosts()[0]
	assert.Equal(t, "createDocument", post.Form.Get("cmisaction"))
	assert.Equal(t, "major", post.Form.Get("versioningState"))
	assert.Equal(t, "lib-1", post.Form.Get("objectId"))
	assert.Equal(t, []byte("hello"), post.Content)
	assert.Equal(t, "note.txt", post.FileName)
	assert.Equal(t, "text/plain", post.ContentType)
}

func TestGateway_CreateItem_Duplicate(t *testing.T) {
	repo := newFakeRepository(t)
	repo.fail(actionCreateItem, failure{status: http.StatusConflict, exception: "contentAlreadyExists"})
	g := repo.gateway(Options{})

	_, err := g.CreateItem(context.Background(), domain.Properties{domain.PropName: "r1"}, "lib-1")

	assert.ErrorIs(t, err, domain.ErrContentAlreadyExists)
}

func TestGateway_CreateRelationship(t *testing.T) {
	repo := newFakeRepository(t)
	g := repo.gateway(Options{})
	props := domain.Properties{
		domain.PropObjectTypeID: "R:cm:references",
		domain.PropSourceID:     "s",
		domain.PropTargetID:     "t",
	}

	outcome, err := g.CreateRelationship(context.Background(), props)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, outcome)

	repo.fail(actionCreateRelationship, failure{status: http.StatusConflict, exception: "constraint"})
	outcome, err = g.CreateRelationship(context.Background(), props)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyExists, outcome)

	repo.fail(actionCreateRelationship, failure{status: http.StatusForbidden, exception: "permissionDenied"})
	_, err = g.CreateRelationship(context.Background(), props)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
}

func TestGateway_UpdateProperties(t *testing.T) {
	repo := newFakeRepository(t)
	repo.addObject("d1", "note.txt", "cmis:document", domain.BaseDocument, "")
	g := repo.gateway(Options{})

	obj, err := g.UpdateProperties(context.Background(), "d1", domain.Properties{"cm:title": "Note"})

	require.NoError(t, err)
	assert.Equal(t, "Note", obj.Properties["cm:title"])
	assert.Equal(t, "update", repo.recordedPosts()[0].Form.Get("cmisaction"))
}

func TestGateway_SetContentStream(t *testing.T) {
	repo := newFakeRepository(t)
	g := repo.gateway(Options{})
	stream := &domain.ContentStream{FileName: "a.txt", MimeType: "text/plain", Length: 1, Data: []byte("x")}

	outcome, err := g.SetContentStream(context.Background(), "d1", stream, true)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, outcome)
	assert.Equal(t, "true", repo.recordedPosts()[0].Form.Get("overwriteFlag"))

	repo.fail(actionSetContent, failure{status: http.StatusConflict, exception: "streamNotSupported"})
	outcome, err = g.SetContentStream(context.Background(), "i1", stream, true)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnsupported, outcome)
}

func TestGateway_RetriesTransientReads(t *testing.T) {
	repo := newFakeRepository(t)
	repo.fail("query", failure{status: http.StatusServiceUnavailable})
	repo.fail("query", failure{status: http.StatusBadGateway})
	g := repo.gateway(Options{Gateway: domain.GatewaySettings{
		RequestsPerSecond: 1000, Burst: 100, MaxRetries: 3, Timeout: 5 * time.Second,
	}})

	_, err := g.Query(context.Background(), "SELECT * FROM cmis:document", false)

	require.NoError(t, err)
	assert.Equal(t, 3, repo.hitCount("query"))
}

func TestGateway_DoesNotRetryClientErrors(t *testing.T) {
	repo := newFakeRepository(t)
	repo.fail("query", failure{status: http.StatusBadRequest, exception: "invalidArgument"})
	g := repo.gateway(Options{Gateway: domain.GatewaySettings{
		RequestsPerSecond: 1000, Burst: 100, MaxRetries: 3, Timeout: 5 * time.Second,
	}})

	_, err := g.Query(context.Background(), "SELECT nonsense", false)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, repo.hitCount("query"))
}

func TestGateway_RateLimitedWritePausesLimiter(t *testing.T) {
	repo := newFakeRepository(t)
	repo.fail(actionCreateItem, failure{
		status: http.StatusTooManyRequests,
		header: map[string]string{"Retry-After": "60"},
	})
	g := repo.gateway(Options{})

	_, err := g.CreateItem(context.Background(), domain.Properties{domain.PropName: "r1"}, "lib-1")

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.True(t, g.limiter.Paused())
}

func TestSessionFactory_Connect(t *testing.T) {
	repo := newFakeRepository(t)
	factory := NewSessionFactory(Options{RetryInterval: time.Millisecond})
	settings := domain.DefaultAppSettings()
	settings.Connection = repo.conn()
	settings.Import.SecondaryTypes = true

	gw, err := factory.Connect(context.Background(), settings)
	require.NoError(t, err)
	require.IsType(t, &Gateway{}, gw)
	assert.True(t, gw.(*Gateway).secondaryTypes)

	settings.Connection.RepositoryID = "nope"
	_, err = factory.Connect(context.Background(), settings)
	assert.ErrorIs(t, err, domain.ErrRepositoryUnavailable)
}
