package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
	"github.com/custodia-labs/cmisimport/internal/core/ports/driven"
	"github.com/custodia-labs/cmisimport/internal/logger"
)

// Ensure Gateway implements the interface.
var _ driven.RepositoryGateway = (*Gateway)(nil)

const (
	// DefaultPageSize is the maxItems sent with paged reads.
	DefaultPageSize = 100

	// DefaultRetryInterval is the first backoff interval for retried reads.
	DefaultRetryInterval = 250 * time.Millisecond
)

// Options tunes a Gateway.
type Options struct {
	// Gateway holds rate, retry and timeout settings.
	Gateway domain.GatewaySettings

	// SecondaryTypes sends aspects as cmis:secondaryObjectTypeIds.
	SecondaryTypes bool

	// PageSize overrides DefaultPageSize.
	PageSize int

	// RetryInterval overrides DefaultRetryInterval.
	RetryInterval time.Duration

	// HTTPClient replaces the default client. Bearer tokens are still applied.
	HTTPClient *http.Client
}

// RepositoryInfo describes the repository a gateway is bound to.
type RepositoryInfo struct {
	RepositoryID   string `json:"repositoryId"`
	RepositoryName string `json:"repositoryName"`
	RepositoryURL  string `json:"repositoryUrl"`
	RootFolderURL  string `json:"rootFolderUrl"`
	RootFolderID   string `json:"rootFolderId"`
	ProductName    string `json:"productName"`
	ProductVersion string `json:"productVersion"`
}

// Gateway is a CMIS browser binding client.
type Gateway struct {
	conn           domain.ConnectionSettings
	client         *http.Client
	limiter        *RateLimiter
	maxRetries     int
	retryInterval  time.Duration
	pageSize       int
	secondaryTypes bool

	infoMu sync.Mutex
	info   *RepositoryInfo
}

// New creates a gateway for conn. No request is made until first use.
func New(conn domain.ConnectionSettings, opts Options) *Gateway {
	settings := opts.Gateway
	if settings == (domain.GatewaySettings{}) {
		settings = domain.DefaultAppSettings().Gateway
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: settings.Timeout}
	}
	if conn.UsesToken() {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: conn.Token})
		tc := oauth2.NewClient(ctx, ts)
		tc.Timeout = client.Timeout
		client = tc
	}

	g := &Gateway{
		conn:           conn,
		client:         client,
		limiter:        NewRateLimiter(settings.RequestsPerSecond, settings.Burst),
		maxRetries:     settings.MaxRetries,
		retryInterval:  opts.RetryInterval,
		pageSize:       opts.PageSize,
		secondaryTypes: opts.SecondaryTypes,
	}
	if g.retryInterval <= 0 {
		g.retryInterval = DefaultRetryInterval
	}
	if g.pageSize <= 0 {
		g.pageSize = DefaultPageSize
	}
	return g
}

// Repository returns the repository info, fetching it on first use.
func (g *Gateway) Repository(ctx context.Context) (*RepositoryInfo, error) {
	g.infoMu.Lock()
	defer g.infoMu.Unlock()

	if g.info != nil {
		return g.info, nil
	}

	var infos map[string]RepositoryInfo
	if err := g.getJSON(ctx, g.conn.URL(), url.Values{}, &infos); err != nil {
		if errors.Is(err, domain.ErrRepositoryUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRepositoryUnavailable, err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: no repositories at %s", domain.ErrRepositoryUnavailable, g.conn.URL())
	}

	key := g.conn.RepositoryID
	if key == "" {
		ids := make([]string, 0, len(infos))
		for id := range infos {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		key = ids[0]
	}
	info, ok := infos[key]
	if !ok {
		return nil, fmt.Errorf("%w: repository %q not found", domain.ErrRepositoryUnavailable, key)
	}
	if info.RepositoryID == "" {
		info.RepositoryID = key
	}
	if info.RepositoryURL == "" {
		info.RepositoryURL = strings.TrimRight(g.conn.URL(), "/") + "/" + url.PathEscape(key)
	}
	if info.RootFolderURL == "" {
		info.RootFolderURL = info.RepositoryURL + "/root"
	}

	logger.Debug("cmis: bound to repository %s (%s %s)", info.RepositoryID, info.ProductName, info.ProductVersion)
	g.info = &info
	return g.info, nil
}

// Query runs a CMIS QL statement, following pages until exhausted.
func (g *Gateway) Query(ctx context.Context, statement string, allVersions bool) ([]domain.QueryRow, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return nil, err
	}

	var rows []domain.QueryRow
	for skip := 0; ; {
		params := url.Values{}
		params.Set("cmisselector", "query")
		params.Set("q", statement)
		params.Set("searchAllVersions", fmt.Sprint(allVersions))
		params.Set(fieldSuccinct, "true")
		params.Set("maxItems", fmt.Sprint(g.pageSize))
		params.Set("skipCount", fmt.Sprint(skip))

		var page queryResultList
		if err := g.getJSON(ctx, info.RepositoryURL, params, &page); err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		for _, r := range page.Results {
			rows = append(rows, r.toRow())
		}
		if !page.HasMoreItems || len(page.Results) == 0 {
			break
		}
		skip += len(page.Results)
	}

	logger.Debug("cmis: query returned %d rows: %s", len(rows), statement)
	return rows, nil
}

// GetObject fetches an object by id.
func (g *Gateway) GetObject(ctx context.Context, id string) (*domain.RepositoryObject, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("cmisselector", "object")
	params.Set(fieldObjectID, id)
	params.Set(fieldSuccinct, "true")

	var data objectData
	if err := g.getJSON(ctx, info.RootFolderURL, params, &data); err != nil {
		return nil, fmt.Errorf("get object %s: %w", id, err)
	}
	return data.toObject()
}

// GetChildren lists a folder's direct children, following pages.
func (g *Gateway) GetChildren(ctx context.Context, folderID string) ([]domain.RepositoryObject, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return nil, err
	}

	var children []domain.RepositoryObject
	for skip := 0; ; {
		params := url.Values{}
		params.Set("cmisselector", "children")
		params.Set(fieldObjectID, folderID)
		params.Set(fieldSuccinct, "true")
		params.Set("maxItems", fmt.Sprint(g.pageSize))
		params.Set("skipCount", fmt.Sprint(skip))

		var page childrenList
		if err := g.getJSON(ctx, info.RootFolderURL, params, &page); err != nil {
			return nil, fmt.Errorf("get children %s: %w", folderID, err)
		}
		for _, entry := range page.Objects {
			obj, err := entry.Object.toObject()
			if err != nil {
				return nil, err
			}
			children = append(children, *obj)
		}
		if !page.HasMoreItems || len(page.Objects) == 0 {
			break
		}
		skip += len(page.Objects)
	}
	return children, nil
}

// GetTypeDefinition fetches a type definition.
func (g *Gateway) GetTypeDefinition(ctx context.Context, typeID string) (*domain.TypeDefinition, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("cmisselector", "typeDefinition")
	params.Set("typeId", typeID)

	var def typeDefinition
	if err := g.getJSON(ctx, info.RepositoryURL, params, &def); err != nil {
		return nil, fmt.Errorf("get type %s: %w", typeID, err)
	}
	return def.toDomain(), nil
}

// CreateFolder creates a folder under parentID.
func (g *Gateway) CreateFolder(ctx context.Context, props domain.Properties, parentID string) (string, error) {
	obj, err := g.create(ctx, actionCreateFolder, props, parentID)
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	return obj.ID, nil
}

// CreateItem creates a content-less item under parentID.
func (g *Gateway) CreateItem(ctx context.Context, props domain.Properties, parentID string) (string, error) {
	obj, err := g.create(ctx, actionCreateItem, props, parentID)
	if err != nil {
		return "", fmt.Errorf("create item: %w", err)
	}
	return obj.ID, nil
}

// CreateDocument uploads a document under parentID.
func (g *Gateway) CreateDocument(
	ctx context.Context,
	props domain.Properties,
	parentID string,
	stream *domain.ContentStream,
	versioning domain.VersioningState,
) (*domain.RepositoryObject, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return nil, err
	}

	form := newForm(actionCreateDocument)
	form.Set(fieldObjectID, parentID)
	if versioning != "" {
		form.Set(fieldVersioning, string(versioning))
	}
	encodeProperties(form, props, g.secondaryTypes)

	var data objectData
	if err := g.post(ctx, info.RootFolderURL, form, stream, &data); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return data.toObject()
}

// CreateRelationship creates a relationship. A repository that reports a
// constraint or duplicate is answered with OutcomeAlreadyExists.
func (g *Gateway) CreateRelationship(ctx context.Context, props domain.Properties) (domain.WriteOutcome, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return domain.OutcomeApplied, err
	}

	form := newForm(actionCreateRelationship)
	encodeProperties(form, props, false)

	err = g.post(ctx, info.RepositoryURL, form, nil, nil)
	switch {
	case err == nil:
		return domain.OutcomeApplied, nil
	case isConflict(err):
		return domain.OutcomeAlreadyExists, nil
	default:
		return domain.OutcomeApplied, fmt.Errorf("create relationship: %w", err)
	}
}

// UpdateProperties updates an object's properties.
func (g *Gateway) UpdateProperties(
	ctx context.Context,
	id string,
	props domain.Properties,
) (*domain.RepositoryObject, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return nil, err
	}

	form := newForm(actionUpdateProperties)
	form.Set(fieldObjectID, id)
	encodeProperties(form, props, g.secondaryTypes)

	var data objectData
	if err := g.post(ctx, info.RootFolderURL, form, nil, &data); err != nil {
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	if obj, err := data.toObject(); err == nil {
		return obj, nil
	}
	return g.GetObject(ctx, id)
}

// SetContentStream replaces a document's content.
func (g *Gateway) SetContentStream(
	ctx context.Context,
	id string,
	stream *domain.ContentStream,
	overwrite bool,
) (domain.WriteOutcome, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return domain.OutcomeApplied, err
	}

	form := newForm(actionSetContent)
	form.Set(fieldObjectID, id)
	form.Set(fieldOverwriteFlag, fmt.Sprint(overwrite))

	err = g.post(ctx, info.RootFolderURL, form, stream, nil)
	switch {
	case err == nil:
		return domain.OutcomeApplied, nil
	case isUnsupported(err):
		return domain.OutcomeUnsupported, nil
	default:
		return domain.OutcomeApplied, fmt.Errorf("set content %s: %w", id, err)
	}
}

// create posts a create action that answers with the new object.
func (g *Gateway) create(
	ctx context.Context,
	action string,
	props domain.Properties,
	parentID string,
) (*domain.RepositoryObject, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return nil, err
	}

	form := newForm(action)
	form.Set(fieldObjectID, parentID)
	encodeProperties(form, props, g.secondaryTypes)

	var data objectData
	if err := g.post(ctx, info.RootFolderURL, form, nil, &data); err != nil {
		return nil, err
	}
	return data.toObject()
}

// getJSON performs an idempotent GET, retrying transient failures.
func (g *Gateway) getJSON(ctx context.Context, base string, params url.Values, out any) error {
	target := base
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.retryInterval
	bo.MaxElapsedTime = 0

	var policy backoff.BackOff = backoff.WithMaxRetries(bo, uint64(max(g.maxRetries, 0)))
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		err = g.do(req, out)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		if err != nil {
			logger.Debug("cmis: retrying GET %s: %v", params.Get("cmisselector"), err)
		}
		return err
	}, backoff.WithContext(policy, ctx))
	return unavailable(err)
}

// post sends a form action, as multipart when stream is set. Writes are
// never retried.
func (g *Gateway) post(ctx context.Context, target string, form url.Values, stream *domain.ContentStream, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if stream != nil {
		buf, ct, err := multipartBody(form, stream)
		if err != nil {
			return err
		}
		body, contentType = buf, ct
	} else {
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return unavailable(g.do(req, out))
}

// do sends req after pacing and decodes a JSON response into out.
func (g *Gateway) do(req *http.Request, out any) error {
	if err := g.limiter.Wait(req.Context()); err != nil {
		return err
	}
	if !g.conn.UsesToken() && g.conn.User != "" {
		req.SetBasicAuth(g.conn.User, g.conn.Password)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		e := readError(resp)
		if e.Status == http.StatusTooManyRequests {
			g.limiter.Pause(time.Duration(e.RetryAfter) * time.Second)
		}
		return e
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryable returns true for transport failures and temporary statuses.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// unavailable marks transport failures as a lost session.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrRepositoryUnavailable) {
		return err
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", domain.ErrRepositoryUnavailable, err)
	}
	return err
}
