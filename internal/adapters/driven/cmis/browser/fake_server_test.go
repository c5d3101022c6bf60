package browser

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cmisimport/internal/core/domain"
)

const servicePath = "/cmis"

// recordedPost is one form action received by the fake repository.
type recordedPost struct {
	Target      string
	Form        url.Values
	Content     []byte
	FileName    string
	ContentType string
}

// fakeRepository serves a minimal CMIS browser binding.
type fakeRepository struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	posts    []recordedPost
	auth     []string
	objects  map[string]map[string]any
	children map[string][]string
	rows     []map[string]any
	types    map[string]map[string]any

	// failures are served in order for a selector or action before normal handling.
	failures map[string][]failure
}

type failure struct {
	status    int
	exception string
	header    map[string]string
}

func newFakeRepository(t *testing.T) *fakeRepository {
	t.Helper()
	f := &fakeRepository{
		t:        t,
		hits:     make(map[string]int),
		objects:  make(map[string]map[string]any),
		children: make(map[string][]string),
		types:    make(map[string]map[string]any),
		failures: make(map[string][]failure),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRepository) conn() domain.ConnectionSettings {
	u, err := url.Parse(f.srv.URL)
	require.NoError(f.t, err)
	return domain.ConnectionSettings{
		Scheme:      domain.SchemeHTTP,
		Hostname:    u.Hostname(),
		Port:        u.Port(),
		User:        "admin",
		Password:    "secret",
		ServicePath: servicePath,
	}
}

func (f *fakeRepository) gateway(opts Options) *Gateway {
	if opts.Gateway == (domain.GatewaySettings{}) {
		opts.Gateway = domain.GatewaySettings{
			RequestsPerSecond: 1000,
			Burst:             100,
			MaxRetries:        0,
			Timeout:           5 * time.Second,
		}
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = time.Millisecond
	}
	return New(f.conn(), opts)
}

func (f *fakeRepository) addObject(id, name, typeID string, base domain.BaseType, parent string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = map[string]any{
		domain.PropObjectID:     id,
		domain.PropName:         name,
		domain.PropObjectTypeID: typeID,
		domain.PropBaseTypeID:   string(base),
	}
	if parent != "" {
		f.children[parent] = append(f.children[parent], id)
	}
}

func (f *fakeRepository) fail(key string, fl failure) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = append(f.failures[key], fl)
}

func (f *fakeRepository) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeRepository) recordedPosts() []recordedPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedPost(nil), f.posts...)
}

func (f *fakeRepository) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	if r.Method == http.MethodPost {
		f.servePost(w, r)
		return
	}

	selector := r.URL.Query().Get("cmisselector")
	key := selector
	if key == "" {
		key = "repositoryInfo"
	}
	if f.takeFailure(w, key) {
		return
	}

	switch {
	case r.URL.Path == servicePath && selector == "":
		base := f.srv.URL + servicePath + "/-default-"
		writeJSON(w, map[string]any{
			"-default-": map[string]any{
				"repositoryId":   "-default-",
				"repositoryName": "Main Repository",
				"repositoryUrl":  base,
				"rootFolderUrl":  base + "/root",
				"productName":    "Fake",
				"productVersion": "1.1",
			},
		})
	case selector == "query":
		f.serveQuery(w, r)
	case selector == "object":
		f.mu.Lock()
		props, ok := f.objects[r.URL.Query().Get("objectId")]
		f.mu.Unlock()
		if !ok {
			writeException(w, http.StatusNotFound, "objectNotFound")
			return
		}
		writeJSON(w, map[string]any{"succinctProperties": props})
	case selector == "children":
		f.serveChildren(w, r)
	case selector == "typeDefinition":
		f.mu.Lock()
		def, ok := f.types[r.URL.Query().Get("typeId")]
		f.mu.Unlock()
		if !ok {
			writeException(w, http.StatusNotFound, "objectNotFound")
			return
		}
		writeJSON(w, def)
	default:
		writeException(w, http.StatusBadRequest, "invalidArgument")
	}
}

func (f *fakeRepository) serveQuery(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	rows := f.rows
	f.mu.Unlock()

	start, end := pageBounds(r.URL.Query(), len(rows))
	results := make([]map[string]any, 0, end-start)
	for _, row := range rows[start:end] {
		results = append(results, map[string]any{"succinctProperties": row})
	}
	writeJSON(w, map[string]any{
		"results":      results,
		"hasMoreItems": end < len(rows),
		"numItems":     len(rows),
	})
}

func (f *fakeRepository) serveChildren(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	ids := f.children[r.URL.Query().Get("objectId")]
	start, end := pageBounds(r.URL.Query(), len(ids))
	objects := make([]map[string]any, 0, end-start)
	for _, id := range ids[start:end] {
		objects = append(objects, map[string]any{
			"object": map[string]any{"succinctProperties": f.objects[id]},
		})
	}
	f.mu.Unlock()

	writeJSON(w, map[string]any{
		"objects":      objects,
		"hasMoreItems": end < len(ids),
		"numItems":     len(ids),
	})
}

func (f *fakeRepository) servePost(w http.ResponseWriter, r *http.Request) {
	rec := recordedPost{Target: r.URL.Path}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.Form = url.Values(r.MultipartForm.Value)
		if file, header, err := r.FormFile("content"); err == nil {
			rec.Content, _ = io.ReadAll(file)
			rec.FileName = header.Filename
			rec.ContentType = header.Header.Get("Content-Type")
			_ = file.Close()
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.Form = r.PostForm
	}

	f.mu.Lock()
	f.posts = append(f.posts, rec)
	f.mu.Unlock()

	action := rec.Form.Get("cmisaction")
	if f.takeFailure(w, action) {
		return
	}

	props := formProperties(rec.Form)
	switch action {
	case actionCreateFolder, actionCreateDocument, actionCreateItem:
		id := "new-" + props[domain.PropName]
		base := domain.BaseFolder
		switch action {
		case actionCreateDocument:
			base = domain.BaseDocument
		case actionCreateItem:
			base = domain.BaseItem
		}
		f.addObject(id, props[domain.PropName], props[domain.PropObjectTypeID], base, rec.Form.Get("objectId"))
		f.mu.Lock()
		obj := f.objects[id]
		f.mu.Unlock()
		writeJSON(w, map[string]any{"succinctProperties": obj})
	case actionUpdateProperties:
		id := rec.Form.Get("objectId")
		f.mu.Lock()
		obj, ok := f.objects[id]
		if ok {
			for k, v := range props {
				obj[k] = v
			}
		}
		f.mu.Unlock()
		if !ok {
			writeException(w, http.StatusNotFound, "objectNotFound")
			return
		}
		writeJSON(w, map[string]any{"succinctProperties": obj})
	case actionCreateRelationship:
		writeJSON(w, map[string]any{"succinctProperties": map[string]any{domain.PropObjectID: "rel-1"}})
	case actionSetContent:
		w.WriteHeader(http.StatusCreated)
	default:
		writeException(w, http.StatusBadRequest, "invalidArgument")
	}
}

func (f *fakeRepository) takeFailure(w http.ResponseWriter, key string) bool {
	f.mu.Lock()
	f.hits[key]++
	queue := f.failures[key]
	if len(queue) == 0 {
		f.mu.Unlock()
		return false
	}
	fl := queue[0]
	f.failures[key] = queue[1:]
	f.mu.Unlock()

	for k, v := range fl.header {
		w.Header().Set(k, v)
	}
	writeException(w, fl.status, fl.exception)
	return true
}

// formProperties decodes single-valued propertyId[i]/propertyValue[i] pairs.
func formProperties(form url.Values) map[string]string {
	props := make(map[string]string)
	for i := 0; ; i++ {
		id := form.Get("propertyId[" + strconv.Itoa(i) + "]")
		if id == "" {
			return props
		}
		props[id] = form.Get("propertyValue[" + strconv.Itoa(i) + "]")
	}
}

func pageBounds(q url.Values, n int) (int, int) {
	skip, _ := strconv.Atoi(q.Get("skipCount"))
	limit, _ := strconv.Atoi(q.Get("maxItems"))
	if skip > n {
		skip = n
	}
	end := n
	if limit > 0 && skip+limit < n {
		end = skip + limit
	}
	return skip, end
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeException(w http.ResponseWriter, status int, exception string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"exception": exception,
		"message":   exception + " raised by fake repository",
	})
}
