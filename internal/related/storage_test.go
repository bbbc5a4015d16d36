package related

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OFFIS-RIT/inventory-sync/pkg/collection"
	"github.com/OFFIS-RIT/inventory-sync/pkg/inventory"
)

type storageRequest struct {
	At     time.Time
	Method string
	Path   string
	ID     string
	Query  url.Values
}

// fakeStorage serves both related-record collections from memory.
type fakeStorage struct {
	*httptest.Server

	mu       sync.Mutex
	records  map[string]map[string]json.RawMessage
	requests []storageRequest
	fail     func(storageRequest) int
	delay    func(storageRequest) time.Duration
}

var (
	collectionKeys = map[string]string{
		InstanceRelationships.Path:     InstanceRelationships.ResultsKey,
		PrecedingSucceedingTitles.Path: PrecedingSucceedingTitles.ResultsKey,
	}
	collectionFields = map[string][2]string{
		InstanceRelationships.Path:     {"superInstanceId", "subInstanceId"},
		PrecedingSucceedingTitles.Path: {"precedingInstanceId", "succeedingInstanceId"},
	}
	firstQueryValue = regexp.MustCompile(`==\(([^ )]+)`)
)

func newFakeStorage(t *testing.T) *fakeStorage {
	t.Helper()
	fs := &fakeStorage{records: map[string]map[string]json.RawMessage{
		InstanceRelationships.Path:     {},
		PrecedingSucceedingTitles.Path: {},
	}}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeStorage) okapi() collection.Context {
	return collection.Context{OkapiURL: fs.URL, Tenant: "diku", Token: "token"}
}

func (fs *fakeStorage) failWith(fn func(storageRequest) int) {
	fs.mu.Lock()
	fs.fail = fn
	fs.mu.Unlock()
}

func (fs *fakeStorage) delayWith(fn func(storageRequest) time.Duration) {
	fs.mu.Lock()
	fs.delay = fn
	fs.mu.Unlock()
}

func (fs *fakeStorage) seed(path, id string, record any) {
	raw, _ := json.Marshal(record)
	fs.mu.Lock()
	fs.records[path][id] = raw
	fs.mu.Unlock()
}

func (fs *fakeStorage) seedRelationship(r inventory.InstanceRelationship) {
	fs.seed(InstanceRelationships.Path, r.ID, r)
}

func (fs *fakeStorage) seedTitle(r inventory.PrecedingSucceedingTitle) {
	fs.seed(PrecedingSucceedingTitles.Path, r.ID, r)
}

func (fs *fakeStorage) Requests() []storageRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]storageRequest(nil), fs.requests...)
}

func (fs *fakeStorage) Writes() []storageRequest {
	var writes []storageRequest
	for _, r := range fs.Requests() {
		if r.Method != http.MethodGet {
			writes = append(writes, r)
		}
	}
	return writes
}

func (fs *fakeStorage) relationships() map[string]inventory.InstanceRelationship {
	return decodeAll[inventory.InstanceRelationship](fs, InstanceRelationships.Path)
}

func (fs *fakeStorage) titles() map[string]inventory.PrecedingSucceedingTitle {
	return decodeAll[inventory.PrecedingSucceedingTitle](fs, PrecedingSucceedingTitles.Path)
}

func decodeAll[T any](fs *fakeStorage, path string) map[string]T {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make(map[string]T, len(fs.records[path]))
	for id, raw := range fs.records[path] {
		var v T
		_ = json.Unmarshal(raw, &v)
		out[id] = v
	}
	return out
}

func (fs *fakeStorage) route(p string) (collectionPath, id string, ok bool) {
	for path := range collectionKeys {
		if p == path {
			return path, "", true
		}
		if strings.HasPrefix(p, path+"/") {
			return path, strings.TrimPrefix(p, path+"/"), true
		}
	}
	return "", "", false
}

func (fs *fakeStorage) serve(w http.ResponseWriter, r *http.Request) {
	path, id, ok := fs.route(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	req := storageRequest{At: time.Now(), Method: r.Method, Path: path, ID: id, Query: r.URL.Query()}
	body, _ := io.ReadAll(r.Body)

	fs.mu.Lock()
	fs.requests = append(fs.requests, req)
	fail, delay := fs.fail, fs.delay
	fs.mu.Unlock()

	if delay != nil {
		time.Sleep(delay(req))
	}
	if fail != nil {
		if status := fail(req); status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("injected failure"))
			return
		}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	records := fs.records[path]

	switch {
	case r.Method == http.MethodGet && id == "":
		fs.list(w, path, req.Query.Get("query"), req.Query.Get("limit"))
	case r.Method == http.MethodPost && id == "":
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &head); err != nil || head.ID == "" {
			http.Error(w, "id required", http.StatusUnprocessableEntity)
			return
		}
		records[head.ID] = body
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	case r.Method == http.MethodPut && id != "":
		if _, exists := records[id]; !exists {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		records[id] = body
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodDelete && id != "":
		if _, exists := records[id]; !exists {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		delete(records, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fs *fakeStorage) list(w http.ResponseWriter, path, query, limit string) {
	var instanceID string
	if m := firstQueryValue.FindStringSubmatch(query); m != nil {
		instanceID = m[1]
	}
	fields := collectionFields[path]

	matches := []json.RawMessage{}
	for _, raw := range fs.records[path] {
		var doc map[string]any
		_ = json.Unmarshal(raw, &doc)
		if doc[fields[0]] == instanceID || doc[fields[1]] == instanceID {
			matches = append(matches, raw)
		}
	}

	total := len(matches)
	if n, err := strconv.Atoi(limit); err == nil && n >= 0 && n < total {
		matches = matches[:n]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		collectionKeys[path]: matches,
		"totalRecords":       total,
	})
}
