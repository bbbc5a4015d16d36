package reconcile

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, status func(method, path string) int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status(r.Method, r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}
