package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foomo/contentgraph-site/search"
	"github.com/foomo/contentgraph-site/service"
	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTPServer(t *testing.T, svc *fakeService) *httptest.Server {
	t.Helper()
	overlay := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := httptest.NewServer(NewHTTPServer(nil, NewServer(svc), svc, HTTPServerConfig{Overlay: overlay}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(body) > 0 && body[0] == '{' {
		require.NoError(t, json.Unmarshal(body, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestHTTPServerHealth(t *testing.T) {
	srv := testHTTPServer(t, testService())
	status, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHTTPServerPage(t *testing.T) {
	srv := testHTTPServer(t, testService())

	status, body := get(t, srv, "/api/page?uri=/o-nama/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "O nama", body["page"].(map[string]any)["title"])

	status, _ = get(t, srv, "/api/page?uri=/nema/")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = get(t, srv, "/api/page")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "uri is required", body["error"])

	status, _ = get(t, srv, "/api/home")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTTPServerBackendError(t *testing.T) {
	svc := testService()
	svc.err = errors.New("connection refused")
	srv := testHTTPServer(t, svc)

	status, body := get(t, srv, "/api/page?uri=/o-nama/")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, body["error"], "connection refused")
}

func TestHTTPServerPages(t *testing.T) {
	srv := testHTTPServer(t, testService())

	status, body := get(t, srv, "/api/pages")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["pages"], 3)

	status, body = get(t, srv, "/api/pages/top?profile=all")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["pages"], 2)

	status, _ = get(t, srv, "/api/pages?profile=full")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHTTPServerBreadcrumbsAndMenu(t *testing.T) {
	srv := testHTTPServer(t, testService())

	status, body := get(t, srv, "/api/breadcrumbs?uri=/a/1/")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["breadcrumbs"], 1)

	status, body = get(t, srv, "/api/menu")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.DefaultMenuLocation, body["location"])
	assert.Len(t, body["items"], 1)

	status, _ = get(t, srv, "/api/menu?location=FOOTER")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTTPServerSearch(t *testing.T) {
	svc := testService()
	srv := testHTTPServer(t, svc)

	status, body := get(t, srv, "/api/search?q=prv&max=2")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["results"], 1)
	assert.Equal(t, vo.SearchRequest{Query: "prv", MaxResults: 2}, svc.searchReq)

	status, _ = get(t, srv, "/api/search?q=prv&max=many")
	assert.Equal(t, http.StatusBadRequest, status)

	svc.searchErr = search.ErrNotLoaded
	status, _ = get(t, srv, "/api/search?q=prv")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestHTTPServerOverlayMounted(t *testing.T) {
	srv := testHTTPServer(t, testService())
	status, _ := get(t, srv, "/overlay")
	assert.Equal(t, http.StatusTeapot, status)
}

func TestHTTPServerMCPEndpoint(t *testing.T) {
	srv := testHTTPServer(t, testService())

	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+DefaultEndpoint, strings.NewReader(initialize))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Content Graph Site MCP")
}
