package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"shelfhub/pkg/entity"
	"shelfhub/pkg/store"
	"shelfhub/services/gateway/internal/graph"
)

func newTestServer(t *testing.T, mutate func(*Config)) *httptest.Server {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	cfg := Config{
		Libraries: entity.NewLibraryHandler(store.NewLibraryTable(db)),
		Books:     entity.NewBookHandler(store.NewBookTable(db)),
		Users:     entity.NewUserHandler(store.NewUserTable(db)),
	}
	schema, err := graph.NewSchema(cfg.Libraries, cfg.Books, cfg.Users)
	require.NoError(t, err)
	cfg.GraphQL = graph.NewHandler(schema)
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) (int, string, http.Header) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data), resp.Header
}

func TestLibraryCreateThenGet(t *testing.T) {
	ts := newTestServer(t, nil)

	status, body, _ := do(t, http.MethodPost, ts.URL+"/librarys", `{"id":1,"title":"A","description":"d"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"id":1,"title":"A","description":"d"}`, body)

	status, body, _ = do(t, http.MethodGet, ts.URL+"/librarys/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":1,"title":"A","description":"d"}`, body)

	status, body, _ = do(t, http.MethodGet, ts.URL+"/librarys", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"id":1,"title":"A","description":"d"}]`, body)
}

func TestCreateAcceptsStringID(t *testing.T) {
	ts := newTestServer(t, nil)

	status, body, _ := do(t, http.MethodPost, ts.URL+"/books", `{"id":"7","title":"T","description":"d"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"id":7,"title":"T","description":"d"}`, body)

	status, body, _ = do(t, http.MethodPost, ts.URL+"/books", `{"id":"seven","title":"T","description":"d"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "BOOK_INVALID_REQUEST")
}

func TestUpdateAndDelete(t *testing.T) {
	ts := newTestServer(t, nil)

	status, _, _ := do(t, http.MethodPost, ts.URL+"/books", `{"id":4,"title":"t","description":"d"}`)
	require.Equal(t, http.StatusOK, status)

	status, body, _ := do(t, http.MethodPut, ts.URL+"/books/4", `{"id":999,"title":"t2","description":"d2"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"id":4,"title":"t2","description":"d2"}`, body)

	status, body, _ = do(t, http.MethodDelete, ts.URL+"/books/4", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, body)

	status, body, headers := do(t, http.MethodGet, ts.URL+"/books/4", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Book not found.", body)
	assert.True(t, strings.HasPrefix(headers.Get("Content-Type"), "text/plain"))
}

func TestDeleteMissingIsNoContent(t *testing.T) {
	ts := newTestServer(t, nil)
	status, _, _ := do(t, http.MethodDelete, ts.URL+"/books/99", "")
	assert.Equal(t, http.StatusNoContent, status)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	status, body, _ := do(t, http.MethodPut, ts.URL+"/librarys/7", `{"title":"x","description":"y"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Library not found.", body)

	status, body, _ = do(t, http.MethodGet, ts.URL+"/librarys", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, body)
}

func TestUserUpdate(t *testing.T) {
	ts := newTestServer(t, nil)

	status, _, _ := do(t, http.MethodPost, ts.URL+"/users", `{"id":2,"username":"bob","password":"x","email":"b@x.com"}`)
	require.Equal(t, http.StatusOK, status)

	status, body, _ := do(t, http.MethodPut, ts.URL+"/users/2", `{"username":"bob","password":"y","email":"bob@x.com"}`)
	require.Equal(t, http.StatusOK, status, body)

	status, body, _ = do(t, http.MethodGet, ts.URL+"/users/2", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":2,"username":"bob","password":"y","email":"bob@x.com"}`, body)
}

func TestErrorEnvelope(t *testing.T) {
	ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/librarys", strings.NewReader(`{"title":"no id"}`))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, errorResponse{Error: "id required", Code: "LIBRARY_INVALID_REQUEST", RequestID: "req-1"}, envelope)

	status, body, _ := do(t, http.MethodGet, ts.URL+"/librarys/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "invalid id")

	status, body, _ = do(t, http.MethodPost, ts.URL+"/books", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "BOOK_INVALID_REQUEST")

	status, _, _ = do(t, http.MethodPatch, ts.URL+"/books/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, status)

	status, _, _ = do(t, http.MethodGet, ts.URL+"/books/1/extra", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDuplicateCreateIsStableBackendError(t *testing.T) {
	ts := newTestServer(t, nil)

	status, _, _ := do(t, http.MethodPost, ts.URL+"/books", `{"id":1,"title":"t","description":"d"}`)
	require.Equal(t, http.StatusOK, status)
	status, body, _ := do(t, http.MethodPost, ts.URL+"/books", `{"id":1,"title":"other","description":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, status)

	var envelope errorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &envelope))
	assert.Equal(t, "book already exists", envelope.Error)
	assert.Equal(t, "BOOK_ALREADY_EXISTS", envelope.Code)
	assert.NotEmpty(t, envelope.RequestID)

	status, body, _ = do(t, http.MethodGet, ts.URL+"/books/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":1,"title":"t","description":"d"}`, body)
}

func TestGraphQLRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	post := func(path, query string) (int, string) {
		payload, _ := json.Marshal(map[string]string{"query": query})
		resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(data)
	}

	status, body := post("/", `mutation { CreateUser(id: "2", username: "bob", password: "x", email: "b@x.com") { id username } }`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"data":{"CreateUser":{"id":"2","username":"bob"}}}`, body)

	status, body = post("/graphql", `{ user(id: "2") { email } }`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"data":{"user":{"email":"b@x.com"}}}`, body)

	status, body, _ = do(t, http.MethodGet, ts.URL+"/users/2", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":2,"username":"bob","password":"x","email":"b@x.com"}`, body)

	status, _, _ = do(t, http.MethodGet, ts.URL+"/nowhere", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)

	status, body, headers := do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.NotEmpty(t, headers.Get("X-Request-Id"))

	do(t, http.MethodGet, ts.URL+"/librarys/42", "")
	status, body, _ = do(t, http.MethodGet, ts.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `shelfhub_requests_total{entity="library",op="get",protocol="rest",result="not_found"}`)
}

func TestNewRequiresServices(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
