package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evinhua/model-context-protocol-server/pkg/contextstore"
	"github.com/evinhua/model-context-protocol-server/pkg/modeladapter"
	"github.com/evinhua/model-context-protocol-server/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *contextstore.Store
	url   string
}

// newFixture starts a fake model backend and the REST server in front of an
// in-memory store. The backend replies with {"response": reply} unless a
// custom handler is given.
func newFixture(t *testing.T, reply string, backend http.HandlerFunc) *fixture {
	t.Helper()

	if backend == nil {
		backend = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"response": reply})
		}
	}

	model := httptest.NewServer(backend)
	t.Cleanup(model.Close)

	store, err := contextstore.Open("")
	require.NoError(t, err)

	adapter := modeladapter.New(modeladapter.KindGeneric, model.URL, "")

	srv := httptest.NewServer(server.New(store, adapter, "", nil).Handler())
	t.Cleanup(srv.Close)

	return &fixture{store: store, url: srv.URL}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, f.url+path, reader)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return resp, decoded
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "", nil)

	resp, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestContextCRUD(t *testing.T) {
	f := newFixture(t, "", nil)

	resp, created := f.do(t, http.MethodPost, "/api/context", map[string]any{
		"data": map[string]any{"lang": "en"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp, got := f.do(t, http.MethodGet, "/api/context/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"lang": "en"}, got["data"])

	resp, updated := f.do(t, http.MethodPut, "/api/context/"+id, map[string]any{
		"data": map[string]any{"lang": "fr"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"lang": "fr"}, updated["data"])

	resp, listed := f.do(t, http.MethodGet, "/api/context", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, listed["contexts"], 1)

	resp, _ = f.do(t, http.MethodDelete, "/api/context/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/api/context/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "not found")
}

func TestCreateContextBadBody(t *testing.T) {
	f := newFixture(t, "", nil)

	req, err := http.NewRequest(http.MethodPost, f.url+"/api/context", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryModel(t *testing.T) {
	f := newFixture(t, "Hello!", nil)

	resp, body := f.do(t, http.MethodPost, "/api/model/query", map[string]any{
		"prompt": "Hi",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello!", body["completion"])
}

func TestQueryModelBackendDown(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	resp, body := f.do(t, http.MethodPost, "/api/model/query", map[string]any{"prompt": "Hi"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["error"], "model query failed")
}

func TestProcessContext(t *testing.T) {
	f := newFixture(t, "processed text", nil)

	c, err := f.store.Create(map[string]any{"text": "hello"})
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, fmt.Sprintf("/api/context/%s/process", c.ID), map[string]any{
		"task": "Translate to French.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processed text", body["result"])

	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	assert.Equal(t, "Translate to French.", data["task"])
	assert.Equal(t, map[string]any{"text": "hello"}, data["original"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestProcessContextMissingTask(t *testing.T) {
	f := newFixture(t, "", nil)

	c, err := f.store.Create(nil)
	require.NoError(t, err)

	resp, _ := f.do(t, http.MethodPost, fmt.Sprintf("/api/context/%s/process", c.ID), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessContextUnknownID(t *testing.T) {
	f := newFixture(t, "", nil)

	resp, _ := f.do(t, http.MethodPost, "/api/context/missing/process", map[string]any{"task": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSummarizeContext(t *testing.T) {
	f := newFixture(t, "a summary", nil)

	c, err := f.store.Create(map[string]any{"topic": "go"})
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, fmt.Sprintf("/api/context/%s/summarize", c.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	assert.Equal(t, "a summary", data["summary"])
	assert.Equal(t, map[string]any{"topic": "go"}, data["original"])
}

func TestSummarizeContextBackendDown(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	})

	c, err := f.store.Create(nil)
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, fmt.Sprintf("/api/context/%s/summarize", c.ID), nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["error"], "context summarization failed")
	assert.Contains(t, body["error"], "backend down")
}

func TestMergeContextsStructural(t *testing.T) {
	f := newFixture(t, "", nil)

	a, err := f.store.Create(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	b, err := f.store.Create(map[string]any{"b": 3, "c": 4})
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/api/context/merge", map[string]any{
		"ids": []string{a.ID, b.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(3), "c": float64(4)}, body["data"])
}

func TestMergeContextsModelAssisted(t *testing.T) {
	f := newFixture(t, "merged text", nil)

	a, err := f.store.Create(map[string]any{"a": 1})
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/api/context/merge", map[string]any{
		"ids":     []string{a.ID},
		"options": map[string]any{"useModel": true},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, _ := body["data"].(map[string]any)
	require.NotNil(t, data)
	assert.Equal(t, "merged text", data["merged"])
	assert.Equal(t, []any{a.ID}, data["sources"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestMergeContextsValidation(t *testing.T) {
	f := newFixture(t, "", nil)

	resp, _ := f.do(t, http.MethodPost, "/api/context/merge", map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/context/merge", map[string]any{"ids": []string{"missing"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
