package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evinhua/model-context-protocol-server/pkg/contextstore"
	"github.com/evinhua/model-context-protocol-server/pkg/modeladapter"
	"github.com/evinhua/model-context-protocol-server/pkg/server"
	"github.com/evinhua/model-context-protocol-server/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToolBox(t *testing.T, reply string) (*toolbox.ToolBox, *contextstore.Store) {
	t.Helper()

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"response": reply})
	}))
	t.Cleanup(model.Close)

	store, err := contextstore.Open("")
	require.NoError(t, err)

	adapter := modeladapter.New(modeladapter.KindGeneric, model.URL, "")

	return server.MCPToolBox(store, adapter), store
}

func TestMCPToolBoxSurface(t *testing.T) {
	tb, _ := newToolBox(t, "")

	names := []string{
		"context_create", "context_get", "context_update", "context_delete", "context_list",
		"model_query", "context_process", "context_summarize", "context_merge",
	}
	for _, name := range names {
		_, ok := tb.Get(name)
		assert.True(t, ok, name)
	}

	assert.Len(t, tb.Tools(), len(names))
}

func TestModelQueryTool(t *testing.T) {
	tb, _ := newToolBox(t, "Hello!")

	out, err := tb.Call(context.Background(), "model_query", json.RawMessage(`{"prompt":"Hi"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"completion":"Hello!"}`, out)
}

func TestContextProcessTool(t *testing.T) {
	tb, store := newToolBox(t, "done")

	c, err := store.Create(map[string]any{"text": "hello"})
	require.NoError(t, err)

	out, err := tb.Call(context.Background(), "context_process",
		json.RawMessage(fmt.Sprintf(`{"id":%q,"task":"Do the thing."}`, c.ID)))
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "done", res["result"])
	assert.Equal(t, "Do the thing.", res["task"])
}

func TestContextSummarizeToolUnknownID(t *testing.T) {
	tb, _ := newToolBox(t, "")

	_, err := tb.Call(context.Background(), "context_summarize", json.RawMessage(`{"id":"missing"}`))
	assert.ErrorIs(t, err, contextstore.ErrNotFound)
}

func TestContextMergeToolStructural(t *testing.T) {
	tb, store := newToolBox(t, "")

	a, err := store.Create(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	b, err := store.Create(map[string]any{"b": 3})
	require.NoError(t, err)

	out, err := tb.Call(context.Background(), "context_merge",
		json.RawMessage(fmt.Sprintf(`{"ids":[%q,%q]}`, a.ID, b.ID)))
	require.NoError(t, err)

	assert.JSONEq(t, `{"data":{"a":1,"b":3}}`, out)
}
