package contextstore_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/evinhua/model-context-protocol-server/pkg/contexts"
	"github.com/evinhua/model-context-protocol-server/pkg/contextstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsRegistered(t *testing.T) {
	s, err := contextstore.Open("")
	require.NoError(t, err)

	tb := s.Tools()

	for _, name := range []string{"context_create", "context_get", "context_update", "context_delete", "context_list"} {
		_, ok := tb.Get(name)
		assert.True(t, ok, name)
	}
}

func TestToolRoundTrip(t *testing.T) {
	s, err := contextstore.Open("")
	require.NoError(t, err)

	tb := s.Tools()
	ctx := context.Background()

	out, err := tb.Call(ctx, "context_create", json.RawMessage(`{"data":{"lang":"en"}}`))
	require.NoError(t, err)

	var created contexts.Context
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.NotEmpty(t, created.ID)

	out, err = tb.Call(ctx, "context_get", json.RawMessage(fmt.Sprintf(`{"id":%q}`, created.ID)))
	require.NoError(t, err)

	var got contexts.Context
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]any{"lang": "en"}, got.Data)

	_, err = tb.Call(ctx, "context_update", json.RawMessage(fmt.Sprintf(`{"id":%q,"data":{"lang":"fr"}}`, created.ID)))
	require.NoError(t, err)

	out, err = tb.Call(ctx, "context_list", json.RawMessage(`{}`))
	require.NoError(t, err)

	var list []contexts.Context
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, map[string]any{"lang": "fr"}, list[0].Data)

	out, err = tb.Call(ctx, "context_delete", json.RawMessage(fmt.Sprintf(`{"id":%q}`, created.ID)))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = tb.Call(ctx, "context_get", json.RawMessage(fmt.Sprintf(`{"id":%q}`, created.ID)))
	assert.ErrorIs(t, err, contextstore.ErrNotFound)
}

func TestToolInvalidInput(t *testing.T) {
	s, err := contextstore.Open("")
	require.NoError(t, err)

	_, err = s.Tools().Call(context.Background(), "context_get", json.RawMessage(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")
}
