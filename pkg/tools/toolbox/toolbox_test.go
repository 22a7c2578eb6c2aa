package toolbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/evinhua/model-context-protocol-server/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) toolbox.Tool {
	return toolbox.Tool{
		Name:        name,
		Description: "Echoes its input.",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			return string(input), nil
		},
	}
}

func TestRegisterAndGet(t *testing.T) {
	tb := toolbox.New()
	tb.Register(echoTool("a"), echoTool("b"))

	got, ok := tb.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)

	_, ok = tb.Get("missing")
	assert.False(t, ok)

	assert.Len(t, tb.Tools(), 2)
}

func TestRegisterReplaces(t *testing.T) {
	tb := toolbox.New()
	tb.Register(echoTool("a"))

	replacement := echoTool("a")
	replacement.Description = "replaced"
	tb.Register(replacement)

	got, ok := tb.Get("a")
	require.True(t, ok)
	assert.Equal(t, "replaced", got.Description)
	assert.Len(t, tb.Tools(), 1)
}

func TestMerge(t *testing.T) {
	a := toolbox.New()
	a.Register(echoTool("one"))

	b := toolbox.New()
	b.Register(echoTool("two"))

	a.Merge(b)
	assert.Len(t, a.Tools(), 2)
}

func TestCall(t *testing.T) {
	tb := toolbox.New()
	tb.Register(echoTool("echo"))

	out, err := tb.Call(context.Background(), "echo", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, out)

	_, err = tb.Call(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool not found")
}

func TestCallPropagatesHandlerError(t *testing.T) {
	tb := toolbox.New()
	tb.Register(toolbox.Tool{
		Name: "fail",
		Handler: func(context.Context, json.RawMessage) (string, error) {
			return "", errors.New("handler failed")
		},
	})

	_, err := tb.Call(context.Background(), "fail", nil)
	assert.EqualError(t, err, "handler failed")
}
