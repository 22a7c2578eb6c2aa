package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evinhua/model-context-protocol-server/pkg/contexts"
	"github.com/evinhua/model-context-protocol-server/pkg/contextstore"
	"github.com/evinhua/model-context-protocol-server/pkg/modeladapter"
	"github.com/evinhua/model-context-protocol-server/pkg/tools/toolbox"
)

// MCPToolBox assembles the full MCP tool surface: the store's CRUD tools
// plus the model-backed context operations.
func MCPToolBox(store *contextstore.Store, adapter *modeladapter.Adapter) *toolbox.ToolBox {
	tb := store.Tools()

	tb.Register(
		toolbox.Tool{
			Name:        "model_query",
			Description: "Send a prompt (with optional context and provider options) to the configured model and return the completion.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"prompt":{"type":"string"},"context":{"type":"object"},"options":{"type":"object"}},"required":["prompt"]}`),
			Handler:     queryTool(adapter),
		},
		toolbox.Tool{
			Name:        "context_process",
			Description: "Run a task against a stored context using the configured model.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"},"task":{"type":"string"},"options":{"type":"object"}},"required":["id","task"]}`),
			Handler:     processTool(store, adapter),
		},
		toolbox.Tool{
			Name:        "context_summarize",
			Description: "Summarize a stored context using the configured model.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"},"options":{"type":"object"}},"required":["id"]}`),
			Handler:     summarizeTool(store, adapter),
		},
		toolbox.Tool{
			Name:        "context_merge",
			Description: "Merge stored contexts structurally, or via the model when options.useModel is set.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"ids":{"type":"array","items":{"type":"string"}},"options":{"type":"object"}},"required":["ids"]}`),
			Handler:     mergeTool(store, adapter),
		},
	)

	return tb
}

func encodeResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	return string(b), nil
}

func queryTool(adapter *modeladapter.Adapter) toolbox.Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		var in queryRequest
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("invalid input: %w", err)
		}

		completion, err := adapter.Query(ctx, in.Prompt, in.Context, in.Options)
		if err != nil {
			return "", err
		}

		return encodeResult(map[string]string{"completion": completion})
	}
}

func processTool(store *contextstore.Store, adapter *modeladapter.Adapter) toolbox.Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		var in struct {
			ID      string               `json:"id"`
			Task    string               `json:"task"`
			Options modeladapter.Options `json:"options"`
		}
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("invalid input: %w", err)
		}

		c, err := store.Get(in.ID)
		if err != nil {
			return "", err
		}

		res, err := adapter.ProcessContext(ctx, c, in.Task, in.Options)
		if err != nil {
			return "", err
		}

		return encodeResult(res)
	}
}

func summarizeTool(store *contextstore.Store, adapter *modeladapter.Adapter) toolbox.Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		var in struct {
			ID      string               `json:"id"`
			Options modeladapter.Options `json:"options"`
		}
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("invalid input: %w", err)
		}

		c, err := store.Get(in.ID)
		if err != nil {
			return "", err
		}

		res, err := adapter.SummarizeContext(ctx, c, in.Options)
		if err != nil {
			return "", err
		}

		return encodeResult(res)
	}
}

func mergeTool(store *contextstore.Store, adapter *modeladapter.Adapter) toolbox.Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		var in struct {
			IDs     []string             `json:"ids"`
			Options modeladapter.Options `json:"options"`
		}
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("invalid input: %w", err)
		}

		list := make([]contexts.Context, 0, len(in.IDs))
		for _, id := range in.IDs {
			c, err := store.Get(id)
			if err != nil {
				return "", err
			}

			list = append(list, c)
		}

		res, err := adapter.MergeContexts(ctx, list, in.Options)
		if err != nil {
			return "", err
		}

		if res.UsedModel {
			return encodeResult(map[string]any{
				"merged":    res.Merged,
				"sources":   res.Sources,
				"timestamp": res.Timestamp,
			})
		}

		return encodeResult(map[string]any{"data": res.Data})
	}
}
