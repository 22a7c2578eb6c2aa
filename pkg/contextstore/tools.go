package contextstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evinhua/model-context-protocol-server/pkg/tools/toolbox"
)

// Tools returns a ToolBox exposing the store's CRUD operations:
// context_create, context_get, context_update, context_delete, and
// context_list. Results are JSON-encoded context records.
func (s *Store) Tools() *toolbox.ToolBox {
	tb := toolbox.New()

	tb.Register(
		toolbox.Tool{
			Name:        "context_create",
			Description: "Store a new context and return its record, including the generated id.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"data":{"type":"object"}},"required":["data"]}`),
			Handler:     s.handleCreate,
		},
		toolbox.Tool{
			Name:        "context_get",
			Description: "Get a stored context by id.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}`),
			Handler:     s.handleGet,
		},
		toolbox.Tool{
			Name:        "context_update",
			Description: "Replace the data of a stored context.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"},"data":{"type":"object"}},"required":["id","data"]}`),
			Handler:     s.handleUpdate,
		},
		toolbox.Tool{
			Name:        "context_delete",
			Description: "Delete a stored context by id.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}`),
			Handler:     s.handleDelete,
		},
		toolbox.Tool{
			Name:        "context_list",
			Description: "List all stored contexts.",
			InputSchema: json.RawMessage(`{"type":"object"}`),
			Handler:     s.handleList,
		},
	)

	return tb
}

type idInput struct {
	ID string `json:"id"`
}

type dataInput struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	return string(b), nil
}

func (s *Store) handleCreate(_ context.Context, input json.RawMessage) (string, error) {
	var in dataInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	c, err := s.Create(in.Data)
	if err != nil {
		return "", err
	}

	return encode(c)
}

func (s *Store) handleGet(_ context.Context, input json.RawMessage) (string, error) {
	var in idInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	c, err := s.Get(in.ID)
	if err != nil {
		return "", err
	}

	return encode(c)
}

func (s *Store) handleUpdate(_ context.Context, input json.RawMessage) (string, error) {
	var in dataInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	c, err := s.Update(in.ID, in.Data)
	if err != nil {
		return "", err
	}

	return encode(c)
}

func (s *Store) handleDelete(_ context.Context, input json.RawMessage) (string, error) {
	var in idInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	if err := s.Delete(in.ID); err != nil {
		return "", err
	}

	return "ok", nil
}

func (s *Store) handleList(_ context.Context, _ json.RawMessage) (string, error) {
	return encode(s.List())
}
