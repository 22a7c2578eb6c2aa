package modeladapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evinhua/model-context-protocol-server/pkg/contexts"
)

// summarizeTask is the fixed task label used by SummarizeContext.
const summarizeTask = "Summarize the following context."

// useModelOption selects the model-assisted merge mode. It is a mode
// selector, not a provider override, so it is stripped before the outbound
// call.
const useModelOption = "useModel"

// ProcessResult is the outcome of ProcessContext.
type ProcessResult struct {
	ContextID string         `json:"context_id,omitempty"`
	Task      string         `json:"task"`
	Original  map[string]any `json:"original"`
	Result    string         `json:"result"`
	Timestamp time.Time      `json:"timestamp"`
}

// MergeResult is the outcome of MergeContexts. Structural merges populate
// Data only; model-assisted merges populate Merged, Sources, and Timestamp.
type MergeResult struct {
	UsedModel bool           `json:"-"`
	Data      map[string]any `json:"data,omitempty"`
	Merged    string         `json:"merged,omitempty"`
	Sources   []string       `json:"sources,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// SummarizeResult is the outcome of SummarizeContext.
type SummarizeResult struct {
	ContextID string         `json:"context_id,omitempty"`
	Original  map[string]any `json:"original"`
	Summary   string         `json:"summary"`
	Timestamp time.Time      `json:"timestamp"`
}

// ProcessContext embeds the context data in a fixed "Task: ...\nContext:
// ..." prompt and queries the model with an empty structured context.
// Failures are reported as a *ProcessError wrapping the underlying query
// failure.
func (a *Adapter) ProcessContext(ctx context.Context, c contexts.Context, task string, opts Options) (ProcessResult, error) {
	completion, err := a.runTask(ctx, c, task, opts)
	if err != nil {
		return ProcessResult{}, &ProcessError{Task: task, Cause: err}
	}

	return ProcessResult{
		ContextID: c.ID,
		Task:      task,
		Original:  c.Data,
		Result:    completion,
		Timestamp: time.Now().UTC(),
	}, nil
}

// SummarizeContext asks the model to summarize the context data. Failures
// are reported as a *SummarizeError wrapping the underlying query failure.
func (a *Adapter) SummarizeContext(ctx context.Context, c contexts.Context, opts Options) (SummarizeResult, error) {
	completion, err := a.runTask(ctx, c, summarizeTask, opts)
	if err != nil {
		return SummarizeResult{}, &SummarizeError{Cause: err}
	}

	return SummarizeResult{
		ContextID: c.ID,
		Original:  c.Data,
		Summary:   completion,
		Timestamp: time.Now().UTC(),
	}, nil
}

// MergeContexts combines the given contexts. By default it performs a
// structural left-fold over the data objects, later keys overwriting earlier
// ones on collision (shallow: nested objects are replaced wholesale). When
// opts["useModel"] is truthy it instead embeds every context payload in a
// single model call and returns the completion together with the source IDs.
// Any underlying failure aborts the whole merge and is reported as a
// *MergeError.
func (a *Adapter) MergeContexts(ctx context.Context, list []contexts.Context, opts Options) (MergeResult, error) {
	if isTruthy(opts[useModelOption]) {
		return a.modelMerge(ctx, list, opts)
	}

	merged := make(map[string]any)
	for _, c := range list {
		for k, v := range c.Data {
			merged[k] = v
		}
	}

	return MergeResult{Data: merged}, nil
}

func (a *Adapter) modelMerge(ctx context.Context, list []contexts.Context, opts Options) (MergeResult, error) {
	payloads := make([]map[string]any, len(list))
	sources := make([]string, len(list))

	for i, c := range list {
		data := c.Data
		if data == nil {
			data = map[string]any{}
		}

		payloads[i] = data

		sources[i] = c.ID
		if sources[i] == "" {
			sources[i] = "unknown"
		}
	}

	raw, err := json.Marshal(payloads)
	if err != nil {
		return MergeResult{}, &MergeError{Cause: fmt.Errorf("serialize contexts: %w", err)}
	}

	prompt := "Merge the following contexts into a single coherent context:\n" + string(raw)

	completion, err := a.Query(ctx, prompt, nil, stripMode(opts))
	if err != nil {
		return MergeResult{}, &MergeError{Cause: err}
	}

	return MergeResult{
		UsedModel: true,
		Merged:    completion,
		Sources:   sources,
		Timestamp: time.Now().UTC(),
	}, nil
}

// runTask builds the fixed task prompt and queries the model. The context is
// embedded in the prompt text, not passed as structured context.
func (a *Adapter) runTask(ctx context.Context, c contexts.Context, task string, opts Options) (string, error) {
	serialized, err := serializeContext(c.Data)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Task: %s\nContext: %s", task, serialized)

	return a.Query(ctx, prompt, nil, opts)
}

// stripMode removes the useModel selector from opts before an outbound call.
func stripMode(opts Options) Options {
	if _, ok := opts[useModelOption]; !ok {
		return opts
	}

	out := make(Options, len(opts))
	for k, v := range opts {
		if k == useModelOption {
			continue
		}

		out[k] = v
	}

	return out
}

// isTruthy mirrors loose truthiness for option values decoded from JSON:
// nil, false, numeric zero, and the empty string are false.
func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
