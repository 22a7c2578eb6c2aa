package modeladapter

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Built-in defaults applied before caller options. The generic kind injects
// no defaults at all.
const (
	defaultMaxTokens   = 500
	defaultTemperature = 0.7

	defaultMistralModel   = "mistral-12b"
	defaultOpenAIModel    = "gpt-3.5-turbo"
	defaultAnthropicModel = "claude-2"
)

// buildPayload constructs the provider-shaped request body for kind.
// Options are merged last and override computed fields by name, except the
// adapter-computed prompt composition field ("prompt" for mistral and
// anthropic, "messages" for openai), which always stays adapter-computed.
func buildPayload(kind ProviderKind, prompt string, contextData map[string]any, opts Options) (map[string]any, error) {
	switch kind {
	case KindMistral:
		return mistralPayload(prompt, contextData, opts)
	case KindOpenAI:
		return openAIPayload(prompt, contextData, opts)
	case KindAnthropic:
		return anthropicPayload(prompt, contextData, opts)
	default:
		return genericPayload(prompt, contextData, opts), nil
	}
}

func mistralPayload(prompt string, contextData map[string]any, opts Options) (map[string]any, error) {
	p := map[string]any{
		"prompt":      prompt,
		"model":       defaultMistralModel,
		"max_tokens":  defaultMaxTokens,
		"temperature": defaultTemperature,
	}

	// The context field is present only when there is context to send.
	if len(contextData) > 0 {
		serialized, err := serializeContext(contextData)
		if err != nil {
			return nil, err
		}

		p["context"] = serialized
	}

	applyOptions(p, opts, "prompt")

	return p, nil
}

func openAIPayload(prompt string, contextData map[string]any, opts Options) (map[string]any, error) {
	var messages []map[string]any

	// Non-empty context becomes a leading system message.
	if len(contextData) > 0 {
		serialized, err := serializeContext(contextData)
		if err != nil {
			return nil, err
		}

		messages = append(messages, map[string]any{"role": "system", "content": serialized})
	}

	messages = append(messages, map[string]any{"role": "user", "content": prompt})

	p := map[string]any{
		"model":       defaultOpenAIModel,
		"messages":    messages,
		"max_tokens":  defaultMaxTokens,
		"temperature": defaultTemperature,
	}

	applyOptions(p, opts, "messages")

	return p, nil
}

func anthropicPayload(prompt string, contextData map[string]any, opts Options) (map[string]any, error) {
	composed := "Human: " + prompt + "\n\nAssistant:"

	if len(contextData) > 0 {
		serialized, err := serializeContext(contextData)
		if err != nil {
			return nil, err
		}

		composed = serialized + "\n\n" + composed
	}

	p := map[string]any{
		"model":                defaultAnthropicModel,
		"prompt":               composed,
		"max_tokens_to_sample": defaultMaxTokens,
		"temperature":          defaultTemperature,
	}

	applyOptions(p, opts, "prompt")

	return p, nil
}

// genericPayload passes the context through unchanged, even when empty, and
// injects no defaults. Options may override anything, prompt included.
func genericPayload(prompt string, contextData map[string]any, opts Options) map[string]any {
	if contextData == nil {
		contextData = map[string]any{}
	}

	p := map[string]any{
		"prompt":  prompt,
		"context": contextData,
	}

	applyOptions(p, opts)

	return p
}

// applyOptions merges opts into payload by key, skipping protected field
// names. Collisions resolve in favor of the option value.
func applyOptions(payload map[string]any, opts Options, protected ...string) {
	for k, v := range opts {
		if slices.Contains(protected, k) {
			continue
		}

		payload[k] = v
	}
}

// serializeContext renders context data as a compact JSON string. A nil map
// serializes as an empty object.
func serializeContext(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("serialize context: %w", err)
	}

	return string(raw), nil
}
