package modeladapter

import (
	"encoding/json"
	"fmt"
)

// extract normalizes a decoded response body into a completion string using
// the kind's fallback chain. The first non-empty string value wins; keys
// holding non-string values are skipped.
func extract(kind ProviderKind, body map[string]any) (string, error) {
	switch kind {
	case KindMistral:
		return firstString(body, "response", "completion", "output"), nil
	case KindOpenAI:
		return choiceMessageContent(body), nil
	case KindAnthropic:
		return stringField(body, "completion"), nil
	default:
		return genericExtract(body)
	}
}

// genericExtract tries every known completion shape in order, then falls
// back to the serialized full response body.
func genericExtract(body map[string]any) (string, error) {
	if s := firstString(body, "response", "completion"); s != "" {
		return s, nil
	}

	if s := choiceMessageContent(body); s != "" {
		return s, nil
	}

	if s := choiceText(body); s != "" {
		return s, nil
	}

	if s := stringField(body, "output"); s != "" {
		return s, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("serialize response: %w", err)
	}

	return string(raw), nil
}

// stringField returns body[key] when it is a string, otherwise "".
func stringField(body map[string]any, key string) string {
	s, _ := body[key].(string)
	return s
}

// firstString returns the first non-empty string value among keys.
func firstString(body map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(body, k); s != "" {
			return s
		}
	}

	return ""
}

// firstChoice returns choices[0] as a map, or nil.
func firstChoice(body map[string]any) map[string]any {
	choices, _ := body["choices"].([]any)
	if len(choices) == 0 {
		return nil
	}

	first, _ := choices[0].(map[string]any)

	return first
}

// choiceMessageContent returns choices[0].message.content.
func choiceMessageContent(body map[string]any) string {
	choice := firstChoice(body)
	if choice == nil {
		return ""
	}

	msg, _ := choice["message"].(map[string]any)

	return stringField(msg, "content")
}

// choiceText returns choices[0].text.
func choiceText(body map[string]any) string {
	choice := firstChoice(body)
	if choice == nil {
		return ""
	}

	return stringField(choice, "text")
}
