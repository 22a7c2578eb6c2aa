package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Options carries caller-supplied provider overrides (e.g. "model",
// "max_tokens", "temperature"). Entries are merged into the outbound payload
// last and win over adapter-computed defaults with the same name.
type Options map[string]any

// Auth holds authentication settings for the model endpoint.
type Auth struct {
	Key    string // API key value; empty disables the auth header.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// Adapter issues provider-shaped completion requests against a single
// configured endpoint. Configuration is fixed at construction; the adapter
// keeps no per-call state, so concurrent use is safe without locking.
type Adapter struct {
	Kind     ProviderKind
	Endpoint string       // Full URL of the completion endpoint.
	Auth     Auth         // Authentication settings.
	Client   *http.Client // HTTP client; falls back to a cached default.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// New creates an Adapter for the given provider kind and endpoint. A
// non-empty apiKey is sent as "Authorization: Bearer <key>".
func New(kind ProviderKind, endpoint, apiKey string) *Adapter {
	return &Adapter{
		Kind:     kind,
		Endpoint: endpoint,
		Auth:     Auth{Key: apiKey},
	}
}

// Query builds the provider payload for prompt, contextData, and opts, posts
// it to the configured endpoint, and extracts the normalized completion
// string. Exactly one outbound request is made; any failure is reported as a
// *QueryError carrying the underlying cause.
func (a *Adapter) Query(ctx context.Context, prompt string, contextData map[string]any, opts Options) (string, error) {
	payload, err := buildPayload(a.Kind, prompt, contextData, opts)
	if err != nil {
		return "", &QueryError{Cause: err}
	}

	body, err := a.postJSON(ctx, payload)
	if err != nil {
		return "", &QueryError{Cause: err}
	}

	completion, err := extract(a.Kind, body)
	if err != nil {
		return "", &QueryError{Cause: err}
	}

	return completion, nil
}

// httpClient returns the configured client or a cached default client with a
// 10-minute timeout.
func (a *Adapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return a.defaultClient
}

// postJSON sends payload to the endpoint as a JSON POST, checks for a 2xx
// status, and decodes the JSON response body. One attempt per call.
func (a *Adapter) postJSON(ctx context.Context, payload map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	// Apply auth.
	if a.Auth.Key != "" {
		header := a.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := a.Auth.Key
		if header == "Authorization" {
			scheme := a.Auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}

			value = scheme + " " + value
		} else if a.Auth.Scheme != "" {
			value = a.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	resp, err := a.httpClient().Do(req) //nolint:gosec // URL is built from trusted endpoint config, not user input.
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return body, nil
}
