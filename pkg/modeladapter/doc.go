// Package modeladapter translates provider-agnostic (prompt, context,
// options) calls into provider-specific wire payloads and normalizes the
// heterogeneous responses back into a single completion string.
//
// The adapter is stateless across calls: each Query issues exactly one
// HTTP POST to the configured endpoint, with no retries, streaming, or
// batching. Concurrent use from multiple goroutines is safe.
package modeladapter
