// Package contexts defines the context record shared by the store, the
// model adapter, and the serving layer.
package contexts

import "time"

// Context is a stored context record. Data is an arbitrary mapping from
// string keys to JSON-compatible values. The model adapter treats Data as
// opaque payload; it only ever checks whether it is empty.
type Context struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
