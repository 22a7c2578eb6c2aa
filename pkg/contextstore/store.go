// Package contextstore provides the JSON-file-backed context store keyed by
// opaque string identifiers. With an empty path the store is memory-only,
// which tests and the MCP stdio mode use.
package contextstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evinhua/model-context-protocol-server/pkg/contexts"
)

// ErrNotFound is returned when no context exists for the given ID.
var ErrNotFound = errors.New("context not found")

// Store is a thread-safe context store. With a non-empty path it loads the
// JSON file at Open and rewrites it atomically after every mutation.
type Store struct {
	mu       sync.RWMutex
	path     string
	contexts map[string]contexts.Context
	now      func() time.Time
}

// Open creates a Store backed by the JSON file at path. A missing file is
// treated as an empty store; the parent directory is created on first save.
// An empty path yields a memory-only store.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		contexts: make(map[string]contexts.Context),
		now:      time.Now,
	}

	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("contextstore: load %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &s.contexts); err != nil {
		return nil, fmt.Errorf("contextstore: parse %s: %w", path, err)
	}

	return s, nil
}

// Create stores data under a fresh identifier and returns the record.
func (s *Store) Create(data map[string]any) (contexts.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	c := contexts.Context{
		ID:        uuid.NewString(),
		Data:      cloneData(data),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.contexts[c.ID] = c

	if err := s.save(); err != nil {
		delete(s.contexts, c.ID)
		return contexts.Context{}, err
	}

	return c, nil
}

// Get returns the context for id, or ErrNotFound.
func (s *Store) Get(id string) (contexts.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contexts[id]
	if !ok {
		return contexts.Context{}, fmt.Errorf("contextstore: %q: %w", id, ErrNotFound)
	}

	c.Data = cloneData(c.Data)

	return c, nil
}

// Update replaces the data of an existing context wholesale and bumps its
// UpdatedAt timestamp.
func (s *Store) Update(id string, data map[string]any) (contexts.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.contexts[id]
	if !ok {
		return contexts.Context{}, fmt.Errorf("contextstore: %q: %w", id, ErrNotFound)
	}

	c := prev
	c.Data = cloneData(data)
	c.UpdatedAt = s.now().UTC()

	s.contexts[id] = c

	if err := s.save(); err != nil {
		s.contexts[id] = prev
		return contexts.Context{}, err
	}

	return c, nil
}

// Delete removes the context for id, or returns ErrNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.contexts[id]
	if !ok {
		return fmt.Errorf("contextstore: %q: %w", id, ErrNotFound)
	}

	delete(s.contexts, id)

	if err := s.save(); err != nil {
		s.contexts[id] = prev
		return err
	}

	return nil
}

// List returns all contexts ordered by creation time, then ID for stability.
func (s *Store) List() []contexts.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]contexts.Context, 0, len(s.contexts))
	for _, c := range s.contexts {
		c.Data = cloneData(c.Data)
		list = append(list, c)
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})

	return list
}

// cloneData shallow-copies a data map so callers cannot mutate stored state.
// Nil maps normalize to an empty map.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}

	return maps.Clone(data)
}

// save writes the whole store to disk via a temp file and rename. Must be
// called with mu held. No-op for memory-only stores.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	raw, err := json.MarshalIndent(s.contexts, "", "  ")
	if err != nil {
		return fmt.Errorf("contextstore: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("contextstore: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".contexts-*.json")
	if err != nil {
		return fmt.Errorf("contextstore: temp file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("contextstore: write: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("contextstore: close: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("contextstore: rename: %w", err)
	}

	return nil
}
