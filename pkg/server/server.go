// Package server provides the REST surface over the context store and the
// model adapter, plus the assembly of the MCP tool surface.
package server

import (
	"log/slog"
	"net/http"

	"github.com/evinhua/model-context-protocol-server/pkg/contextstore"
	"github.com/evinhua/model-context-protocol-server/pkg/modeladapter"
)

// Server wires the context store and model adapter behind the REST API.
type Server struct {
	store   *contextstore.Store
	adapter *modeladapter.Adapter
	apiKey  string
	log     *slog.Logger
}

// New creates a Server. An empty apiKey disables request authentication; a
// nil logger falls back to slog.Default().
func New(store *contextstore.Store, adapter *modeladapter.Adapter, apiKey string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		store:   store,
		adapter: adapter,
		apiKey:  apiKey,
		log:     log,
	}
}

// Handler returns the root http.Handler with routing and middleware applied.
// The health endpoint stays outside the API key check.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /api/context", s.createContext)
	api.HandleFunc("GET /api/context", s.listContexts)
	api.HandleFunc("GET /api/context/{id}", s.getContext)
	api.HandleFunc("PUT /api/context/{id}", s.updateContext)
	api.HandleFunc("DELETE /api/context/{id}", s.deleteContext)

	api.HandleFunc("POST /api/model/query", s.queryModel)
	api.HandleFunc("POST /api/context/{id}/process", s.processContext)
	api.HandleFunc("POST /api/context/{id}/summarize", s.summarizeContext)
	api.HandleFunc("POST /api/context/merge", s.mergeContexts)

	root := http.NewServeMux()
	root.HandleFunc("GET /health", s.health)
	root.Handle("/api/", s.requireAPIKey(api))

	return s.withLogging(root)
}
