package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/evinhua/model-context-protocol-server/pkg/contexts"
	"github.com/evinhua/model-context-protocol-server/pkg/contextstore"
	"github.com/evinhua/model-context-protocol-server/pkg/modeladapter"
)

type errorResponse struct {
	Error string `json:"error"`
}

type contextRequest struct {
	Data map[string]any `json:"data"`
}

type queryRequest struct {
	Prompt  string               `json:"prompt"`
	Context map[string]any       `json:"context"`
	Options modeladapter.Options `json:"options"`
}

type processRequest struct {
	Task    string               `json:"task"`
	Options modeladapter.Options `json:"options"`
}

type summarizeRequest struct {
	Options modeladapter.Options `json:"options"`
}

type mergeRequest struct {
	IDs     []string             `json:"ids"`
	Options modeladapter.Options `json:"options"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	c, err := s.store.Create(req.Data)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getContext(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) listContexts(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"contexts": s.store.List()})
}

func (s *Server) updateContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	c, err := s.store.Update(r.PathValue("id"), req.Data)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteContext(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		s.writeFailure(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) queryModel(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	completion, err := s.adapter.Query(r.Context(), req.Prompt, req.Context, req.Options)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"completion": completion})
}

func (s *Server) processContext(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Task == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("task is required"))
		return
	}

	res, err := s.adapter.ProcessContext(r.Context(), c, req.Task, req.Options)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"result": res.Result,
		"data":   res,
	})
}

func (s *Server) summarizeContext(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	// The body is optional; it carries only provider options.
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	res, err := s.adapter.SummarizeContext(r.Context(), c, req.Options)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"data": res})
}

func (s *Server) mergeContexts(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if len(req.IDs) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("ids is required"))
		return
	}

	list := make([]contexts.Context, 0, len(req.IDs))
	for _, id := range req.IDs {
		c, err := s.store.Get(id)
		if err != nil {
			s.writeFailure(w, err)
			return
		}

		list = append(list, c)
	}

	res, err := s.adapter.MergeContexts(r.Context(), list, req.Options)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	if res.UsedModel {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"merged":    res.Merged,
				"sources":   res.Sources,
				"timestamp": res.Timestamp,
			},
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"data": res.Data})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeFailure maps domain errors to HTTP statuses: store misses to 404,
// adapter failures to 502, everything else to 500.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contextstore.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case isAdapterFailure(err):
		s.writeError(w, http.StatusBadGateway, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func isAdapterFailure(err error) bool {
	var (
		qe *modeladapter.QueryError
		pe *modeladapter.ProcessError
		me *modeladapter.MergeError
		se *modeladapter.SummarizeError
	)

	return errors.As(err, &qe) || errors.As(err, &pe) || errors.As(err, &me) || errors.As(err, &se)
}
