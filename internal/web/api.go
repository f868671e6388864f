package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/roasbeef/propsum/internal/summary"
)

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error string `json:"error"`

	// Details is only populated in development mode.
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string        `json:"status"`
	Cache  string        `json:"cache"`
	Stats  summary.Stats `json:"stats"`
}

// registerAPIRoutes registers the JSON API routes.
func (s *Server) registerAPIRoutes() {
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return cors(jsonContent(h))
	}

	s.mux.HandleFunc("/api/summary/{id}", api(s.handleSummary))
	s.mux.HandleFunc("/api/health", api(s.handleHealth))
	s.mux.HandleFunc("/api/", api(s.handleAPINotFound))
}

// handleSummary handles GET /api/summary/{id}.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error: "Method not allowed",
		})
		return
	}

	env, err := s.service.GetSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, summary.AsError(err))
		return
	}

	s.writeJSON(w, http.StatusOK, env)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error: "Method not allowed",
		})
		return
	}

	resp := HealthResponse{
		Status: "ok",
		Cache:  "ok",
		Stats:  s.service.Stats(),
	}

	if s.health != nil {
		ctx, cancel := context.WithTimeout(
			r.Context(), s.cfg.HealthTimeout,
		)
		defer cancel()

		if err := s.health.Ping(ctx); err != nil {
			s.log.WarnContext(r.Context(), "Health check: cache "+
				"unreachable", "error", err)

			// The service still answers without a cache.
			resp.Status = "degraded"
			resp.Cache = "unavailable"
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
}

// writeError writes a classified failure.
func (s *Server) writeError(w http.ResponseWriter, err *summary.Error) {
	resp := ErrorResponse{Error: err.Msg}
	if s.cfg.Development && err.Kind == summary.KindUnhandled {
		resp.Details = err.Details()
	}

	s.writeJSON(w, err.Kind.HTTPStatus(), resp)
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Error encoding JSON response", "error", err)
	}
}
