package api

import (
	"net/http"

	"github.com/bull/codebase-assistant/internal/clients"
	"github.com/bull/codebase-assistant/internal/config"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// CodebaseQueryRequest is the body of POST /codebase-query. Codebase may
// name a single repository or "both".
type CodebaseQueryRequest struct {
	Query    string `json:"query"`
	Codebase string `json:"codebase"`
}

// QueryResponse carries a generated answer.
type QueryResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "AI Agent API is running!"})
}

// handleCodebaseQuery always answers 200. Generation failures arrive as
// text inside the response body.
func (s *Server) handleCodebaseQuery(w http.ResponseWriter, r *http.Request) {
	var req CodebaseQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	conv, err := s.orchestrator.Run(r.Context(), req.Query, req.Codebase)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Response: conv.Response()})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{Response: s.assistant.Answer(r.Context(), req.Prompt)})
}

// environment reads the target environment from the query string,
// defaulting to prod.
func environment(r *http.Request) config.Environment {
	return config.ParseEnvironment(r.URL.Query().Get("env"))
}

func (s *Server) handleGraphEntity(w http.ResponseWriter, r *http.Request) {
	var req clients.GraphEntityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.graph.GetGraphEntities(r.Context(), req, environment(r)))
}

func (s *Server) handleLinkStatus(w http.ResponseWriter, r *http.Request) {
	var req clients.LinkStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.graph.GetLinkStatus(r.Context(), req, environment(r)))
}

func (s *Server) handleExecutionDetails(w http.ResponseWriter, r *http.Request) {
	var req clients.ExecutionDetailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.execution.GetExecutionDetails(r.Context(), req, environment(r)))
}

func (s *Server) handleClientSetupStatus(w http.ResponseWriter, r *http.Request) {
	var req clients.ClientSetupStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Env == "" {
		req.Env = environment(r)
	}
	writeJSON(w, http.StatusOK, s.analytics.GetClientSetupStatus(r.Context(), req))
}

func (s *Server) handleJobRunDetails(w http.ResponseWriter, r *http.Request) {
	var req clients.JobRunDetailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Env == "" {
		req.Env = environment(r)
	}
	writeJSON(w, http.StatusOK, s.analytics.GetJobRunDetails(r.Context(), req))
}

func (s *Server) handleDBQuery(w http.ResponseWriter, r *http.Request) {
	var req clients.DatabaseQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Env == "" {
		req.Env = environment(r)
	}
	writeJSON(w, http.StatusOK, s.database.ExecuteQuery(r.Context(), req.Query, req.Env))
}
