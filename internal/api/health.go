package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	VectorStore string `json:"vector_store"`
	Timestamp   string `json:"timestamp"`
}

// HealthChecker is implemented by the storage layer.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Timestamp: time.Now().UTC().Format(time.RFC3339)}

	if err := s.health.Health(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.VectorStore = "disconnected"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "healthy"
	resp.VectorStore = "connected"
	writeJSON(w, http.StatusOK, resp)
}
