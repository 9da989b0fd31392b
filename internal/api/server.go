package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bull/codebase-assistant/internal/agent"
	"github.com/bull/codebase-assistant/internal/clients"
	"github.com/bull/codebase-assistant/internal/knowledge"
)

const (
	readHeaderTimeout = 10 * time.Second
	// Retrieval plus generation can take a while on large answers.
	writeTimeout    = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server wires the HTTP surface to its collaborators.
type Server struct {
	orchestrator *agent.Orchestrator
	assistant    *knowledge.Assistant
	graph        *clients.GraphClient
	execution    *clients.ExecutionClient
	analytics    *clients.AnalyticsClient
	database     *clients.DatabaseClient
	health       HealthChecker
	logger       *slog.Logger
}

// Config holds server dependencies.
type Config struct {
	Orchestrator *agent.Orchestrator
	Assistant    *knowledge.Assistant
	Graph        *clients.GraphClient
	Execution    *clients.ExecutionClient
	Analytics    *clients.AnalyticsClient
	Database     *clients.DatabaseClient
	Health       HealthChecker
	Logger       *slog.Logger
}

func NewServer(cfg *Config) *Server {
	return &Server{
		orchestrator: cfg.Orchestrator,
		assistant:    cfg.Assistant,
		graph:        cfg.Graph,
		execution:    cfg.Execution,
		analytics:    cfg.Analytics,
		database:     cfg.Database,
		health:       cfg.Health,
		logger:       cfg.Logger,
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /codebase-query", s.handleCodebaseQuery)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /external/getGraphEntity", s.handleGraphEntity)
	mux.HandleFunc("POST /external/getLinkStatus", s.handleLinkStatus)
	mux.HandleFunc("POST /external/getExecutionDetails", s.handleExecutionDetails)
	mux.HandleFunc("POST /external/getClientSetupStatus", s.handleClientSetupStatus)
	mux.HandleFunc("POST /external/getJobRunDetails", s.handleJobRunDetails)
	mux.HandleFunc("POST /external/executeDBQuery", s.handleDBQuery)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return withLogging(s.logger, withRecovery(s.logger, mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
