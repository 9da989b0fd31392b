// Package main provides the HTTP server entry point for the codebase
// assistant.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/codebase-assistant/internal/agent"
	"github.com/bull/codebase-assistant/internal/api"
	"github.com/bull/codebase-assistant/internal/clients"
	"github.com/bull/codebase-assistant/internal/config"
	"github.com/bull/codebase-assistant/internal/embedding"
	"github.com/bull/codebase-assistant/internal/httpcall"
	"github.com/bull/codebase-assistant/internal/knowledge"
	"github.com/bull/codebase-assistant/internal/retriever"
	"github.com/bull/codebase-assistant/internal/secrets"
	"github.com/bull/codebase-assistant/internal/storage"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := storage.NewQdrantStorage(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := embedding.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.EmbeddingModel)
	if err != nil {
		return err
	}
	embedder := embedding.NewEmbedder(client, cfg.OpenAI.BatchSize)
	model := agent.NewOpenAIModel(client.Client(), cfg.OpenAI.ChatModel)

	repoA := cfg.Repositories[0].Name
	repoB := cfg.Repositories[1].Name
	retr := retriever.New(embedder, store, repoA, repoB, logger)
	retr.LoadSources(ctx)

	orchestrator := agent.NewOrchestrator(retr, model, cfg.Retrieve.TopK, logger)

	loader := knowledge.NewLoader()
	if err := loader.Load(cfg.KnowledgeDir); err != nil {
		logger.Warn("knowledge base unavailable", "dir", cfg.KnowledgeDir, "error", err)
	}
	assistant := knowledge.NewAssistant(knowledge.NewRetriever(loader), model)

	provider := secrets.NewManagerProvider(ctx, cfg.External.AWSRegion, logger)
	exec := httpcall.NewExecutor(cfg.External.Timeout(), cfg.External.MaxRetries, cfg.External.RetryDelay(), logger)

	server := api.NewServer(&api.Config{
		Orchestrator: orchestrator,
		Assistant:    assistant,
		Graph:        clients.NewGraphClient(cfg.External.GraphURLs, exec),
		Execution:    clients.NewExecutionClient(cfg.External.ExecutionURLs, exec),
		Analytics:    clients.NewAnalyticsClient(cfg.External.AnalyticsURLs, cfg.External.AnalyticsSecret, provider, exec),
		Database:     clients.NewDatabaseClient(cfg.External.DatabaseSecrets, cfg.External.DatabaseNames, provider, logger),
		Health:       store,
		Logger:       logger,
	})

	return server.Run(ctx, cfg.Server.Addr)
}
