// Package main provides the index build CLI for the codebase assistant.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bull/codebase-assistant/internal/config"
	"github.com/bull/codebase-assistant/internal/embedding"
	"github.com/bull/codebase-assistant/internal/indexer"
	"github.com/bull/codebase-assistant/internal/ingest"
	"github.com/bull/codebase-assistant/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "assistant-sync",
	Short: "Codebase index build tool",
	Long:  "CLI tool for building per-repository vector indexes in Qdrant",
}

var syncCmd = &cobra.Command{
	Use:   "sync [repository]",
	Short: "Rebuild the vector index for one or all repositories",
	Long: `Scans the repository tree, chunks source files, embeds every chunk
and replaces the repository's collection in Qdrant. Builds are
all-or-nothing: a failed build leaves no partial index behind.

With no argument, all configured repositories are rebuilt in order.

Environment variables:
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY  API key for the embeddings proxy (required)
  OPENAI_BASE_URL Override for the embeddings proxy URL (optional)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(syncCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	repos := cfg.Repositories
	if len(args) == 1 {
		repo, ok := cfg.RepositoryByName(args[0])
		if !ok {
			return fmt.Errorf("unknown repository %q", args[0])
		}
		repos = []config.Repository{repo}
	}

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.Qdrant.Host, cfg.Qdrant.Port)
	store, err := storage.NewQdrantStorage(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		return fmt.Errorf("connect to Qdrant: %w", err)
	}
	defer store.Close()

	if err := store.Health(ctx); err != nil {
		return fmt.Errorf("Qdrant health check failed: %w", err)
	}
	fmt.Println("Qdrant healthy")

	client, err := embedding.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.OpenAI.BatchSize)

	splitter, err := ingest.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("configure splitter: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	for _, repo := range repos {
		fmt.Println()
		fmt.Printf("Building index for %s (%s)...\n", repo.Name, repo.Root)

		walker := ingest.NewWalker(repo.Extensions, cfg.Ingest.Excludes, logger)
		ingestor := ingest.NewIngestor(walker, splitter, logger)

		var bar *progressbar.ProgressBar
		embedder.Progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "embedding")
			}
			bar.Set(done)
		}

		pipeline := indexer.NewPipeline(ingestor, embedder, store, logger)
		result, err := pipeline.Build(ctx, repo)
		if err != nil {
			return fmt.Errorf("build %s: %w", repo.Name, err)
		}

		fmt.Printf("  Chunks: %d\n", result.Chunks)
		fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	}

	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}
