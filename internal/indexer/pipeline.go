// Package indexer builds the per-repository vector indexes.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bull/codebase-assistant/internal/config"
	"github.com/bull/codebase-assistant/internal/ingest"
	"github.com/bull/codebase-assistant/internal/storage"
)

// Ingestor produces the chunk sequence for a repository root.
type Ingestor interface {
	Ingest(root string) ([]ingest.Chunk, error)
}

// Embedder converts chunk texts to vectors.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the write side of the vector index.
type Store interface {
	ReplaceCollection(ctx context.Context, repository string) error
	UpsertChunks(ctx context.Context, repository string, chunks []*storage.Chunk) error
	DeleteCollection(ctx context.Context, repository string) error
}

// BuildResult contains statistics about one index build.
type BuildResult struct {
	Repository string
	Chunks     int
	Duration   time.Duration
}

// Pipeline orchestrates the offline build: scan, chunk, embed, persist.
// Builds are single-threaded batch jobs; concurrent builds of the same
// repository must be serialized by the caller.
type Pipeline struct {
	ingestor Ingestor
	embedder Embedder
	store    Store
	logger   *slog.Logger
}

// NewPipeline creates a build pipeline with the given components.
func NewPipeline(ingestor Ingestor, embedder Embedder, store Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		ingestor: ingestor,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Build rebuilds the vector index for one repository. The build is
// all-or-nothing: every chunk is embedded before the first write, and a
// failed upsert drops the collection so no partial index is ever loadable.
// A successful build overwrites any prior index for the repository.
func (p *Pipeline) Build(ctx context.Context, repo config.Repository) (*BuildResult, error) {
	start := time.Now()
	p.logger.Info("starting index build", "repository", repo.Name, "root", repo.Root)

	chunks, err := p.ingestor.Ingest(repo.Root)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", repo.Name, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("ingest %s: no documents found under %s", repo.Name, repo.Root)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", repo.Name, err)
	}

	if err := p.store.ReplaceCollection(ctx, repo.Name); err != nil {
		return nil, fmt.Errorf("replace collection %s: %w", repo.Name, err)
	}

	storageChunks := make([]*storage.Chunk, len(chunks))
	for i, chunk := range chunks {
		storageChunks[i] = &storage.Chunk{
			ID:         uuid.New().String(),
			Content:    chunk.Text,
			Source:     chunk.Source,
			Repository: repo.Name,
			ChunkIndex: i,
			Embedding:  embeddings[i],
		}
	}

	if err := p.store.UpsertChunks(ctx, repo.Name, storageChunks); err != nil {
		// Drop the half-written collection; an index is complete or absent.
		if delErr := p.store.DeleteCollection(ctx, repo.Name); delErr != nil {
			p.logger.Error("failed to drop incomplete collection", "repository", repo.Name, "error", delErr)
		}
		return nil, fmt.Errorf("store chunks %s: %w", repo.Name, err)
	}

	result := &BuildResult{
		Repository: repo.Name,
		Chunks:     len(chunks),
		Duration:   time.Since(start),
	}
	p.logger.Info("index build complete",
		"repository", repo.Name,
		"chunks", result.Chunks,
		"duration", result.Duration,
	)
	return result, nil
}
