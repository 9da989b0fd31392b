// Package retriever executes similarity search across the indexed
// repositories and formats results for model consumption.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/codebase-assistant/internal/storage"
)

// Embedder converts query text to a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the read side of the vector index.
type Store interface {
	CollectionExists(ctx context.Context, repository string) (bool, error)
	SearchChunks(ctx context.Context, repository string, embedding []float32, limit int) ([]*storage.ScoredChunk, error)
}

// Retriever answers similarity queries against one or both repositories.
// Retrieval is best-effort: every failure is logged and swallowed into an
// empty result, never propagated to the caller.
type Retriever struct {
	embedder Embedder
	store    Store
	repoA    string
	repoB    string
	loaded   map[string]bool
	logger   *slog.Logger
}

// New creates a retriever over the two configured repositories. Call
// LoadSources before serving queries.
func New(embedder Embedder, store Store, repoA, repoB string, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		repoA:    repoA,
		repoB:    repoB,
		loaded:   make(map[string]bool),
		logger:   logger,
	}
}

// LoadSources probes which repository indexes exist. An absent index is
// logged and remembered; queries against it return empty results rather
// than failing.
func (r *Retriever) LoadSources(ctx context.Context) {
	for _, repo := range []string{r.repoA, r.repoB} {
		exists, err := r.store.CollectionExists(ctx, repo)
		if err != nil {
			r.logger.Warn("failed to probe index, treating as absent", "repository", repo, "error", err)
			continue
		}
		if !exists {
			r.logger.Warn("index not found, run a sync first", "repository", repo)
			continue
		}
		r.loaded[repo] = true
		r.logger.Info("loaded repository index", "repository", repo)
	}
}

// Repositories returns the two source repository names, A first.
func (r *Retriever) Repositories() (string, string) {
	return r.repoA, r.repoB
}

// Search returns up to k chunks from one repository, ordered by descending
// similarity. Absent indexes and search or embedding errors all yield an
// empty result.
func (r *Retriever) Search(ctx context.Context, repository, query string, k int) []*storage.ScoredChunk {
	if !r.loaded[repository] {
		r.logger.Debug("search against absent index", "repository", repository)
		return nil
	}
	if k <= 0 {
		return nil
	}

	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed", "repository", repository, "error", err)
		return nil
	}

	results, err := r.store.SearchChunks(ctx, repository, embedding, k)
	if err != nil {
		r.logger.Warn("similarity search failed", "repository", repository, "error", err)
		return nil
	}
	return results
}

// SearchBoth splits k between the two repositories by integer division and
// returns repository-A results followed by repository-B results, each half
// in descending-score order. Odd k loses one slot; this rounding is the
// accepted policy, not an oversight.
func (r *Retriever) SearchBoth(ctx context.Context, query string, k int) []*storage.ScoredChunk {
	half := k / 2
	results := r.Search(ctx, r.repoA, query, half)
	return append(results, r.Search(ctx, r.repoB, query, half)...)
}

// Format delegates to the package-level Format.
func (r *Retriever) Format(chunks []*storage.ScoredChunk) string {
	return Format(chunks)
}

// Format renders retrieved chunks as a single text blob for the model:
// a 1-based ordinal, the source path, and the raw content per chunk,
// separated by a fixed delimiter line. Empty input formats to "".
func Format(chunks []*storage.ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, sc := range chunks {
		fmt.Fprintf(&sb, "\n--- Code Chunk %d ---\n", i+1)
		fmt.Fprintf(&sb, "Source: %s\n", sc.Chunk.Source)
		fmt.Fprintf(&sb, "Content:\n%s\n", sc.Chunk.Content)
	}
	return sb.String()
}
