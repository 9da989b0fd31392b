package retriever

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/codebase-assistant/internal/storage"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return make([]float32, storage.VectorDimension), nil
}

type stubStore struct {
	collections map[string]bool
	results     map[string][]*storage.ScoredChunk
	searchErr   error
}

func (s *stubStore) CollectionExists(ctx context.Context, repo string) (bool, error) {
	return s.collections[repo], nil
}

func (s *stubStore) SearchChunks(ctx context.Context, repo string, embedding []float32, limit int) ([]*storage.ScoredChunk, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	results := s.results[repo]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func scoredChunks(repo string, scores ...float64) []*storage.ScoredChunk {
	out := make([]*storage.ScoredChunk, len(scores))
	for i, score := range scores {
		out[i] = &storage.ScoredChunk{
			Chunk: &storage.Chunk{
				Content:    fmt.Sprintf("%s chunk %d", repo, i),
				Source:     fmt.Sprintf("/src/%s/File%d.java", repo, i),
				Repository: repo,
			},
			Score: score,
		}
	}
	return out
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRetriever(store *stubStore, embedder Embedder) *Retriever {
	r := New(embedder, store, "ccp-vap", "ccp-execute", discard())
	r.LoadSources(context.Background())
	return r
}

func TestSearchReturnsScoredResults(t *testing.T) {
	store := &stubStore{
		collections: map[string]bool{"ccp-vap": true, "ccp-execute": true},
		results:     map[string][]*storage.ScoredChunk{"ccp-vap": scoredChunks("ccp-vap", 0.9, 0.7, 0.4)},
	}
	r := newTestRetriever(store, &stubEmbedder{})

	results := r.Search(context.Background(), "ccp-vap", "controller", 2)
	require.Len(t, results, 2)
	assert.Equal(t, 0.9, results[0].Score)
	assert.Equal(t, 0.7, results[1].Score)
}

func TestSearchAbsentIndexReturnsEmpty(t *testing.T) {
	store := &stubStore{
		collections: map[string]bool{"ccp-execute": true},
		results:     map[string][]*storage.ScoredChunk{"ccp-vap": scoredChunks("ccp-vap", 0.9)},
	}
	r := newTestRetriever(store, &stubEmbedder{})

	assert.Empty(t, r.Search(context.Background(), "ccp-vap", "query", 5))
}

func TestSearchSwallowsErrors(t *testing.T) {
	store := &stubStore{collections: map[string]bool{"ccp-vap": true, "ccp-execute": true}}

	store.searchErr = errors.New("qdrant down")
	r := newTestRetriever(store, &stubEmbedder{})
	assert.Empty(t, r.Search(context.Background(), "ccp-vap", "query", 5))

	store.searchErr = nil
	r = newTestRetriever(store, &stubEmbedder{err: errors.New("embedding down")})
	assert.Empty(t, r.Search(context.Background(), "ccp-vap", "query", 5))
}

func TestSearchBothSplitsAndOrders(t *testing.T) {
	store := &stubStore{
		collections: map[string]bool{"ccp-vap": true, "ccp-execute": true},
		results: map[string][]*storage.ScoredChunk{
			"ccp-vap":     scoredChunks("ccp-vap", 0.9, 0.8, 0.7),
			"ccp-execute": scoredChunks("ccp-execute", 0.95, 0.6, 0.5),
		},
	}
	r := newTestRetriever(store, &stubEmbedder{})

	results := r.SearchBoth(context.Background(), "query", 5)

	// Odd k: k/2 from each side, one slot dropped.
	require.Len(t, results, 4)
	assert.Equal(t, "ccp-vap", results[0].Chunk.Repository)
	assert.Equal(t, "ccp-vap", results[1].Chunk.Repository)
	assert.Equal(t, "ccp-execute", results[2].Chunk.Repository)
	assert.Equal(t, "ccp-execute", results[3].Chunk.Repository)

	// Each half keeps its own descending-score order.
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.GreaterOrEqual(t, results[2].Score, results[3].Score)
}

func TestSearchBothOneSideAbsent(t *testing.T) {
	store := &stubStore{
		collections: map[string]bool{"ccp-execute": true},
		results:     map[string][]*storage.ScoredChunk{"ccp-execute": scoredChunks("ccp-execute", 0.8)},
	}
	r := newTestRetriever(store, &stubEmbedder{})

	results := r.SearchBoth(context.Background(), "query", 4)
	require.Len(t, results, 1)
	assert.Equal(t, "ccp-execute", results[0].Chunk.Repository)
}

func TestFormat(t *testing.T) {
	chunks := scoredChunks("ccp-vap", 0.9, 0.8)
	formatted := Format(chunks)

	assert.Contains(t, formatted, "--- Code Chunk 1 ---")
	assert.Contains(t, formatted, "--- Code Chunk 2 ---")
	assert.Contains(t, formatted, "Source: /src/ccp-vap/File0.java")
	assert.Contains(t, formatted, "Content:\nccp-vap chunk 0")

	// Ordinals are 1-based and in order.
	first := strings.Index(formatted, "Chunk 1")
	second := strings.Index(formatted, "Chunk 2")
	assert.Less(t, first, second)
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "", Format(nil))
}
