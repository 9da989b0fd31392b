package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/codebase-assistant/internal/config"
	"github.com/bull/codebase-assistant/internal/ingest"
	"github.com/bull/codebase-assistant/internal/storage"
)

type fakeIngestor struct {
	chunks []ingest.Chunk
	err    error
}

func (f *fakeIngestor) Ingest(root string) ([]ingest.Chunk, error) {
	return f.chunks, f.err
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, storage.VectorDimension)
	}
	return out, nil
}

type fakeStore struct {
	replaced  []string
	upserted  map[string][]*storage.Chunk
	deleted   []string
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserted: make(map[string][]*storage.Chunk)}
}

func (f *fakeStore) ReplaceCollection(ctx context.Context, repo string) error {
	f.replaced = append(f.replaced, repo)
	return nil
}

func (f *fakeStore) UpsertChunks(ctx context.Context, repo string, chunks []*storage.Chunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted[repo] = append(f.upserted[repo], chunks...)
	return nil
}

func (f *fakeStore) DeleteCollection(ctx context.Context, repo string) error {
	f.deleted = append(f.deleted, repo)
	return nil
}

func testRepo() config.Repository {
	return config.Repository{Name: "ccp-vap", Root: "/data/ccp-vap"}
}

func testChunks() []ingest.Chunk {
	return []ingest.Chunk{
		{Text: "chunk one", Source: "/data/ccp-vap/A.java"},
		{Text: "chunk two", Source: "/data/ccp-vap/B.java"},
	}
}

func TestBuildStoresAllChunks(t *testing.T) {
	store := newFakeStore()
	pipeline := NewPipeline(&fakeIngestor{chunks: testChunks()}, &fakeEmbedder{}, store, nil)

	result, err := pipeline.Build(context.Background(), testRepo())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Chunks)
	assert.Equal(t, []string{"ccp-vap"}, store.replaced)
	require.Len(t, store.upserted["ccp-vap"], 2)

	stored := store.upserted["ccp-vap"]
	assert.Equal(t, "chunk one", stored[0].Content)
	assert.Equal(t, "/data/ccp-vap/A.java", stored[0].Source)
	assert.Equal(t, "ccp-vap", stored[0].Repository)
	assert.Equal(t, 0, stored[0].ChunkIndex)
	assert.Equal(t, 1, stored[1].ChunkIndex)
	assert.NotEmpty(t, stored[0].ID)
}

func TestBuildEmbeddingFailureWritesNothing(t *testing.T) {
	store := newFakeStore()
	embedder := &fakeEmbedder{err: errors.New("embedding capability down")}
	pipeline := NewPipeline(&fakeIngestor{chunks: testChunks()}, embedder, store, nil)

	_, err := pipeline.Build(context.Background(), testRepo())
	require.Error(t, err)

	// Embedding happens before any write: the store must be untouched.
	assert.Empty(t, store.replaced)
	assert.Empty(t, store.upserted)
}

func TestBuildUpsertFailureDropsCollection(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = errors.New("qdrant write failed")
	pipeline := NewPipeline(&fakeIngestor{chunks: testChunks()}, &fakeEmbedder{}, store, nil)

	_, err := pipeline.Build(context.Background(), testRepo())
	require.Error(t, err)
	assert.Equal(t, []string{"ccp-vap"}, store.deleted, "incomplete collection must be dropped")
}

func TestBuildEmptyRepositoryFails(t *testing.T) {
	pipeline := NewPipeline(&fakeIngestor{}, &fakeEmbedder{}, newFakeStore(), nil)
	_, err := pipeline.Build(context.Background(), testRepo())
	require.Error(t, err)
}

func TestBuildIngestFailurePropagates(t *testing.T) {
	ing := &fakeIngestor{err: errors.New("root missing")}
	embedder := &fakeEmbedder{}
	pipeline := NewPipeline(ing, embedder, newFakeStore(), nil)

	_, err := pipeline.Build(context.Background(), testRepo())
	require.Error(t, err)
	assert.Zero(t, embedder.calls)
}
