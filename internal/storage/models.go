package storage

import "strings"

// Chunk is an embedded piece of a source file stored in a repository's
// collection. Never mutated after insertion.
type Chunk struct {
	ID         string    // UUID
	Content    string    // Chunk text
	Source     string    // Absolute path of the originating file
	Repository string    // Repository name the chunk belongs to
	ChunkIndex int       // Position in the ingestion sequence
	Embedding  []float32 // 1536-dim vector
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536

// collectionPrefix namespaces this system's collections in a shared Qdrant
// instance.
const collectionPrefix = "codebase_"

// CollectionName returns the Qdrant collection holding a repository's
// chunks. One collection per repository; rebuilding replaces it wholesale.
func CollectionName(repository string) string {
	return collectionPrefix + strings.ToLower(repository)
}
