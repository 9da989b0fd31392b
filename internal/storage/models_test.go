package storage

import (
	"context"
	"errors"
	"testing"
)

func TestCollectionName(t *testing.T) {
	cases := map[string]string{
		"ccp-vap":     "codebase_ccp-vap",
		"CCP-Execute": "codebase_ccp-execute",
	}
	for in, want := range cases {
		if got := CollectionName(in); got != want {
			t.Errorf("CollectionName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpsertChunksRejectsWrongDimension(t *testing.T) {
	// Dimension validation runs before any network call, so a zero-value
	// storage is enough to exercise it.
	s := &QdrantStorage{}
	err := s.UpsertChunks(context.Background(), "repo", []*Chunk{
		{ID: "x", Embedding: make([]float32, 3)},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearchChunksRejectsWrongDimension(t *testing.T) {
	s := &QdrantStorage{}
	_, err := s.SearchChunks(context.Background(), "repo", make([]float32, 8), 5)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestUpsertChunksEmptyIsNoop(t *testing.T) {
	s := &QdrantStorage{}
	if err := s.UpsertChunks(context.Background(), "repo", nil); err != nil {
		t.Errorf("empty upsert should be a no-op, got %v", err)
	}
}
