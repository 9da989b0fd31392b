package ingest

import "log/slog"

// Ingestor ties the walker and splitter together: scan a repository root,
// split every document, and emit the flat chunk sequence used by the index
// builder. Ingestion is deterministic for an unchanged tree.
type Ingestor struct {
	walker   *Walker
	splitter *Splitter
	logger   *slog.Logger
}

// NewIngestor creates an ingestor from a configured walker and splitter.
func NewIngestor(walker *Walker, splitter *Splitter, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		walker:   walker,
		splitter: splitter,
		logger:   logger,
	}
}

// Ingest scans root and returns all chunks in document order.
func (g *Ingestor) Ingest(root string) ([]Chunk, error) {
	docs, err := g.walker.Scan(root)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, g.splitter.SplitDocument(doc)...)
	}
	g.logger.Info("ingested repository", "root", root, "files", len(docs), "chunks", len(chunks))
	return chunks, nil
}
