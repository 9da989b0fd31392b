package ingest

import (
	"fmt"
	"strings"
)

// Chunk is a bounded-length piece of a Document. It carries the parent
// document's source path unchanged.
type Chunk struct {
	Text   string
	Source string
}

// Splitter cuts text into chunks of at most size characters with a fixed
// character overlap between neighbours. Cuts land on natural boundaries
// where possible: paragraph break, then line break, then word break, then a
// hard cut at the size limit.
type Splitter struct {
	size    int
	overlap int
}

// separators tried in order when looking for a cut point.
var separators = []string{"\n\n", "\n", " "}

// NewSplitter returns a splitter, rejecting configurations that cannot make
// forward progress (overlap must be strictly smaller than size).
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split cuts text into chunks. Every chunk is at most size characters, chunk
// start offsets are strictly increasing, and the concatenation of chunks
// covers the whole input. Splitting is deterministic.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + s.size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		cut := s.cutPoint(text, start, end)
		chunks = append(chunks, text[start:cut])

		next := cut - s.overlap
		if next <= start {
			// Overlap would revisit the previous start; forward progress
			// wins over overlap for very small chunks.
			next = cut
		}
		start = next
	}
	return chunks
}

// cutPoint finds where to end the chunk beginning at start, preferring the
// last natural boundary inside the window and falling back to a hard cut.
func (s *Splitter) cutPoint(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i > 0 {
			return start + i + len(sep)
		}
	}
	return end
}

// SplitDocument chunks a document, carrying the source path onto every
// chunk. Markdown files are first divided at header sections so chunk
// boundaries follow document structure before the size limit applies.
func (s *Splitter) SplitDocument(doc Document) []Chunk {
	var pieces []string
	if strings.HasSuffix(strings.ToLower(doc.Source), ".md") {
		for _, section := range Sections([]byte(doc.Content)) {
			pieces = append(pieces, s.Split(section)...)
		}
	} else {
		pieces = s.Split(doc.Content)
	}

	chunks := make([]Chunk, 0, len(pieces))
	for _, text := range pieces {
		chunks = append(chunks, Chunk{Text: text, Source: doc.Source})
	}
	return chunks
}
