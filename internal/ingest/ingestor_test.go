package ingest

import (
	"testing"
)

func TestIngestIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/First.java", uniqueLines(20))
	writeFile(t, root, "b/second.md", "# Title\n\nBody text.\n\n## Part\n\nMore body.\n")
	writeFile(t, root, "c/notes.txt", uniqueLines(5))

	splitter, err := NewSplitter(120, 20)
	if err != nil {
		t.Fatal(err)
	}
	walker := NewWalker([]string{".java", ".md", ".txt"}, nil, nopLogger())
	ingestor := NewIngestor(walker, splitter, nopLogger())

	first, err := ingestor.Ingest(root)
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	second, err := ingestor.Ingest(root)
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	if len(first) == 0 {
		t.Fatal("no chunks ingested")
	}
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestIngestMarkdownSectionsBounded(t *testing.T) {
	root := t.TempDir()
	long := "# Header\n\n" + uniqueLines(30) + "\n## Sub\n\n" + uniqueLines(30)
	writeFile(t, root, "doc.md", long)

	splitter, err := NewSplitter(200, 40)
	if err != nil {
		t.Fatal(err)
	}
	walker := NewWalker([]string{".md"}, nil, nopLogger())
	ingestor := NewIngestor(walker, splitter, nopLogger())

	chunks, err := ingestor.Ingest(root)
	if err != nil {
		t.Fatal(err)
	}
	for i, chunk := range chunks {
		if len(chunk.Text) > 200 {
			t.Errorf("chunk %d exceeds size bound: %d", i, len(chunk.Text))
		}
	}
}
