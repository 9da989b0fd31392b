// Package knowledge implements the plain-text knowledge base behind the
// general chat endpoint. Retrieval is deliberately simple keyword
// matching; the vector pipeline is reserved for codebase queries.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads .txt and .md documents from a directory.
type Loader struct {
	documents []string
}

// NewLoader returns an empty loader. Load populates it.
func NewLoader() *Loader {
	return &Loader{}
}

// Load replaces the document set with the directory's contents. Files
// with other extensions are ignored.
func (l *Loader) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read knowledge directory: %w", err)
	}

	docs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read knowledge file %s: %w", entry.Name(), err)
		}
		docs = append(docs, string(content))
	}

	l.documents = docs
	return nil
}

// Documents returns the loaded document contents.
func (l *Loader) Documents() []string {
	return l.documents
}
