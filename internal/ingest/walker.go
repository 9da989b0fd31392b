// Package ingest scans source repositories and splits their files into
// overlapping chunks ready for embedding.
package ingest

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Document is one ingested file: raw content plus its source path.
type Document struct {
	Content string
	Source  string // absolute path
}

// Walker collects documents from a directory tree. Files and directories
// whose name contains "test" (case-insensitive) are excluded, as are paths
// matching any of the configured glob patterns.
type Walker struct {
	extensions map[string]bool
	excludes   []string
	logger     *slog.Logger
}

// NewWalker creates a walker for the given file extensions (e.g. ".java")
// and exclusion glob patterns.
func NewWalker(extensions []string, excludes []string, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Walker{
		extensions: exts,
		excludes:   excludes,
		logger:     logger,
	}
}

// isTestPath reports whether a path segment marks test code.
func isTestPath(segment string) bool {
	return strings.Contains(strings.ToLower(segment), "test")
}

// Scan walks root and returns one Document per included file, in walk order.
// Per-file read failures are logged and skipped; the walk never aborts for
// them. Only a failure to read the tree itself is returned as an error.
func (w *Walker) Scan(root string) ([]Document, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var docs []Document
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: log and move on.
			w.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			if path != root && (isTestPath(d.Name()) || w.matchesExclude(rel+"/")) {
				return fs.SkipDir
			}
			return nil
		}

		if isTestPath(d.Name()) || w.matchesExclude(rel) {
			return nil
		}
		if !w.extensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			w.logger.Warn("failed to read file, skipping", "path", path, "error", readErr)
			return nil
		}

		docs = append(docs, Document{
			Content: string(content),
			Source:  path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (w *Walker) matchesExclude(rel string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}
