package ingest

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

var markdownParser = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// Sections divides a markdown document at H1 and H2 boundaries, returning
// the text of each section including its heading line. A document without
// headers comes back as a single section.
func Sections(source []byte) []string {
	doc := markdownParser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return []string{string(source)}
	}

	offsets := headingOffsets(doc, source, tree.Items)
	if len(offsets) == 0 {
		return []string{string(source)}
	}
	sort.Ints(offsets)

	var sections []string
	if pre := strings.TrimSpace(string(source[:offsets[0]])); pre != "" {
		sections = append(sections, pre)
	}
	for i, off := range offsets {
		end := len(source)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if section := strings.TrimSpace(string(source[off:end])); section != "" {
			sections = append(sections, section)
		}
	}
	return sections
}

// headingOffsets resolves each TOC item to the byte offset of the start of
// its heading line.
func headingOffsets(doc ast.Node, source []byte, items toc.Items) []int {
	var offsets []int
	var visit func(items toc.Items)
	visit = func(items toc.Items) {
		for _, item := range items {
			if node := findHeadingByID(doc, string(item.ID)); node != nil && node.Lines().Len() > 0 {
				offsets = append(offsets, lineStart(source, node.Lines().At(0).Start))
			}
			visit(item.Items)
		}
	}
	visit(items)
	return offsets
}

// findHeadingByID locates a heading node by its auto-generated ID.
func findHeadingByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			if attr, ok := n.AttributeString("id"); ok {
				if b, ok := attr.([]byte); ok && string(b) == id {
					found = n
					return ast.WalkStop, nil
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// lineStart walks back from a heading's text segment to the beginning of
// its line, so the "#" markers are kept with the section.
func lineStart(source []byte, offset int) int {
	for offset > 0 && source[offset-1] != '\n' {
		offset--
	}
	return offset
}
