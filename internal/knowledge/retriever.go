package knowledge

import "strings"

// Responses for the two empty cases, kept as recognizable markers so the
// chat model can tell the user nothing was found.
const (
	noKnowledgeBase   = "[No knowledge base loaded]"
	noRelevantContext = "[No relevant context found in knowledge base]"
)

// snippetLimit bounds how much of a matching document is forwarded to
// the chat model.
const snippetLimit = 500

// DocumentSource supplies the searchable documents.
type DocumentSource interface {
	Documents() []string
}

// Retriever finds the first document containing any keyword from the
// prompt and returns its leading snippet.
type Retriever struct {
	source DocumentSource
}

func NewRetriever(source DocumentSource) *Retriever {
	return &Retriever{source: source}
}

func (r *Retriever) Retrieve(prompt string) string {
	if r.source == nil {
		return noKnowledgeBase
	}
	docs := r.source.Documents()
	words := strings.Fields(strings.ToLower(prompt))
	for _, doc := range docs {
		lower := strings.ToLower(doc)
		for _, word := range words {
			if strings.Contains(lower, word) {
				if len(doc) > snippetLimit {
					return doc[:snippetLimit]
				}
				return doc
			}
		}
	}
	return noRelevantContext
}
