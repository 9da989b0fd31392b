package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bull/codebase-assistant/internal/storage"
)

const systemPrompt = `You are a codebase analysis assistant. When responding to queries about code:

1. **Always provide responses in a point-wise manner** using bullet points or numbered lists
2. **For any code snippets mentioned, always include the file name and its parent directory** (not the full path) where the code is located
3. **Be specific and concise** in your explanations
4. **Reference the actual code** when making statements about functionality
5. **Use clear formatting** with proper markdown for code blocks

**IMPORTANT**: When you see a full file path like ` + "`/path/to/controller/filename.java`" + `, mention ` + "`controller/filename.java`" + ` in your response.

Example format:
• **Point 1**: Description with reference to ` + "`controller/filename.java`" + `
• **Point 2**: Another description with reference to ` + "`service/another_file.java`" + `

When showing code snippets, always include the file name and parent directory:
` + "```java" + `
// File: controller/filename.java
public class Example {
    // code here
}
` + "```" + `

Focus on providing actionable insights and clear explanations based on the actual codebase.`

// Retrieval is the slice of the retriever the orchestrator depends on.
type Retrieval interface {
	Search(ctx context.Context, repository, query string, k int) []*storage.ScoredChunk
	SearchBoth(ctx context.Context, query string, k int) []*storage.ScoredChunk
	Format(chunks []*storage.ScoredChunk) string
	Repositories() (string, string)
}

// ChatModel generates a completion for a message sequence. Implementations
// return an error for transport or model failures; the orchestrator turns
// those into user-facing text rather than propagating them.
type ChatModel interface {
	Invoke(ctx context.Context, messages []Message) (string, error)
}

// Orchestrator runs one query through retrieval and generation. It is
// stateless between queries and safe for concurrent use.
type Orchestrator struct {
	retriever Retrieval
	model     ChatModel
	topK      int
	logger    *slog.Logger
}

func NewOrchestrator(retriever Retrieval, model ChatModel, topK int, logger *slog.Logger) *Orchestrator {
	if topK <= 0 {
		topK = 5
	}
	return &Orchestrator{
		retriever: retriever,
		model:     model,
		topK:      topK,
		logger:    logger,
	}
}

// Run drives a conversation through the full state sequence and returns
// it in the DONE state. The returned error is always nil today; the
// signature leaves room for setup failures. Generation failures never
// surface as errors, they are embedded in the response text. A run is
// not cancellable between states; ctx bounds the individual retrieval
// and generation calls.
func (o *Orchestrator) Run(ctx context.Context, query, target string) (*Conversation, error) {
	conv := newConversation(query, target)
	state := StateInit

	for state != StateDone {
		switch state {
		case StateInit:
			state = StateRetrieving
		case StateRetrieving:
			o.retrieve(ctx, conv)
			state = StateGenerating
		case StateGenerating:
			o.generate(ctx, conv)
			state = StateDone
		}
	}
	return conv, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, conv *Conversation) {
	repoA, repoB := o.retriever.Repositories()

	switch conv.Target {
	case repoA, repoB:
		conv.Retrieved = o.retriever.Search(ctx, conv.Target, conv.Query, o.topK)
	default:
		conv.Retrieved = o.retriever.SearchBoth(ctx, conv.Query, o.topK)
	}

	o.logger.Info("retrieved code chunks",
		"query", conv.Query,
		"target", conv.Target,
		"chunks", len(conv.Retrieved))

	formatted := o.retriever.Format(conv.Retrieved)
	if formatted != "" {
		conv.Messages = append(conv.Messages, Message{
			Role:    RoleUser,
			Content: fmt.Sprintf("Here is relevant code from the codebase:\n%s\n\nPlease use this code to answer the user's question.", formatted),
		})
	}
}

func (o *Orchestrator) generate(ctx context.Context, conv *Conversation) {
	messages := make([]Message, 0, len(conv.Messages)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	messages = append(messages, conv.Messages...)

	text, err := o.model.Invoke(ctx, messages)
	if err != nil {
		o.logger.Error("generation failed", "error", err)
		conv.Result = Generation{
			Text:   fmt.Sprintf("Sorry, I encountered an error while generating the response: %s", err),
			Failed: true,
		}
		return
	}

	conv.Result = Generation{Text: text}
	conv.Messages = append(conv.Messages, Message{Role: RoleAssistant, Content: text})
}
