package knowledge

import (
	"context"
	"fmt"

	"github.com/bull/codebase-assistant/internal/agent"
)

const assistantPrompt = "You are CIQ Assistant, an expert technical support AI for CommerceIQ. " +
	"Instructions: " +
	"- Answer using your general knowledge and the provided knowledge base context. " +
	"- Always be friendly, concise, and professional. " +
	"If you don't know the answer, say so honestly."

// Assistant answers free-form support questions by pairing a knowledge
// base snippet with the chat model.
type Assistant struct {
	retriever *Retriever
	model     agent.ChatModel
}

func NewAssistant(retriever *Retriever, model agent.ChatModel) *Assistant {
	return &Assistant{retriever: retriever, model: model}
}

// Answer resolves context for the prompt and generates a reply. Model
// failures come back as text so the caller always has something to show.
func (a *Assistant) Answer(ctx context.Context, prompt string) string {
	kbContext := a.retriever.Retrieve(prompt)
	messages := []agent.Message{
		{Role: agent.RoleSystem, Content: assistantPrompt},
		{Role: agent.RoleUser, Content: fmt.Sprintf("Context: %s\nUser: %s", kbContext, prompt)},
	}

	reply, err := a.model.Invoke(ctx, messages)
	if err != nil {
		return fmt.Sprintf("[LLM Error: %s]", err)
	}
	if reply == "" {
		return "[LLM returned no content]"
	}
	return reply
}
