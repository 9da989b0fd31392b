package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIModel adapts an openai-go client to the ChatModel interface. The
// client is typically configured with a proxy base URL, so Model carries
// the provider-prefixed name the proxy expects.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(client *openai.Client, model string) *OpenAIModel {
	return &OpenAIModel{client: client, model: model}
}

func (m *OpenAIModel) Invoke(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			params = append(params, openai.UserMessage(msg.Content))
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: params,
		Model:    m.model,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
