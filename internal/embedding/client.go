package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client used for embedding and chat generation.
// The base URL override lets all model traffic flow through an internal
// LLM proxy.
type Client struct {
	client         *openai.Client
	embeddingModel string
}

// NewClient creates an OpenAI client from explicit configuration. The key
// is required; an empty base URL uses the public endpoint.
func NewClient(apiKey, baseURL, embeddingModel string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key not configured")
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &Client{
		client:         &client,
		embeddingModel: embeddingModel,
	}, nil
}

// Client returns the underlying OpenAI client for use in other packages
// (e.g. chat generation).
func (c *Client) Client() *openai.Client {
	return c.client
}
