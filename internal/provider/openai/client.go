package openai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient defines the interface for interacting with the chat
// completion API. This abstraction allows for easier testing and for
// pointing at OpenAI-compatible endpoints.
type OpenAIClient interface {
	// CreateChatCompletion sends a chat completion request and returns the response
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewRealOpenAIClient creates an SDK client, optionally against a
// compatible base URL.
func NewRealOpenAIClient(apiKey, baseURL string) *openai.Client {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}
