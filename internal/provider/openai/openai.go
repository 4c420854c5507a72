package openai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	provider "warden/internal/provider/models"
)

// OpenAIProvider implements the Provider interface for OpenAI and
// OpenAI-compatible backends.
type OpenAIProvider struct {
	client    OpenAIClient
	modelName string
}

// New creates a new OpenAIProvider with the specified client and model.
func New(client OpenAIClient, modelName string) *OpenAIProvider {
	return &OpenAIProvider{
		client:    client,
		modelName: modelName,
	}
}

// Generate sends a chat completion request and returns the response.
func (p *OpenAIProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	apiReq := openai.ChatCompletionRequest{
		Model:    p.modelName,
		Messages: toOpenAIMessages(req.System, req.History),
		Tools:    toOpenAITools(req.Tools),
	}

	if req.Config != nil {
		if req.Config.Temperature != nil {
			apiReq.Temperature = *req.Config.Temperature
		}
		if req.Config.TopP != nil {
			apiReq.TopP = *req.Config.TopP
		}
		if len(req.Config.StopSequences) > 0 {
			apiReq.Stop = req.Config.StopSequences
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	return fromOpenAIResponse(resp)
}

// Model returns the currently active model name.
func (p *OpenAIProvider) Model() string {
	return p.modelName
}
