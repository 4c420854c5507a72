package gemini

import (
	"context"

	"google.golang.org/genai"
)

// MockGeminiClient is a test double for GeminiClient.
type MockGeminiClient struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	// Calls records every invocation for assertions.
	Calls []MockCall
}

// MockCall captures the arguments of one GenerateContent invocation.
type MockCall struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

func (m *MockGeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.Calls = append(m.Calls, MockCall{Model: model, Contents: contents, Config: config})
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, model, contents, config)
	}
	return nil, nil
}

// textResponse builds a minimal successful text response.
func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: text}},
				},
				FinishReason: genai.FinishReasonStop,
			},
		},
	}
}
