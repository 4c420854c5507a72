package gemini

import (
	"github.com/google/uuid"
	"google.golang.org/genai"

	"warden/internal/agent/models"
	provider "warden/internal/provider/models"
)

// toGeminiContents converts conversation history to Gemini Content format.
func toGeminiContents(history []models.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))

	for _, msg := range history {
		content := messageToGeminiContent(msg)
		if content != nil {
			contents = append(contents, content)
		}
	}

	return contents
}

// messageToGeminiContent converts a single message to Gemini Content format.
func messageToGeminiContent(msg models.Message) *genai.Content {
	role := "user"
	if msg.Role == "assistant" || msg.Role == "model" {
		role = "model"
	}

	parts := make([]*genai.Part, 0)

	if msg.Content != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}

	// Tool calls appear on model messages.
	for _, toolCall := range msg.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				Name: toolCall.Name,
				Args: toolCall.Args,
			},
		})
	}

	// Tool results appear on function messages.
	for _, result := range msg.ToolResults {
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				Name: result.Name,
				Response: map[string]any{
					"content": result.Result(),
				},
			},
		})
	}

	// Skip empty messages
	if len(parts) == 0 {
		return nil
	}

	return &genai.Content{
		Role:  role,
		Parts: parts,
	}
}

// toGeminiConfig converts internal generation parameters to Gemini config.
func toGeminiConfig(system string, config *provider.GenerateConfig) *genai.GenerateContentConfig {
	geminiConfig := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}

	if system != "" {
		geminiConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		}
	}

	if config == nil {
		return geminiConfig
	}

	if config.Temperature != nil {
		geminiConfig.Temperature = config.Temperature
	}
	if config.TopP != nil {
		geminiConfig.TopP = config.TopP
	}
	if len(config.StopSequences) > 0 {
		geminiConfig.StopSequences = config.StopSequences
	}

	return geminiConfig
}

// defaultSafetySettings returns safety settings with blocking disabled for
// all categories. Process logs routinely contain strings the default
// filters trip over.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdOff,
		},
	}
}

// toGeminiTools converts internal ToolDefinition to Gemini tools.
func toGeminiTools(tools []provider.ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(tools))

	for _, tool := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}

		if tool.Parameters != nil {
			fd.Parameters = toGeminiSchema(tool.Parameters)
		}

		functionDeclarations = append(functionDeclarations, fd)
	}

	return []*genai.Tool{
		{FunctionDeclarations: functionDeclarations},
	}
}

// toGeminiSchema converts a parameter schema to a Gemini Schema.
func toGeminiSchema(params *provider.Schema) *genai.Schema {
	schema := &genai.Schema{
		Type:        toGeminiType(params.Type),
		Description: params.Description,
	}

	if params.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range params.Properties {
			prop := prop
			schema.Properties[name] = toGeminiSchema(&prop)
		}
	}

	if len(params.Required) > 0 {
		schema.Required = params.Required
	}

	if len(params.Enum) > 0 {
		schema.Enum = params.Enum
	}

	if params.Items != nil {
		schema.Items = toGeminiSchema(params.Items)
	}

	return schema
}

// toGeminiType converts string type to Gemini Type.
func toGeminiType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts a Gemini response to the internal format.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (*provider.GenerateResponse, error) {
	if len(resp.Candidates) == 0 {
		return nil, &provider.ProviderError{
			Message:    "no candidates in response",
			Underlying: provider.ErrEmptyResponse,
		}
	}

	candidate := resp.Candidates[0]

	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, &provider.ProviderError{
			Message:    "content blocked by safety filters",
			Underlying: provider.ErrContentBlocked,
		}
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, &provider.ProviderError{
			Message:    "empty candidate content",
			Underlying: provider.ErrEmptyResponse,
		}
	}

	var text string
	toolCalls := make([]models.ToolCall, 0)

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, models.ToolCall{
				// Gemini does not assign call IDs; mint one so results
				// can be paired with their calls downstream.
				ID:   uuid.NewString(),
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}

	if len(toolCalls) > 0 {
		return &provider.GenerateResponse{
			Content: provider.ResponseContent{
				Type:      provider.ResponseTypeToolCall,
				Text:      text,
				ToolCalls: toolCalls,
			},
		}, nil
	}

	return &provider.GenerateResponse{
		Content: provider.ResponseContent{
			Type: provider.ResponseTypeText,
			Text: text,
		},
	}, nil
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(*genai.APIError); ok {
		return mapAPIError(apiErr, err)
	}

	return &provider.ProviderError{
		Message:    "network error",
		Underlying: provider.ErrNetwork,
		Retryable:  true,
	}
}

func mapAPIError(apiErr *genai.APIError, cause error) error {
	switch apiErr.Code {
	case 401, 403:
		return &provider.ProviderError{
			Message:    "authentication failed",
			Underlying: provider.ErrAuthentication,
		}
	case 429:
		return &provider.ProviderError{
			Message:    "rate limit exceeded",
			Underlying: provider.ErrRateLimit,
			Retryable:  true,
		}
	case 500, 502, 503, 504:
		return &provider.ProviderError{
			Message:    "service unavailable",
			Underlying: provider.ErrServiceUnavailable,
			Retryable:  true,
		}
	default:
		return &provider.ProviderError{
			Message:    "API error: " + apiErr.Message,
			Underlying: cause,
			Retryable:  true,
		}
	}
}
