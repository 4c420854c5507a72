package openai

import (
	"encoding/json"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"warden/internal/agent/models"
	provider "warden/internal/provider/models"
)

// toOpenAIMessages converts the system prompt and history to chat
// completion messages. Every tool result becomes its own role-tool
// message keyed by ToolCallID, which is how the API pairs results with
// their calls.
func toOpenAIMessages(system string, history []models.Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)

	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range history {
		switch {
		case len(msg.ToolResults) > 0:
			for _, result := range msg.ToolResults {
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    result.Result(),
					ToolCallID: result.ID,
				})
			}
		case msg.Role == "model" || msg.Role == "assistant":
			messages = append(messages, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   msg.Content,
				ToolCalls: toOpenAIToolCalls(msg.ToolCalls),
			})
		default:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		}
	}

	return messages
}

// toOpenAIToolCalls converts internal tool calls to API tool calls.
// Arguments travel as a JSON string on the wire.
func toOpenAIToolCalls(calls []models.ToolCall) []openai.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	out := make([]openai.ToolCall, 0, len(calls))
	for _, call := range calls {
		args, err := json.Marshal(call.Args)
		if err != nil {
			args = []byte("{}")
		}
		out = append(out, openai.ToolCall{
			ID:   call.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      call.Name,
				Arguments: string(args),
			},
		})
	}
	return out
}

// toOpenAITools converts internal ToolDefinition to API tools.
func toOpenAITools(tools []provider.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return out
}

// fromOpenAIResponse converts a chat completion response to the
// internal format.
func fromOpenAIResponse(resp openai.ChatCompletionResponse) (*provider.GenerateResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, &provider.ProviderError{
			Message:    "no choices in response",
			Underlying: provider.ErrEmptyResponse,
		}
	}

	message := resp.Choices[0].Message

	if len(message.ToolCalls) > 0 {
		toolCalls := make([]models.ToolCall, 0, len(message.ToolCalls))
		for _, call := range message.ToolCalls {
			args := make(map[string]any)
			if call.Function.Arguments != "" {
				// Malformed arguments surface downstream as an empty
				// arg map rather than failing the whole turn.
				_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
			}
			toolCalls = append(toolCalls, models.ToolCall{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: args,
			})
		}

		return &provider.GenerateResponse{
			Content: provider.ResponseContent{
				Type:      provider.ResponseTypeToolCall,
				Text:      message.Content,
				ToolCalls: toolCalls,
			},
		}, nil
	}

	return &provider.GenerateResponse{
		Content: provider.ResponseContent{
			Type: provider.ResponseTypeText,
			Text: message.Content,
		},
	}, nil
}

// mapOpenAIError maps API errors to provider errors.
func mapOpenAIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
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
				Underlying: err,
				Retryable:  true,
			}
		}
	}

	return &provider.ProviderError{
		Message:    "network error",
		Underlying: provider.ErrNetwork,
		Retryable:  true,
	}
}
