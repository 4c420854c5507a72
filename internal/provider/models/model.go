package models

import (
	"warden/internal/agent/models"
)

// GenerateRequest encapsulates all parameters for a generation request.
type GenerateRequest struct {
	// System is the system prompt for this turn.
	System string

	// History contains the conversation history, oldest first.
	History []models.Message

	// Tools contains tool definitions for native tool calling.
	// Empty means the model must answer in text.
	Tools []ToolDefinition

	// Config contains optional generation parameters.
	Config *GenerateConfig
}

// GenerateConfig contains optional generation parameters.
// All fields are pointers to distinguish between "not set" and "zero value".
type GenerateConfig struct {
	Temperature   *float32
	TopP          *float32
	StopSequences []string
}

// GenerateResponse contains the model's response.
type GenerateResponse struct {
	Content ResponseContent
}

// ResponseContent is a union type representing different response types.
type ResponseContent struct {
	// Type indicates what the model produced.
	Type ResponseType

	// For Type = ResponseTypeText
	Text string

	// For Type = ResponseTypeToolCall. The assistant may attach text
	// alongside its tool calls.
	ToolCalls []models.ToolCall
}

// ResponseType indicates the type of response from the model.
type ResponseType string

const (
	ResponseTypeText     ResponseType = "text"
	ResponseTypeToolCall ResponseType = "tool_call"
)

// ToolDefinition describes one callable capability to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *Schema
}

// Schema is a JSON-schema-shaped parameter description.
type Schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
	Enum        []string          `json:"enum,omitempty"`
	Items       *Schema           `json:"items,omitempty"`
}
