package models

import (
	"context"
)

// Provider defines the interface for LLM backends. A request with no tools
// attached forces a text-only completion; the agent relies on that for its
// forced-closing turn.
type Provider interface {
	// Generate sends a request to the model and returns the response.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Model returns the active model name.
	Model() string
}
