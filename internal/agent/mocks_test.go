package agent

import (
	"context"

	provider "warden/internal/provider/models"
	"warden/internal/session"
)

// MockProvider implements provider.Provider with injectable behavior.
type MockProvider struct {
	GenerateFunc func(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error)
	Requests     []*provider.GenerateRequest
}

func (m *MockProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	m.Requests = append(m.Requests, req)
	return m.GenerateFunc(ctx, req)
}

func (m *MockProvider) Model() string { return "mock" }

// MockRouter implements ToolRouter with injectable behavior.
type MockRouter struct {
	RouteFunc func(ctx context.Context, sess *session.Session, name, argsJSON string) string
	Defs      []provider.ToolDefinition
	Routed    []string
}

func (m *MockRouter) Route(ctx context.Context, sess *session.Session, name, argsJSON string) string {
	m.Routed = append(m.Routed, name)
	if m.RouteFunc != nil {
		return m.RouteFunc(ctx, sess, name, argsJSON)
	}
	return "ok"
}

func (m *MockRouter) Definitions() []provider.ToolDefinition {
	if m.Defs != nil {
		return m.Defs
	}
	return []provider.ToolDefinition{{Name: "test_tool", Description: "test"}}
}
