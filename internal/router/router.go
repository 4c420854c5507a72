// Package router connects model-issued tool calls to concrete operations.
// Tools are registered in a lookup table at startup; routing a call never
// returns an error to the agent loop, only explanatory text.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	provider "warden/internal/provider/models"
	"warden/internal/session"
)

// Tool is one routable capability with a uniform execution contract.
type Tool struct {
	Definition provider.ToolDefinition
	Run        func(ctx context.Context, sess *session.Session, args map[string]any) (string, error)
}

// Options configures a Router.
type Options struct {
	MaxResultSize   int
	TruncatedSize   int
	ArgsPreviewSize int
	CallTimeout     time.Duration
	Logger          *zap.Logger
}

// Router routes tool calls to registered tools.
type Router struct {
	tools map[string]*Tool
	order []string
	opts  Options
}

// New creates an empty Router.
func New(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Router{
		tools: make(map[string]*Tool),
		opts:  opts,
	}
}

// Register adds a tool to the dispatch table.
func (r *Router) Register(t *Tool) error {
	name := t.Definition.Name
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers a tool and panics on conflict. The tool set is
// static and assembled once at startup.
func (r *Router) MustRegister(t *Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Definitions returns the tool catalog in registration order.
func (r *Router) Definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}

// Route executes the named tool with the given JSON arguments and returns the
// result text. Malformed arguments, unknown tools, and execution failures all
// come back as explanatory text so the agent loop never crashes on model
// output.
func (r *Router) Route(ctx context.Context, sess *session.Session, name, argsJSON string) string {
	tool, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("unknown tool %q", name)
	}

	args := make(map[string]any)
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return fmt.Sprintf("invalid arguments for %s: %v", name, err)
		}
	}

	r.opts.Logger.Info("routing tool call",
		zap.String("session", sess.ID),
		zap.String("tool", name),
		zap.String("args", preview(argsJSON, r.opts.ArgsPreviewSize)))

	callCtx := ctx
	if r.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.opts.CallTimeout)
		defer cancel()
	}

	result, err := tool.Run(callCtx, sess, args)
	if err != nil {
		return fmt.Sprintf("%s failed: %v", name, err)
	}

	return Truncate(result, r.opts.MaxResultSize, r.opts.TruncatedSize)
}

// preview shortens an argument blob for logging.
func preview(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max] + "..."
	}
	return s
}
