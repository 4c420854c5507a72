// Package agent owns the multi-turn exchange with the language model: it
// sends the conversation and tool catalog, executes requested tools, feeds
// results back, and enforces a hard iteration ceiling with a forced
// text-only closing turn.
package agent

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"warden/internal/agent/models"
	provider "warden/internal/provider/models"
	"warden/internal/session"
)

// Operator-visible fixed messages. Transport failures never leak details.
const (
	msgModelUnavailable = "I couldn't reach the reasoning service. Please try again in a moment."
	msgReasoningLimit   = "I reached my reasoning limit before finishing. Please try again or narrow the request."

	// forceCloseInstruction is the synthetic operator turn appended when the
	// iteration ceiling is hit.
	forceCloseInstruction = "Stop calling tools. Summarize what you found and answer now with the information you already have."
)

// ToolRouter executes model-issued tool calls. Route always returns text.
type ToolRouter interface {
	Route(ctx context.Context, sess *session.Session, name, argsJSON string) string
	Definitions() []provider.ToolDefinition
}

// Options configures a Controller.
type Options struct {
	MaxIterations int
	CallTimeout   time.Duration
	Logger        *zap.Logger
}

// Controller drives the agentic loop for one session at a time. It holds no
// session state itself; everything session-scoped lives on the Session.
type Controller struct {
	provider provider.Provider
	router   ToolRouter
	opts     Options
}

// New creates a Controller.
func New(p provider.Provider, r ToolRouter, opts Options) *Controller {
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 8
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{provider: p, router: r, opts: opts}
}

// HandleTurn processes one operator message to completion and returns the
// reply text. It never returns an error: every failure mode maps to an
// operator-readable message.
func (c *Controller) HandleTurn(ctx context.Context, sess *session.Session, userMessage string) string {
	sess.Append(models.Message{Role: "user", Content: userMessage})

	tools := c.router.Definitions()

	// Exploring phase: the model may request tools on every iteration up to
	// the ceiling.
	for i := 0; i < c.opts.MaxIterations; i++ {
		resp, err := c.generate(ctx, sess, tools)
		if err != nil {
			c.opts.Logger.Error("model call failed",
				zap.String("session", sess.ID),
				zap.Int("iteration", i),
				zap.Error(err))
			return msgModelUnavailable
		}

		if resp.Content.Type == provider.ResponseTypeText {
			sess.Append(models.Message{Role: "assistant", Content: resp.Content.Text})
			return resp.Content.Text
		}

		calls := resp.Content.ToolCalls
		if len(calls) == 0 {
			// A tool-call response with no calls is treated as an empty
			// answer; force the closing path rather than looping on it.
			break
		}

		sess.Append(models.Message{Role: "model", Content: resp.Content.Text, ToolCalls: calls})

		// Execute every requested call, in request order, before the next
		// model call. A single failure becomes that call's result and never
		// aborts the batch.
		results := make([]models.ToolResult, 0, len(calls))
		for _, call := range calls {
			results = append(results, models.ToolResult{
				ID:      call.ID,
				Name:    call.Name,
				Content: c.router.Route(ctx, sess, call.Name, marshalArgs(call.Args)),
			})
		}
		sess.Append(models.Message{Role: "function", ToolResults: results})
	}

	// Forced-closing phase: one synthetic instruction, no tools attached.
	return c.forceClose(ctx, sess)
}

// forceClose demands a text-only synthesis after the ceiling was reached.
func (c *Controller) forceClose(ctx context.Context, sess *session.Session) string {
	c.opts.Logger.Warn("iteration ceiling reached, forcing closure",
		zap.String("session", sess.ID),
		zap.Int("ceiling", c.opts.MaxIterations))

	sess.Append(models.Message{Role: "user", Content: forceCloseInstruction})

	resp, err := c.generate(ctx, sess, nil)
	if err != nil || resp.Content.Type != provider.ResponseTypeText {
		if err != nil {
			c.opts.Logger.Error("forced closure failed",
				zap.String("session", sess.ID),
				zap.Error(err))
		}
		return msgReasoningLimit
	}

	sess.Append(models.Message{Role: "assistant", Content: resp.Content.Text})
	return resp.Content.Text
}

// generate performs one time-boxed model call.
func (c *Controller) generate(ctx context.Context, sess *session.Session, tools []provider.ToolDefinition) (*provider.GenerateResponse, error) {
	callCtx := ctx
	if c.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()
	}

	req := &provider.GenerateRequest{
		System:  systemPrompt(sess, tools != nil),
		History: sess.History,
		Tools:   tools,
	}
	return c.provider.Generate(callCtx, req)
}

// marshalArgs renders tool-call arguments as the JSON blob the router expects.
func marshalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
