// Package dispatch routes operator input to its handler: the confirmation
// protocol, the command registry behind the safety gate, or the conversational
// agent.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"warden/internal/audit"
	"warden/internal/channel"
	"warden/internal/command"
	"warden/internal/gate"
	"warden/internal/session"
)

// Agent produces a conversational reply for free-form operator input.
type Agent interface {
	HandleTurn(ctx context.Context, sess *session.Session, userMessage string) string
}

// Dispatcher owns the top-level input loop semantics. Literal "confirm" and
// "cancel" always reach the gate first so a pending dangerous command can
// never be shadowed by a command or the agent.
type Dispatcher struct {
	registry *command.Registry
	gate     *gate.Gate
	agent    Agent
	sessions *session.Store
	audit    audit.Recorder
	channel  channel.Channel
	logger   *zap.Logger
}

// Options collects the dispatcher's collaborators.
type Options struct {
	Registry *command.Registry
	Gate     *gate.Gate
	Agent    Agent
	Sessions *session.Store
	Audit    audit.Recorder
	Channel  channel.Channel
	Logger   *zap.Logger
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	a := opts.Audit
	if a == nil {
		a = audit.Nop{}
	}
	return &Dispatcher{
		registry: opts.Registry,
		gate:     opts.Gate,
		agent:    opts.Agent,
		sessions: opts.Sessions,
		audit:    a,
		channel:  opts.Channel,
		logger:   opts.Logger,
	}
}

// Handle processes one line of operator input for the given session and
// sends the reply over the channel.
func (d *Dispatcher) Handle(ctx context.Context, sessionID, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	sess := d.sessions.Get(sessionID)

	switch strings.ToLower(input) {
	case "confirm":
		return d.reply(sessionID, d.handleConfirm(ctx, sess))
	case "cancel":
		return d.reply(sessionID, d.handleCancel(sess))
	case "help":
		return d.reply(sessionID, d.registry.Help())
	}

	if name, args, ok := parseCommand(input); ok {
		return d.reply(sessionID, d.handleCommand(ctx, sess, name, args))
	}

	reply := d.agent.HandleTurn(ctx, sess, input)
	d.audit.Record(sess.ID, "turn_completed", sess.Target.Name, nil)
	return d.reply(sessionID, reply)
}

// handleConfirm consumes the pending slot and executes on success.
func (d *Dispatcher) handleConfirm(ctx context.Context, sess *session.Session) string {
	p, err := d.gate.Confirm(sess.ID)
	switch {
	case errors.Is(err, gate.ErrNothingPending):
		return "Nothing is awaiting confirmation."
	case errors.Is(err, gate.ErrExpired):
		return fmt.Sprintf("The confirmation for %s expired. Nothing was executed; request it again if still needed.", p.Describe())
	}

	res := p.Desc.Execute(ctx, p.Args, d.execContext(sess))
	d.audit.Record(sess.ID, "command_confirmed", p.Desc.Name, map[string]string{
		"args":    p.Args,
		"success": fmt.Sprintf("%t", res.Success),
	})
	return res.Output
}

func (d *Dispatcher) handleCancel(sess *session.Session) string {
	p, ok := d.gate.Cancel(sess.ID)
	if !ok {
		return "Nothing to cancel."
	}
	d.audit.Record(sess.ID, "command_cancelled", p.Desc.Name, map[string]string{"args": p.Args})
	return fmt.Sprintf("Cancelled: %s was not executed.", p.Describe())
}

func (d *Dispatcher) handleCommand(ctx context.Context, sess *session.Session, name, args string) string {
	desc, ok := d.registry.Lookup(name)
	if !ok {
		return fmt.Sprintf("Unknown command %q. Send \"help\" for the command list.", name)
	}

	before := sess.Target.Name
	text, executed := d.gate.Invoke(ctx, sess.ID, desc, args, d.execContext(sess))

	if executed {
		d.audit.Record(sess.ID, "command_executed", desc.Name, map[string]string{"args": args})
		if sess.Target.Name != before {
			d.audit.Record(sess.ID, "context_switch", sess.Target.Name, map[string]string{"from": before})
		}
	} else {
		d.audit.Record(sess.ID, "command_queued", desc.Name, map[string]string{"args": args})
	}
	return text
}

// execContext builds the per-invocation command context.
func (d *Dispatcher) execContext(sess *session.Session) command.ExecContext {
	return command.ExecContext{
		Session: sess,
		Targets: d.sessions.Targets(),
		Logger:  d.logger,
	}
}

func (d *Dispatcher) reply(sessionID, text string) error {
	if text == "" {
		return nil
	}
	if err := d.channel.Send(sessionID, text); err != nil {
		d.logger.Error("reply delivery failed",
			zap.String("session", sessionID),
			zap.Error(err))
		return err
	}
	return nil
}

// parseCommand recognizes slash-prefixed command input and splits it into
// the command name and its argument string.
func parseCommand(input string) (name, args string, ok bool) {
	if !strings.HasPrefix(input, "/") {
		return "", "", false
	}
	body := strings.TrimPrefix(input, "/")
	if body == "" {
		return "", "", false
	}
	name, args, _ = strings.Cut(body, " ")
	return name, strings.TrimSpace(args), true
}
