// Package gate classifies command invocations as safe or dangerous and holds
// the per-session pending-confirmation slot for dangerous ones. A dangerous
// command never executes until the operator explicitly confirms it, and a
// confirmation older than the TTL is rejected.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"warden/internal/command"
)

// Sentinel errors for the confirmation protocol.
var (
	ErrNothingPending = errors.New("nothing is awaiting confirmation")
	ErrExpired        = errors.New("confirmation request expired")
)

// Pending represents one outstanding dangerous-action request.
type Pending struct {
	Desc      *command.Descriptor
	Args      string
	SessionID string
	CreatedAt time.Time
}

// Describe names the pending command and its arguments for operator messages.
func (p *Pending) Describe() string {
	if p.Args == "" {
		return p.Desc.Name
	}
	return fmt.Sprintf("%s %s", p.Desc.Name, p.Args)
}

// Gate is the safety gate. Pending confirmations are keyed by session
// identifier so concurrent operator sessions never share a slot.
type Gate struct {
	mu      sync.Mutex
	pending map[string]*Pending

	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// New creates a Gate with the given confirmation TTL.
func New(ttl time.Duration, logger *zap.Logger) *Gate {
	return &Gate{
		pending: make(map[string]*Pending),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Classify decides whether invoking the descriptor with the given arguments is
// dangerous. A command is dangerous if its descriptor is statically flagged,
// if it is the process manager with a mutating sub-action, or if it is the
// free-form shell with a destructive leading token.
func (g *Gate) Classify(d *command.Descriptor, args string) (dangerous bool, reason string) {
	if d.Dangerous {
		return true, fmt.Sprintf("%s is flagged dangerous", d.Name)
	}
	switch d.Name {
	case command.NameProcess:
		if action := dangerousProcessAction(args); action != "" {
			return true, fmt.Sprintf("process %s is a mutating action", action)
		}
	case command.NameShell:
		if verb := destructiveShellVerb(args); verb != "" {
			return true, fmt.Sprintf("shell command %q is destructive", verb)
		}
	}
	return false, ""
}

// Invoke classifies and either executes the command immediately (safe) or
// queues it behind a confirmation (dangerous). The returned text is either the
// command output, the confirmation prompt, or a rejection naming the pending
// command when one exists. executed reports whether the command body ran.
func (g *Gate) Invoke(ctx context.Context, sessionID string, d *command.Descriptor, args string, ec command.ExecContext) (text string, executed bool) {
	dangerous, reason := g.Classify(d, args)
	if !dangerous {
		res := d.Execute(ctx, args, ec)
		return res.Output, true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.pending[sessionID]; ok {
		// A second dangerous request never replaces the outstanding one:
		// replacing would silently discard an action the operator may be
		// about to confirm.
		return fmt.Sprintf("Another dangerous command is already awaiting confirmation: %s. Send \"confirm\" or \"cancel\" first.",
			existing.Describe()), false
	}

	p := &Pending{
		Desc:      d,
		Args:      args,
		SessionID: sessionID,
		CreatedAt: g.now(),
	}
	g.pending[sessionID] = p

	g.logger.Info("dangerous command queued",
		zap.String("session", sessionID),
		zap.String("command", d.Name),
		zap.String("reason", reason))

	return fmt.Sprintf("⚠ %s. This will run: %s\nSend \"confirm\" to execute or \"cancel\" to abort (expires in %s).",
		reason, p.Describe(), g.ttl), false
}

// Confirm validates and consumes the session's pending confirmation.
// Expiry is evaluated lazily here: a confirmation at or past the TTL clears
// the slot and returns ErrExpired without executing anything.
func (g *Gate) Confirm(sessionID string) (*Pending, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pending[sessionID]
	if !ok {
		return nil, ErrNothingPending
	}
	delete(g.pending, sessionID)

	if g.now().Sub(p.CreatedAt) >= g.ttl {
		g.logger.Info("confirmation expired",
			zap.String("session", sessionID),
			zap.String("command", p.Desc.Name))
		return p, ErrExpired
	}
	return p, nil
}

// Cancel clears the session's pending confirmation unconditionally.
func (g *Gate) Cancel(sessionID string) (*Pending, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.pending[sessionID]
	if ok {
		delete(g.pending, sessionID)
	}
	return p, ok
}

// PendingFor returns the session's outstanding request, if any.
func (g *Gate) PendingFor(sessionID string) (*Pending, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.pending[sessionID]
	return p, ok
}
