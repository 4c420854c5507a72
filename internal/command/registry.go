// Package command defines the static command registry: named operator
// commands with aliases, usage hints, a dangerous flag, and an execution
// function. Descriptors are immutable after registration.
package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"warden/internal/session"
)

// Reserved command names the safety gate applies dynamic rules to.
const (
	NameShell   = "sh"
	NameProcess = "ps"
)

// Result is the outcome of a command execution.
type Result struct {
	Success bool
	Output  string
}

// ExecContext carries the session-scoped state a command body may read or,
// for the target switch, mutate.
type ExecContext struct {
	Session *session.Session
	Targets *session.TargetRegistry
	Logger  *zap.Logger
}

// Func executes a command with free-text arguments.
type Func func(ctx context.Context, args string, ec ExecContext) Result

// Descriptor maps a command name and its aliases to a handler.
type Descriptor struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Dangerous   bool
	Run         Func
}

// Execute runs the command body. It never lets a panic cross the boundary;
// any panic is converted into a failed Result.
func (d *Descriptor) Execute(ctx context.Context, args string, ec ExecContext) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			if ec.Logger != nil {
				ec.Logger.Error("command panicked",
					zap.String("command", d.Name),
					zap.Any("panic", r))
			}
			res = Result{Success: false, Output: fmt.Sprintf("%s failed: internal error", d.Name)}
		}
	}()

	if d.Run == nil {
		return Result{Success: false, Output: fmt.Sprintf("%s is not available", d.Name)}
	}
	return d.Run(ctx, args, ec)
}

// Registry is the static table of commands, looked up by name or alias.
type Registry struct {
	byName  map[string]*Descriptor
	ordered []*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds a descriptor under its name and all aliases.
func (r *Registry) Register(d *Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	names := append([]string{d.Name}, d.Aliases...)
	for _, name := range names {
		key := strings.ToLower(name)
		if _, exists := r.byName[key]; exists {
			return fmt.Errorf("command %q is already registered", name)
		}
	}
	for _, name := range names {
		r.byName[strings.ToLower(name)] = d
	}
	r.ordered = append(r.ordered, d)
	return nil
}

// MustRegister registers a descriptor and panics on conflict. Registration
// happens once at startup with a static command set.
func (r *Registry) MustRegister(d *Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup resolves a command by name or alias (case-insensitive).
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

// All returns the registered descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Help renders the usage table for the operator.
func (r *Registry) Help() string {
	descs := r.All()
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })

	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, d := range descs {
		flag := ""
		if d.Dangerous {
			flag = " (requires confirmation)"
		}
		fmt.Fprintf(&b, "  /%s %s — %s%s\n", d.Name, d.Usage, d.Description, flag)
		if len(d.Aliases) > 0 {
			fmt.Fprintf(&b, "    aliases: %s\n", strings.Join(d.Aliases, ", "))
		}
	}
	b.WriteString("\nReserved: confirm, cancel, help. Anything else goes to the agent.\n")
	return b.String()
}
