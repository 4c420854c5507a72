package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"warden/internal/audit"
	"warden/internal/command"
	"warden/internal/gate"
	"warden/internal/memory"
	provider "warden/internal/provider/models"
	"warden/internal/session"
)

// shellRefusal is returned whenever the model asks for a hard-blocked tool.
// Raw shell and deploy are only reachable through the operator-confirmed path.
const shellRefusal = "This action is not available to the autonomous loop. " +
	"Ask the operator to run it directly; it will require their explicit confirmation."

// CatalogDeps holds the collaborators the standard tool set routes to.
type CatalogDeps struct {
	Registry *command.Registry
	Gate     *gate.Gate
	Memory   *memory.Store
	Audit    audit.Recorder
	Targets  *session.TargetRegistry
	Logger   *zap.Logger
}

// RegisterCatalog registers the standard tool set on the router.
func RegisterCatalog(r *Router, deps CatalogDeps) {
	execCtx := func(sess *session.Session) command.ExecContext {
		return command.ExecContext{Session: sess, Targets: deps.Targets, Logger: deps.Logger}
	}

	// gated routes a tool call through the safety gate to a registry command.
	gated := func(name string, buildArgs func(args map[string]any) (string, error)) func(context.Context, *session.Session, map[string]any) (string, error) {
		return func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
			desc, ok := deps.Registry.Lookup(name)
			if !ok {
				return "", fmt.Errorf("command %q is not registered", name)
			}
			cmdArgs, err := buildArgs(args)
			if err != nil {
				return "", err
			}
			text, _ := deps.Gate.Invoke(ctx, sess.ID, desc, cmdArgs, execCtx(sess))
			return text, nil
		}
	}

	r.MustRegister(&Tool{
		Definition: provider.ToolDefinition{
			Name:        "get_health",
			Description: "Check whether the active target is healthy. Use this before and after any action that could affect availability.",
			Parameters:  &provider.Schema{Type: "object"},
		},
		Run: gated("health", func(map[string]any) (string, error) { return "", nil }),
	})

	r.MustRegister(&Tool{
		Definition: provider.ToolDefinition{
			Name:        "read_logs",
			Description: "Read the tail of the active target's log. Use this to investigate errors or verify recent activity.",
			Parameters: &provider.Schema{
				Type: "object",
				Properties: map[string]provider.Schema{
					"lines": {
						Type:        "integer",
						Description: "How many trailing lines to read (default 50)",
					},
				},
			},
		},
		Run: gated("logs", func(args map[string]any) (string, error) {
			var req struct {
				Lines int `mapstructure:"lines"`
			}
			if err := mapstructure.WeakDecode(args, &req); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if req.Lines <= 0 {
				return "", nil
			}
			return strconv.Itoa(req.Lines), nil
		}),
	})

	r.MustRegister(&Tool{
		Definition: provider.ToolDefinition{
			Name: "manage_process",
			Description: "Inspect or control the active target's service. " +
				"list and status run immediately; restart, reload, stop and start are queued for operator confirmation.",
			Parameters: &provider.Schema{
				Type: "object",
				Properties: map[string]provider.Schema{
					"action": {
						Type:        "string",
						Description: "What to do with the service",
						Enum:        []string{"list", "status", "restart", "reload", "stop", "start"},
					},
					"unit": {
						Type:        "string",
						Description: "Service unit name (defaults to the target's configured unit)",
					},
				},
				Required: []string{"action"},
			},
		},
		Run: gated(command.NameProcess, func(args map[string]any) (string, error) {
			var req struct {
				Action string `mapstructure:"action"`
				Unit   string `mapstructure:"unit"`
			}
			if err := mapstructure.WeakDecode(args, &req); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if req.Action == "" {
				return "", fmt.Errorf("action is required")
			}
			return strings.TrimSpace(req.Action + " " + req.Unit), nil
		}),
	})

	r.MustRegister(&Tool{
		Definition: provider.ToolDefinition{
			Name:        "fetch_url",
			Description: "Fetch a web page or API endpoint over HTTP GET and return the response body.",
			Parameters: &provider.Schema{
				Type: "object",
				Properties: map[string]provider.Schema{
					"url": {
						Type:        "string",
						Description: "Absolute URL to fetch",
					},
				},
				Required: []string{"url"},
			},
		},
		Run: gated("fetch", func(args map[string]any) (string, error) {
			var req struct {
				URL string `mapstructure:"url"`
			}
			if err := mapstructure.WeakDecode(args, &req); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if req.URL == "" {
				return "", fmt.Errorf("url is required")
			}
			return req.URL, nil
		}),
	})

	r.MustRegister(&Tool{
		Definition: provider.ToolDefinition{
			Name:        "memory_store",
			Description: "Store a fact worth remembering across conversations, such as an incident observation or an operator preference.",
			Parameters: &provider.Schema{
				Type: "object",
				Properties: map[string]provider.Schema{
					"content": {
						Type:        "string",
						Description: "The fact to remember",
					},
					"namespace": {
						Type:        "string",
						Description: "Grouping key, e.g. \"ops\" or \"billing\" (default \"agent\")",
					},
				},
				Required: []string{"content"},
			},
		},
		Run: func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
			var req struct {
				Content   string `mapstructure:"content"`
				Namespace string `mapstructure:"namespace"`
			}
			if err := mapstructure.WeakDecode(args, &req); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if req.Namespace == "" {
				req.Namespace = "agent"
			}
			id, err := deps.Memory.Store(ctx, req.Namespace, req.Content)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("stored as %s", id), nil
		},
	})

	r.MustRegister(&Tool{
		Definition: provider.ToolDefinition{
			Name:        "memory_recall",
			Description: "Search previously stored memories by substring.",
			Parameters: &provider.Schema{
				Type: "object",
				Properties: map[string]provider.Schema{
					"query": {
						Type:        "string",
						Description: "Substring to search for",
					},
					"namespace": {
						Type:        "string",
						Description: "Restrict the search to one namespace",
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum entries to return (default 5)",
					},
				},
				Required: []string{"query"},
			},
		},
		Run: func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
			var req struct {
				Query     string `mapstructure:"query"`
				Namespace string `mapstructure:"namespace"`
				Limit     int    `mapstructure:"limit"`
			}
			if err := mapstructure.WeakDecode(args, &req); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if req.Limit <= 0 {
				req.Limit = 5
			}
			entries, err := deps.Memory.Recall(ctx, req.Query, req.Namespace, req.Limit)
			if err != nil {
				return "", err
			}
			if len(entries) == 0 {
				return "no matching memories", nil
			}
			var b strings.Builder
			for _, e := range entries {
				fmt.Fprintf(&b, "- [%s] %s\n", e.Namespace, e.Content)
			}
			return strings.TrimRight(b.String(), "\n"), nil
		},
	})

	r.MustRegister(&Tool{
		Definition: provider.ToolDefinition{
			Name:        "switch_target",
			Description: "Point all subsequent commands at a different target system.",
			Parameters: &provider.Schema{
				Type: "object",
				Properties: map[string]provider.Schema{
					"target": {
						Type:        "string",
						Description: "Name of the target to switch to",
					},
				},
				Required: []string{"target"},
			},
		},
		Run: func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
			var req struct {
				Target string `mapstructure:"target"`
			}
			if err := mapstructure.WeakDecode(args, &req); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			target, ok := deps.Targets.Lookup(req.Target)
			if !ok {
				return fmt.Sprintf("unknown target %q; available targets:\n%s", req.Target, deps.Targets.Describe()), nil
			}
			sess.Target = target
			deps.Audit.Record(sess.ID, "context_switch", target.Name, nil)
			return fmt.Sprintf("now operating on %s", target.DisplayName), nil
		},
	})

	// Hard blocks: present in the catalog so the model gets a stable refusal
	// instead of hallucinating around a missing tool.
	for _, blocked := range []struct{ name, desc string }{
		{"run_shell", "Run a raw shell command line. Not available to the autonomous loop."},
		{"deploy", "Deploy the active target. Not available to the autonomous loop."},
	} {
		r.MustRegister(&Tool{
			Definition: provider.ToolDefinition{
				Name:        blocked.name,
				Description: blocked.desc,
				Parameters:  &provider.Schema{Type: "object"},
			},
			Run: func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
				return shellRefusal, nil
			},
		})
	}
}
