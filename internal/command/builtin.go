package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"

	"warden/internal/memory"
)

// Payments is the money-movement collaborator. The real integration lives
// outside this core; Unconfigured is used when none is wired.
type Payments interface {
	Charge(ctx context.Context, args string) (string, error)
}

// Unconfigured is a Payments implementation that refuses every charge.
type Unconfigured struct{}

func (Unconfigured) Charge(ctx context.Context, args string) (string, error) {
	return "", fmt.Errorf("payments are not configured")
}

// Deps holds the collaborators the built-in commands execute against.
type Deps struct {
	HTTP     *http.Client
	Runner   Runner
	Memory   *memory.Store
	Payments Payments
}

// maxFetchBody bounds how much of a fetched page is returned.
const maxFetchBody = 64 * 1024

// RegisterBuiltins registers the standard command set on the registry.
func RegisterBuiltins(reg *Registry, deps Deps) {
	if deps.Payments == nil {
		deps.Payments = Unconfigured{}
	}

	reg.MustRegister(&Descriptor{
		Name:        "help",
		Description: "List available commands",
		Run: func(ctx context.Context, args string, ec ExecContext) Result {
			return Result{Success: true, Output: reg.Help()}
		},
	})

	reg.MustRegister(&Descriptor{
		Name:        "health",
		Aliases:     []string{"status"},
		Description: "Check the active target's health endpoint",
		Run:         healthCommand(deps.HTTP),
	})

	reg.MustRegister(&Descriptor{
		Name:        "logs",
		Aliases:     []string{"log"},
		Usage:       "[lines]",
		Description: "Show the tail of the active target's log",
		Run:         logsCommand,
	})

	reg.MustRegister(&Descriptor{
		Name:        NameProcess,
		Aliases:     []string{"proc"},
		Usage:       "<list|status|restart|stop|start|reload> [unit]",
		Description: "Manage the active target's service",
		Run:         processCommand(deps.Runner),
	})

	reg.MustRegister(&Descriptor{
		Name:        NameShell,
		Aliases:     []string{"run", "shell"},
		Usage:       "<command line>",
		Description: "Run a shell command line on this host",
		Run:         shellCommand(deps.Runner),
	})

	reg.MustRegister(&Descriptor{
		Name:        "deploy",
		Usage:       "",
		Description: "Run the active target's deploy command",
		Dangerous:   true,
		Run:         deployCommand(deps.Runner),
	})

	reg.MustRegister(&Descriptor{
		Name:        "version",
		Aliases:     []string{"rev"},
		Description: "Show the active target's checked-out revision",
		Run:         versionCommand,
	})

	reg.MustRegister(&Descriptor{
		Name:        "fetch",
		Usage:       "<url>",
		Description: "Fetch a URL and return the response body",
		Run:         fetchCommand(deps.HTTP),
	})

	reg.MustRegister(&Descriptor{
		Name:        "use",
		Aliases:     []string{"target"},
		Usage:       "<target>",
		Description: "Switch the active target",
		Run:         useCommand,
	})

	reg.MustRegister(&Descriptor{
		Name:        "remember",
		Usage:       "<note>",
		Description: "Store a note in memory",
		Run:         rememberCommand(deps.Memory),
	})

	reg.MustRegister(&Descriptor{
		Name:        "recall",
		Usage:       "<query>",
		Description: "Recall notes from memory",
		Run:         recallCommand(deps.Memory),
	})

	reg.MustRegister(&Descriptor{
		Name:        "pay",
		Aliases:     []string{"charge"},
		Usage:       "<amount> <recipient>",
		Description: "Send a payment",
		Dangerous:   true,
		Run: func(ctx context.Context, args string, ec ExecContext) Result {
			out, err := deps.Payments.Charge(ctx, args)
			if err != nil {
				return Result{Success: false, Output: fmt.Sprintf("payment failed: %v", err)}
			}
			return Result{Success: true, Output: out}
		},
	})
}

func healthCommand(client *http.Client) Func {
	return func(ctx context.Context, args string, ec ExecContext) Result {
		target := ec.Session.Target
		if target.HealthURL == "" {
			return Result{Success: false, Output: fmt.Sprintf("%s has no health endpoint configured", target.DisplayName)}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.HealthURL, nil)
		if err != nil {
			return Result{Success: false, Output: fmt.Sprintf("bad health URL: %v", err)}
		}
		resp, err := client.Do(req)
		if err != nil {
			return Result{Success: false, Output: fmt.Sprintf("%s is unreachable: %v", target.DisplayName, err)}
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
		status := "healthy"
		ok := resp.StatusCode >= 200 && resp.StatusCode < 300
		if !ok {
			status = "unhealthy"
		}
		return Result{
			Success: ok,
			Output:  fmt.Sprintf("%s is %s (HTTP %d)\n%s", target.DisplayName, status, resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
}

func logsCommand(ctx context.Context, args string, ec ExecContext) Result {
	target := ec.Session.Target
	if target.LogPath == "" {
		return Result{Success: false, Output: fmt.Sprintf("%s has no log path configured", target.DisplayName)}
	}

	lines := 50
	if args != "" {
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil || n < 1 {
			return Result{Success: false, Output: fmt.Sprintf("invalid line count %q", args)}
		}
		lines = n
	}

	out, err := tailFile(target.LogPath, lines)
	if err != nil {
		return Result{Success: false, Output: fmt.Sprintf("failed to read log: %v", err)}
	}
	return Result{Success: true, Output: out}
}

// tailFile returns the last n lines of the file at path.
func tailFile(path string, n int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return "(log is empty)", nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n"), nil
}

func processCommand(runner Runner) Func {
	return func(ctx context.Context, args string, ec ExecContext) Result {
		target := ec.Session.Target
		action, unit := splitAction(args)
		if unit == "" {
			unit = target.ServiceUnit
		}

		switch action {
		case "list":
			out, err := runner.Run(ctx, "systemctl", "list-units", "--type=service", "--no-pager")
			return runResult(out, err)
		case "status":
			if unit == "" {
				return Result{Success: false, Output: "no service unit given or configured for this target"}
			}
			out, err := runner.Run(ctx, "systemctl", "status", unit, "--no-pager")
			return runResult(out, err)
		case "restart", "stop", "start", "reload":
			if unit == "" {
				return Result{Success: false, Output: "no service unit given or configured for this target"}
			}
			out, err := runner.Run(ctx, "systemctl", action, unit)
			if err != nil {
				return runResult(out, err)
			}
			if out == "" {
				out = fmt.Sprintf("%s: %s done", unit, action)
			}
			return Result{Success: true, Output: out}
		case "":
			return Result{Success: false, Output: "usage: ps <list|status|restart|stop|start|reload> [unit]"}
		default:
			return Result{Success: false, Output: fmt.Sprintf("unknown action %q", action)}
		}
	}
}

// splitAction splits "restart nginx" into its action and unit parts.
func splitAction(args string) (action, unit string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", ""
	}
	action = strings.ToLower(fields[0])
	if len(fields) > 1 {
		unit = fields[1]
	}
	return action, unit
}

func shellCommand(runner Runner) Func {
	return func(ctx context.Context, args string, ec ExecContext) Result {
		line := strings.TrimSpace(args)
		if line == "" {
			return Result{Success: false, Output: "usage: sh <command line>"}
		}
		out, err := runner.Run(ctx, "sh", "-c", line)
		return runResult(out, err)
	}
}

func deployCommand(runner Runner) Func {
	return func(ctx context.Context, args string, ec ExecContext) Result {
		target := ec.Session.Target
		if len(target.DeployCommand) == 0 {
			return Result{Success: false, Output: fmt.Sprintf("%s has no deploy command configured", target.DisplayName)}
		}
		out, err := runner.Run(ctx, target.DeployCommand[0], target.DeployCommand[1:]...)
		if err != nil {
			return runResult(out, err)
		}
		if out == "" {
			out = "deploy completed"
		}
		return Result{Success: true, Output: out}
	}
}

func versionCommand(ctx context.Context, args string, ec ExecContext) Result {
	target := ec.Session.Target
	if target.RepoPath == "" {
		return Result{Success: false, Output: fmt.Sprintf("%s has no repository path configured", target.DisplayName)}
	}

	repo, err := git.PlainOpen(target.RepoPath)
	if err != nil {
		return Result{Success: false, Output: fmt.Sprintf("failed to open repository: %v", err)}
	}
	head, err := repo.Head()
	if err != nil {
		return Result{Success: false, Output: fmt.Sprintf("failed to read HEAD: %v", err)}
	}

	ref := head.Name().Short()
	hash := head.Hash().String()
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return Result{Success: true, Output: fmt.Sprintf("%s is at %s (%s)", target.DisplayName, hash, ref)}
}

func fetchCommand(client *http.Client) Func {
	return func(ctx context.Context, args string, ec ExecContext) Result {
		url := strings.TrimSpace(args)
		if url == "" {
			return Result{Success: false, Output: "usage: fetch <url>"}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Result{Success: false, Output: fmt.Sprintf("bad URL: %v", err)}
		}
		resp, err := client.Do(req)
		if err != nil {
			return Result{Success: false, Output: fmt.Sprintf("fetch failed: %v", err)}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody))
		if err != nil {
			return Result{Success: false, Output: fmt.Sprintf("failed to read response: %v", err)}
		}
		return Result{
			Success: resp.StatusCode >= 200 && resp.StatusCode < 300,
			Output:  fmt.Sprintf("HTTP %d\n%s", resp.StatusCode, string(body)),
		}
	}
}

func useCommand(ctx context.Context, args string, ec ExecContext) Result {
	sess := ec.Session
	name := strings.TrimSpace(args)
	if name == "" {
		return Result{Success: true, Output: fmt.Sprintf("Active target: %s\nAvailable:\n%s",
			sess.Target.DisplayName, ec.Targets.Describe())}
	}

	target, ok := ec.Targets.Lookup(name)
	if !ok {
		return Result{Success: false, Output: fmt.Sprintf("unknown target %q\nAvailable:\n%s", name, ec.Targets.Describe())}
	}
	sess.Target = target
	return Result{Success: true, Output: fmt.Sprintf("Now operating on %s", target.DisplayName)}
}

func rememberCommand(store *memory.Store) Func {
	return func(ctx context.Context, args string, ec ExecContext) Result {
		note := strings.TrimSpace(args)
		if note == "" {
			return Result{Success: false, Output: "usage: remember <note>"}
		}
		id, err := store.Store(ctx, "operator", note)
		if err != nil {
			return Result{Success: false, Output: fmt.Sprintf("failed to store note: %v", err)}
		}
		return Result{Success: true, Output: fmt.Sprintf("Noted (%s)", id)}
	}
}

func recallCommand(store *memory.Store) Func {
	return func(ctx context.Context, args string, ec ExecContext) Result {
		query := strings.TrimSpace(args)
		entries, err := store.Recall(ctx, query, "", 5)
		if err != nil {
			return Result{Success: false, Output: fmt.Sprintf("recall failed: %v", err)}
		}
		if len(entries) == 0 {
			return Result{Success: true, Output: "Nothing matched."}
		}
		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s (%s)\n", e.Content, e.CreatedAt.Format("2006-01-02"))
		}
		return Result{Success: true, Output: strings.TrimRight(b.String(), "\n")}
	}
}

func runResult(out string, err error) Result {
	if err != nil {
		msg := err.Error()
		if out != "" {
			msg = out + "\n" + msg
		}
		return Result{Success: false, Output: msg}
	}
	return Result{Success: true, Output: out}
}
