package router

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"warden/internal/audit"
	"warden/internal/command"
	"warden/internal/config"
	"warden/internal/gate"
	"warden/internal/memory"
	provider "warden/internal/provider/models"
	"warden/internal/session"
)

type fixture struct {
	router   *Router
	sessions *session.Store
	gate     *gate.Gate
	psCalls  []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	targets, err := session.NewTargetRegistry([]config.TargetConfig{
		{Name: "staging", DisplayName: "Staging"},
		{Name: "prod", DisplayName: "Production"},
	})
	require.NoError(t, err)

	store, err := memory.Open(filepath.Join(t.TempDir(), "mem.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		sessions: session.NewStore(targets, 40),
		gate:     gate.New(5*time.Minute, zap.NewNop()),
	}

	reg := command.NewRegistry()
	reg.MustRegister(&command.Descriptor{
		Name: "health",
		Run: func(ctx context.Context, args string, ec command.ExecContext) command.Result {
			return command.Result{Success: true, Output: "Staging is healthy (HTTP 200)"}
		},
	})
	reg.MustRegister(&command.Descriptor{
		Name: "logs",
		Run: func(ctx context.Context, args string, ec command.ExecContext) command.Result {
			return command.Result{Success: true, Output: "log lines for " + args}
		},
	})
	reg.MustRegister(&command.Descriptor{
		Name: command.NameProcess,
		Run: func(ctx context.Context, args string, ec command.ExecContext) command.Result {
			f.psCalls = append(f.psCalls, args)
			return command.Result{Success: true, Output: "ps: " + args}
		},
	})
	reg.MustRegister(&command.Descriptor{
		Name: "fetch",
		Run: func(ctx context.Context, args string, ec command.ExecContext) command.Result {
			return command.Result{Success: true, Output: "fetched " + args}
		},
	})

	f.router = New(Options{
		MaxResultSize:   8000,
		TruncatedSize:   7900,
		ArgsPreviewSize: 200,
		CallTimeout:     15 * time.Second,
		Logger:          zap.NewNop(),
	})
	RegisterCatalog(f.router, CatalogDeps{
		Registry: reg,
		Gate:     f.gate,
		Memory:   store,
		Audit:    audit.Nop{},
		Targets:  targets,
		Logger:   zap.NewNop(),
	})
	return f
}

func TestRoute_UnknownTool(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Get("chat-1")

	out := f.router.Route(context.Background(), sess, "no_such_tool", "{}")

	assert.Contains(t, out, "unknown tool")
	assert.Contains(t, out, "no_such_tool")
}

func TestRoute_MalformedArguments(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Get("chat-1")

	out := f.router.Route(context.Background(), sess, "read_logs", `{"lines": `)

	assert.Contains(t, out, "invalid arguments")
}

func TestRoute_SafePassThroughExecutes(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Get("chat-1")

	out := f.router.Route(context.Background(), sess, "get_health", "{}")

	assert.Contains(t, out, "healthy")
}

func TestRoute_ProcessManagerSubActions(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Get("chat-1")

	// Safe sub-action executes directly.
	out := f.router.Route(context.Background(), sess, "manage_process", `{"action": "list"}`)
	assert.Contains(t, out, "ps: list")
	assert.Equal(t, []string{"list"}, f.psCalls)

	// Dangerous sub-action is queued, not executed.
	out = f.router.Route(context.Background(), sess, "manage_process", `{"action": "restart", "unit": "nginx"}`)
	assert.Contains(t, out, "confirm")
	assert.Equal(t, []string{"list"}, f.psCalls, "restart must not execute without confirmation")

	p, ok := f.gate.PendingFor("chat-1")
	require.True(t, ok)
	assert.Equal(t, "restart nginx", p.Args)
}

func TestRoute_HardBlockedTools(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Get("chat-1")

	for _, name := range []string{"run_shell", "deploy"} {
		out := f.router.Route(context.Background(), sess, name, `{}`)
		assert.Contains(t, out, "not available to the autonomous loop", name)
	}
	_, pending := f.gate.PendingFor("chat-1")
	assert.False(t, pending, "hard blocks must not queue confirmations")
}

func TestRoute_MemoryRoundTrip(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Get("chat-1")

	out := f.router.Route(context.Background(), sess, "memory_store", `{"content": "api-1 crashed at noon", "namespace": "ops"}`)
	assert.Contains(t, out, "stored as")

	out = f.router.Route(context.Background(), sess, "memory_recall", `{"query": "crashed"}`)
	assert.Contains(t, out, "api-1 crashed at noon")
	assert.Contains(t, out, "[ops]")
}

func TestRoute_SwitchTarget(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Get("chat-1")
	require.Equal(t, "staging", sess.Target.Name)

	out := f.router.Route(context.Background(), sess, "switch_target", `{"target": "prod"}`)

	assert.Contains(t, out, "Production")
	assert.Equal(t, "prod", sess.Target.Name)

	// Other sessions are unaffected.
	other := f.sessions.Get("chat-2")
	assert.Equal(t, "staging", other.Target.Name)
}

func TestRoute_SwitchTargetUnknown(t *testing.T) {
	f := newFixture(t)
	sess := f.sessions.Get("chat-1")

	out := f.router.Route(context.Background(), sess, "switch_target", `{"target": "mars"}`)

	assert.Contains(t, out, "unknown target")
	assert.Equal(t, "staging", sess.Target.Name)
}

func TestRoute_ToolErrorBecomesText(t *testing.T) {
	f := newFixture(t)
	f.router.MustRegister(&Tool{
		Definition: provider.ToolDefinition{Name: "broken", Parameters: &provider.Schema{Type: "object"}},
		Run: func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
			return "", errors.New("backend unreachable")
		},
	})
	sess := f.sessions.Get("chat-1")

	out := f.router.Route(context.Background(), sess, "broken", "{}")

	assert.Contains(t, out, "broken failed")
	assert.Contains(t, out, "backend unreachable")
}

func TestRoute_LongResultIsTruncated(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("x", 20000)
	f.router.MustRegister(&Tool{
		Definition: provider.ToolDefinition{Name: "chatty", Parameters: &provider.Schema{Type: "object"}},
		Run: func(ctx context.Context, sess *session.Session, args map[string]any) (string, error) {
			return long, nil
		},
	})
	sess := f.sessions.Get("chat-1")

	out := f.router.Route(context.Background(), sess, "chatty", "{}")

	assert.Less(t, len(out), 8000)
	assert.True(t, strings.HasSuffix(out, TruncationMarker))
}

func TestDefinitions_ContainsCatalog(t *testing.T) {
	f := newFixture(t)

	defs := f.router.Definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}

	for _, want := range []string{
		"get_health", "read_logs", "manage_process", "fetch_url",
		"memory_store", "memory_recall", "switch_target", "run_shell", "deploy",
	} {
		assert.Contains(t, names, want)
	}
}
