package command

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"warden/internal/config"
	"warden/internal/session"
)

// MockRunner records invocations and returns canned output.
type MockRunner struct {
	RunFunc func(ctx context.Context, name string, args ...string) (string, error)
	Calls   [][]string
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	m.Calls = append(m.Calls, append([]string{name}, args...))
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return "", nil
}

func testExecContext(t *testing.T, target *session.Target) ExecContext {
	t.Helper()

	targets, err := session.NewTargetRegistry([]config.TargetConfig{
		{Name: "staging", DisplayName: "Staging"},
		{Name: "prod", DisplayName: "Production"},
	})
	require.NoError(t, err)

	if target == nil {
		target = targets.Default()
	}

	return ExecContext{
		Session: &session.Session{ID: "s1", Target: target},
		Targets: targets,
		Logger:  zap.NewNop(),
	}
}

func registerTestBuiltins(t *testing.T, deps Deps) *Registry {
	t.Helper()
	if deps.HTTP == nil {
		deps.HTTP = http.DefaultClient
	}
	if deps.Runner == nil {
		deps.Runner = &MockRunner{}
	}
	reg := NewRegistry()
	RegisterBuiltins(reg, deps)
	return reg
}

func mustLookup(t *testing.T, reg *Registry, name string) *Descriptor {
	t.Helper()
	d, ok := reg.Lookup(name)
	require.True(t, ok, "command %q not registered", name)
	return d
}

func TestHealthCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	reg := registerTestBuiltins(t, Deps{HTTP: server.Client()})
	ec := testExecContext(t, &session.Target{Name: "staging", DisplayName: "Staging", HealthURL: server.URL})

	res := mustLookup(t, reg, "health").Execute(context.Background(), "", ec)

	assert.True(t, res.Success)
	assert.Contains(t, res.Output, "Staging is healthy (HTTP 200)")
	assert.Contains(t, res.Output, `"status":"ok"`)
}

func TestHealthCommand_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	reg := registerTestBuiltins(t, Deps{HTTP: server.Client()})
	ec := testExecContext(t, &session.Target{Name: "staging", DisplayName: "Staging", HealthURL: server.URL})

	res := mustLookup(t, reg, "health").Execute(context.Background(), "", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "unhealthy (HTTP 503)")
}

func TestHealthCommand_NoEndpointConfigured(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "health").Execute(context.Background(), "", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "no health endpoint configured")
}

func TestLogsCommand_TailsFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	var lines []string
	for i := 0; i < 60; i++ {
		lines = append(lines, strings.Repeat("x", 3))
	}
	lines[57] = "marker-line"
	require.NoError(t, os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, &session.Target{Name: "staging", DisplayName: "Staging", LogPath: logPath})

	res := mustLookup(t, reg, "logs").Execute(context.Background(), "5", ec)

	require.True(t, res.Success)
	got := strings.Split(res.Output, "\n")
	assert.Len(t, got, 5)
	assert.Contains(t, res.Output, "marker-line")
}

func TestLogsCommand_InvalidLineCount(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, &session.Target{Name: "staging", DisplayName: "Staging", LogPath: "/tmp/x.log"})

	res := mustLookup(t, reg, "logs").Execute(context.Background(), "many", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, `invalid line count "many"`)
}

func TestTailFile_EmptyLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(logPath, []byte("\n\n"), 0o644))

	out, err := tailFile(logPath, 10)

	require.NoError(t, err)
	assert.Equal(t, "(log is empty)", out)
}

func TestProcessCommand_StatusUsesConfiguredUnit(t *testing.T) {
	runner := &MockRunner{RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
		return "active (running)", nil
	}}
	reg := registerTestBuiltins(t, Deps{Runner: runner})
	ec := testExecContext(t, &session.Target{Name: "staging", DisplayName: "Staging", ServiceUnit: "app.service"})

	res := mustLookup(t, reg, "ps").Execute(context.Background(), "status", ec)

	require.True(t, res.Success)
	require.Len(t, runner.Calls, 1)
	assert.Equal(t, []string{"systemctl", "status", "app.service", "--no-pager"}, runner.Calls[0])
}

func TestProcessCommand_RestartExplicitUnit(t *testing.T) {
	runner := &MockRunner{}
	reg := registerTestBuiltins(t, Deps{Runner: runner})
	ec := testExecContext(t, &session.Target{Name: "staging", DisplayName: "Staging", ServiceUnit: "app.service"})

	res := mustLookup(t, reg, "ps").Execute(context.Background(), "restart nginx", ec)

	require.True(t, res.Success)
	assert.Equal(t, []string{"systemctl", "restart", "nginx"}, runner.Calls[0])
	assert.Equal(t, "nginx: restart done", res.Output)
}

func TestProcessCommand_FailureSurfacesOutput(t *testing.T) {
	runner := &MockRunner{RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
		return "Job for app.service failed", errors.New("exit status 1")
	}}
	reg := registerTestBuiltins(t, Deps{Runner: runner})
	ec := testExecContext(t, &session.Target{Name: "staging", DisplayName: "Staging", ServiceUnit: "app.service"})

	res := mustLookup(t, reg, "ps").Execute(context.Background(), "restart", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "Job for app.service failed")
	assert.Contains(t, res.Output, "exit status 1")
}

func TestProcessCommand_UsageAndUnknownAction(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)
	ps := mustLookup(t, reg, "ps")

	res := ps.Execute(context.Background(), "", ec)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "usage: ps")

	res = ps.Execute(context.Background(), "explode", ec)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, `unknown action "explode"`)
}

func TestSplitAction(t *testing.T) {
	cases := []struct {
		in     string
		action string
		unit   string
	}{
		{"", "", ""},
		{"restart", "restart", ""},
		{"restart nginx", "restart", "nginx"},
		{"  RESTART   nginx  ", "restart", "nginx"},
	}
	for _, tc := range cases {
		action, unit := splitAction(tc.in)
		assert.Equal(t, tc.action, action, "input %q", tc.in)
		assert.Equal(t, tc.unit, unit, "input %q", tc.in)
	}
}

func TestShellCommand(t *testing.T) {
	runner := &MockRunner{RunFunc: func(ctx context.Context, name string, args ...string) (string, error) {
		return "total 4", nil
	}}
	reg := registerTestBuiltins(t, Deps{Runner: runner})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "sh").Execute(context.Background(), "ls -la", ec)

	require.True(t, res.Success)
	assert.Equal(t, []string{"sh", "-c", "ls -la"}, runner.Calls[0])
	assert.Equal(t, "total 4", res.Output)
}

func TestShellCommand_EmptyLine(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "sh").Execute(context.Background(), "   ", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "usage: sh")
}

func TestDeployCommand(t *testing.T) {
	runner := &MockRunner{}
	reg := registerTestBuiltins(t, Deps{Runner: runner})
	ec := testExecContext(t, &session.Target{
		Name:          "staging",
		DisplayName:   "Staging",
		DeployCommand: []string{"make", "-C", "/srv/app", "deploy"},
	})

	res := mustLookup(t, reg, "deploy").Execute(context.Background(), "", ec)

	require.True(t, res.Success)
	assert.Equal(t, []string{"make", "-C", "/srv/app", "deploy"}, runner.Calls[0])
	assert.Equal(t, "deploy completed", res.Output)
}

func TestDeployCommand_NotConfigured(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "deploy").Execute(context.Background(), "", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "no deploy command configured")
}

func TestDeployCommand_IsDangerous(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	assert.True(t, mustLookup(t, reg, "deploy").Dangerous)
	assert.True(t, mustLookup(t, reg, "pay").Dangerous)
	assert.False(t, mustLookup(t, reg, "health").Dangerous)
}

func TestVersionCommand_NotARepository(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, &session.Target{Name: "staging", DisplayName: "Staging", RepoPath: t.TempDir()})

	res := mustLookup(t, reg, "version").Execute(context.Background(), "", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "failed to open repository")
}

func TestFetchCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello from upstream"))
	}))
	defer server.Close()

	reg := registerTestBuiltins(t, Deps{HTTP: server.Client()})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "fetch").Execute(context.Background(), server.URL, ec)

	require.True(t, res.Success)
	assert.Contains(t, res.Output, "HTTP 200")
	assert.Contains(t, res.Output, "hello from upstream")
}

func TestFetchCommand_BoundsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("z", maxFetchBody+500)))
	}))
	defer server.Close()

	reg := registerTestBuiltins(t, Deps{HTTP: server.Client()})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "fetch").Execute(context.Background(), server.URL, ec)

	require.True(t, res.Success)
	assert.LessOrEqual(t, len(res.Output), maxFetchBody+len("HTTP 200\n"))
}

func TestUseCommand_Switches(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "use").Execute(context.Background(), "prod", ec)

	require.True(t, res.Success)
	assert.Contains(t, res.Output, "Now operating on Production")
	assert.Equal(t, "prod", ec.Session.Target.Name)
}

func TestUseCommand_UnknownTarget(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "use").Execute(context.Background(), "moon", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, `unknown target "moon"`)
	assert.Equal(t, "staging", ec.Session.Target.Name)
}

func TestUseCommand_NoArgsShowsTargets(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "use").Execute(context.Background(), "", ec)

	require.True(t, res.Success)
	assert.Contains(t, res.Output, "Active target: Staging")
	assert.Contains(t, res.Output, "prod")
}

func TestPayCommand_UnconfiguredRefuses(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "pay").Execute(context.Background(), "50 alice", ec)

	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "payments are not configured")
}

func TestHelpCommand(t *testing.T) {
	reg := registerTestBuiltins(t, Deps{})
	ec := testExecContext(t, nil)

	res := mustLookup(t, reg, "help").Execute(context.Background(), "", ec)

	require.True(t, res.Success)
	for _, name := range []string{"health", "logs", "ps", "sh", "deploy", "use", "remember", "recall"} {
		assert.Contains(t, res.Output, name)
	}
}
