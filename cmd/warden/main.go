// Package main wires the warden agent together: configuration, storage,
// the command registry behind the safety gate, the tool router, the model
// provider, and the console loop.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"warden/internal/agent"
	"warden/internal/audit"
	"warden/internal/channel"
	"warden/internal/command"
	"warden/internal/config"
	"warden/internal/dispatch"
	"warden/internal/gate"
	"warden/internal/memory"
	providergemini "warden/internal/provider/gemini"
	provider "warden/internal/provider/models"
	provideropenai "warden/internal/provider/openai"
	"warden/internal/router"
	"warden/internal/session"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

func main() {
	root := &cobra.Command{
		Use:           "warden",
		Short:         "Chat-driven remote operations agent",
		Long:          "warden answers operational questions and runs commands against configured targets,\nholding anything destructive behind an explicit confirmation step.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	logger, err := newLogger(cfg.Logging.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	targets, err := session.NewTargetRegistry(cfg.Targets)
	if err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}

	memStore, err := memory.Open(cfg.Storage.MemoryPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	defer memStore.Close()

	trail, err := openAudit(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open audit trail: %w", err)
	}
	defer trail.Close()

	registry := command.NewRegistry()
	command.RegisterBuiltins(registry, command.Deps{
		HTTP:   &http.Client{Timeout: 15 * time.Second},
		Runner: command.OSRunner{},
		Memory: memStore,
	})

	g := gate.New(time.Duration(cfg.Gate.ConfirmTTLSeconds)*time.Second, logger)

	toolRouter := router.New(router.Options{
		MaxResultSize:   cfg.Router.MaxToolResultSize,
		TruncatedSize:   cfg.Router.TruncatedSize,
		ArgsPreviewSize: cfg.Router.ArgsPreviewSize,
		CallTimeout:     time.Duration(cfg.Router.CallTimeoutSeconds) * time.Second,
		Logger:          logger,
	})
	router.RegisterCatalog(toolRouter, router.CatalogDeps{
		Registry: registry,
		Gate:     g,
		Memory:   memStore,
		Audit:    trail,
		Targets:  targets,
		Logger:   logger,
	})

	p, err := buildProvider(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("provider ready",
		zap.String("backend", cfg.Provider.Backend),
		zap.String("model", p.Model()))

	controller := agent.New(p, toolRouter, agent.Options{
		MaxIterations: cfg.Agent.MaxIterations,
		CallTimeout:   time.Duration(cfg.Agent.CallTimeoutSeconds) * time.Second,
		Logger:        logger,
	})

	sessions := session.NewStore(targets, cfg.Agent.HistoryCap)

	console := channel.NewConsole(os.Stdout, channel.ConsoleOptions{
		MessageLimit: cfg.Channel.MessageLimit,
		ChunkSize:    cfg.Channel.ChunkSize,
	})

	dispatcher := dispatch.New(dispatch.Options{
		Registry: registry,
		Gate:     g,
		Agent:    controller,
		Sessions: sessions,
		Audit:    trail,
		Channel:  console,
		Logger:   logger,
	})

	return repl(ctx, dispatcher, targets)
}

// repl reads operator input line by line until EOF or interrupt.
func repl(ctx context.Context, dispatcher *dispatch.Dispatcher, targets *session.TargetRegistry) error {
	sessionID := uuid.NewString()

	fmt.Printf("warden ready. Active target: %s. Send \"help\" for commands.\n",
		targets.Default().DisplayName)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		default:
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" || strings.TrimSpace(line) == "quit" {
			return nil
		}

		if err := dispatcher.Handle(ctx, sessionID, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// buildProvider selects and constructs the model backend from config.
func buildProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider.Backend {
	case "", "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		client, err := providergemini.NewRealGeminiClient(ctx, apiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		model := cfg.Provider.Model
		if model == "" {
			model = defaultGeminiModel
		}
		return providergemini.New(client, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		client := provideropenai.NewRealOpenAIClient(apiKey, cfg.Provider.BaseURL)
		model := cfg.Provider.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		return provideropenai.New(client, model), nil

	default:
		return nil, fmt.Errorf("unknown provider backend %q (want \"gemini\" or \"openai\")", cfg.Provider.Backend)
	}
}

// newLogger builds the process logger. Debug mode switches to development
// output with per-call levels lowered.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	return logCfg.Build()
}

// openAudit opens the audit trail, sharing the memory database file when no
// separate path is configured.
func openAudit(cfg *config.Config, logger *zap.Logger) (*audit.Trail, error) {
	path := cfg.Storage.AuditPath
	if path == "" {
		path = cfg.Storage.MemoryPath
	}
	return audit.Open(path, logger)
}
