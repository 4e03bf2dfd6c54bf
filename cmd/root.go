package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"ghost/internal/approval"
	"ghost/internal/llm"
	"ghost/internal/logging"
	"ghost/internal/metrics"
	"ghost/internal/storage"
	"ghost/internal/tools"
	"ghost/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	prompt  string
	cfgFile string
	autoYes bool
	verbose bool

	cfg    Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ghost [prompt]",
	Short: "Ghost is a tool-using assistant for your terminal.",
	Long: `Ghost chats with a language model that can read and write files, browse
the web and inspect an attached process. Changes to your files always ask for
confirmation first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(logging.Config{Level: cfg.Log.Level, Verbose: verbose, File: cfg.Log.File})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		currentPrompt := prompt
		if currentPrompt == "" && len(args) > 0 {
			currentPrompt = strings.Join(args, " ")
		}

		if currentPrompt != "" {
			// If a prompt is given, run a single turn and exit.
			return runOnce(ctx, currentPrompt)
		}
		// If no prompt is given, launch the interactive TUI.
		return runTUI(ctx)
	},
}

// buildOrchestrator wires the endpoint, tool catalog and approval gate.
func buildOrchestrator(approver approval.Approver, opts ...llm.Option) (*llm.Orchestrator, error) {
	if err := cfg.requireAPIKey(); err != nil {
		return nil, err
	}
	endpoint, err := llm.NewCompleter(cfg.providerConfig())
	if err != nil {
		return nil, err
	}

	registry := tools.NewCatalog(tools.CatalogConfig{
		HTTPClient:    &http.Client{Timeout: cfg.FetchTimeout},
		SerperAPIKey:  cfg.SerperAPIKey,
		FetchTimeout:  cfg.FetchTimeout,
		FetchMaxChars: cfg.FetchMaxChars,
		Opener:        tools.SystemOpener,
	})
	gate := approval.NewGate(approval.NewPolicy(cfg.Approval.Extra...), approver, approval.WithLogger(logger))

	base := []llm.Option{
		llm.WithLogger(logger),
		llm.WithModel(cfg.Model),
		llm.WithHistoryLimit(cfg.HistoryLimit),
		llm.WithPersona(cfg.SystemPrompt),
	}
	if cfg.AutoFollowUp {
		base = append(base, llm.WithAutoFollowUp(cfg.MaxFollowUps))
	}
	if cfg.Attach.PID > 0 {
		proc, err := tools.LookupProcess(cfg.Attach.PID)
		if err != nil {
			logger.Warn("cannot attach process", zap.Int("pid", cfg.Attach.PID), zap.Error(err))
		} else {
			base = append(base, llm.WithAttachedProcess(proc))
		}
	}

	return llm.New(endpoint, registry, gate, append(base, opts...)...)
}

// runOnce handles the one-off command mode.
func runOnce(ctx context.Context, text string) error {
	var approver approval.Approver = approval.NewTerminalApprover(os.Stdin, os.Stderr)
	if autoYes {
		approver = approval.Always(true)
	}

	// A single turn has no later chance to summarise tool output, so always follow up.
	orch, err := buildOrchestrator(approver,
		llm.WithAutoFollowUp(max(cfg.MaxFollowUps, 1)),
		llm.WithNoticeHandler(func(notice string) {
			fmt.Fprintln(os.Stderr, notice)
		}),
	)
	if err != nil {
		return err
	}

	fmt.Println("You:", text)
	res, err := orch.Send(ctx, text)
	if err != nil {
		return err
	}
	for _, m := range res.Messages {
		if m.Sender == llm.SenderAssistant {
			fmt.Printf("Ghost: %s\n", m.Content)
		}
	}
	if res.Err != nil {
		return fmt.Errorf("error calling LLM API: %w", res.Err)
	}
	return nil
}

// runTUI handles the interactive session mode.
func runTUI(ctx context.Context) error {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Dir)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)

	bridge := tui.NewBridge()
	orch, err := buildOrchestrator(bridge,
		llm.WithNoticeHandler(bridge.Notify),
		llm.WithRecorder(recorder),
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, cfg.Metrics.Addr, reg, logger)
		})
	}
	g.Go(func() error {
		defer cancel()
		program := tea.NewProgram(tui.NewModel(ctx, orch, store, bridge), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running program: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.ghost.yaml or $HOME/.ghost.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt for a one-off question. If empty, starts interactive TUI mode.")
	rootCmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "approve every tool call without asking (one-off mode only)")
}
