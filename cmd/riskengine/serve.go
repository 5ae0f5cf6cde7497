package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"strategos-hq/riskengine/pkg/cli"
	"strategos-hq/riskengine/pkg/config"
	"strategos-hq/riskengine/pkg/pipeline"
	"strategos-hq/riskengine/pkg/replay"
	"strategos-hq/riskengine/pkg/server"
	"strategos-hq/riskengine/pkg/telemetry"
	"strategos-hq/riskengine/pkg/telemetry/health"
)

type serveOptions struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

func newServeCmd(g *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the risk engine API server",
		Long: `Start the HTTP API with the specified configuration.

The server opens the store (applying the schema when storage.auto_migrate is
on), registers the store readiness check, starts the replay verification
schedule when enabled, and watches the configuration file for log level
changes when watch.enabled is set.

Examples:
  # Start with defaults and RISKENGINE_* environment overrides
  riskengine serve

  # Start with a config file and a different listen address
  riskengine serve --config /etc/riskengine/config.yaml --listen :9090

  # Validate config without starting the server
  riskengine serve --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate config without starting the server")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions, opts *serveOptions) error {
	if g.envFile != "" {
		if err := config.LoadDotEnv(g.envFile); err != nil {
			return cli.NewConfigError("env_file", err.Error())
		}
	}
	if err := config.Initialize(g.configFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	if opts.listenAddress != "" {
		cfg.Server.ListenAddress = opts.listenAddress
	}
	if opts.logLevel != "" {
		cfg.Telemetry.Logging.Level = opts.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	out := cmd.OutOrStdout()
	if opts.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	tel, err := telemetry.New(&cfg.Telemetry)
	if err != nil {
		return cli.NewConfigError("telemetry", err.Error())
	}
	logger := tel.Logger()
	slog.SetDefault(logger.Slog())
	config.Subscribe(tel.ApplyReload)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	st, err := openStore(ctx, cfg, false)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer st.Close()
	tel.Health().RegisterCheck("store", health.PingCheck(st))
	fmt.Fprintf(out, "✓ Store ready (%s)\n", st.Backend())

	evaluator, err := newEvaluator(cfg)
	if err != nil {
		return cli.NewConfigError("engine", err.Error())
	}
	replayEngine := replay.NewEngine(st, evaluator, tel.Metrics())

	if cfg.Replay.VerificationEnabled {
		verifier := replay.NewVerifier(replayEngine, replay.VerifierConfig{
			Window:    cfg.Replay.VerificationWindow,
			BatchSize: cfg.Replay.VerificationBatchSize,
		}, tel.Metrics())
		scheduler := replay.NewScheduler(verifier, cfg.Replay.VerificationSchedule)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			logger.Info("replay verification scheduled", "next_run", next)
		}
	}

	if cfg.Watch.Enabled && g.configFile != "" {
		watcher, err := config.NewWatcher(g.configFile, cfg.Watch.Debounce, nil)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
				logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	srv := server.NewServer(cfg, server.Dependencies{
		Store:     st,
		Pipeline:  pipeline.NewService(st, evaluator, tel.Metrics(), logger),
		Replay:    replayEngine,
		Telemetry: tel,
		Version:   health.NewVersionInfo(Version, GitCommit, BuildDate),
	})

	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}
