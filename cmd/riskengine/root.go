package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"strategos-hq/riskengine/pkg/cli"
	"strategos-hq/riskengine/pkg/config"
	"strategos-hq/riskengine/pkg/pipeline"
	"strategos-hq/riskengine/pkg/scoring"
	"strategos-hq/riskengine/pkg/store"
	"strategos-hq/riskengine/pkg/telemetry/logging"
)

// TenantEnv names the environment variable used when --tenant is not given.
const TenantEnv = config.EnvPrefix + "TENANT"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	envFile    string
	tenant     string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "riskengine",
		Short: "Deterministic transformation risk scoring engine",
		Long: `Riskengine scores transformation initiatives against tenant-configured risk
models. Every run evaluates rules and coefficients, classifies the total score
into a risk state, selects restructuring directives, and is recorded in an
append-only audit log that can be replayed and verified later.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file path (defaults plus RISKENGINE_* environment when empty)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	flags.StringVarP(&opts.tenant, "tenant", "t", "", "tenant id (default $"+TenantEnv+")")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text, json")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newRunCmd(opts),
		newReplayCmd(opts),
		newModelsCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

// loadConfig reads the dotenv file and the configuration with environment
// overrides applied.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		if err := config.LoadDotEnv(o.envFile); err != nil {
			return nil, cli.NewConfigError("env_file", err.Error())
		}
	}
	cfg, err := config.LoadConfigWithEnvOverrides(o.configFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}

func (o *globalOptions) tenantID() (string, error) {
	tenant := o.tenant
	if tenant == "" {
		tenant = os.Getenv(TenantEnv)
	}
	if tenant == "" {
		return "", cli.NewConfigError("tenant", "--tenant or $"+TenantEnv+" is required")
	}
	return tenant, nil
}

func (o *globalOptions) printer(cmd *cobra.Command) (*cli.Printer, error) {
	format, err := cli.ParseFormat(o.output)
	if err != nil {
		return nil, err
	}
	return cli.NewPrinter(cmd.OutOrStdout(), format), nil
}

// setupLogging installs the configured logger as the slog default. One-off
// commands log to w so their stdout stays parseable.
func setupLogging(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging)
	lc.Writer = w
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())
	return logger, nil
}

func storeConfig(c config.StorageConfig) *store.Config {
	return &store.Config{
		Driver:            c.Driver,
		DSN:               c.DSN,
		MaxOpenConns:      c.MaxOpenConns,
		MaxIdleConns:      c.MaxIdleConns,
		WALMode:           c.WALMode,
		BusyTimeout:       c.BusyTimeout,
		PersistMaxRetries: c.PersistMaxRetries,
		RetryBackoff:      c.RetryBackoff,
	}
}

// openStore opens the configured store, applying the schema when migrate is
// set or storage.auto_migrate is on.
func openStore(ctx context.Context, cfg *config.Config, migrate bool) (*store.Store, error) {
	st, err := store.Open(ctx, storeConfig(cfg.Storage))
	if err != nil {
		return nil, err
	}
	if migrate || cfg.Storage.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

func newEvaluator(cfg *config.Config) (*pipeline.Evaluator, error) {
	engine, err := scoring.New(&scoring.Config{
		Parallelism:      cfg.Engine.Parallelism,
		ProgramCacheSize: cfg.Engine.ProgramCacheSize,
	}, slog.Default())
	if err != nil {
		return nil, err
	}
	return pipeline.NewEvaluator(engine), nil
}

// commandEnv is what the one-off commands share: configuration, logging and
// an open store.
type commandEnv struct {
	cfg     *config.Config
	store   *store.Store
	printer *cli.Printer
}

func (o *globalOptions) setup(cmd *cobra.Command) (*commandEnv, error) {
	printer, err := o.printer(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := setupLogging(cfg, cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	st, err := openStore(cmd.Context(), cfg, false)
	if err != nil {
		return nil, cli.NewCommandError(cmd.Name(), err)
	}
	return &commandEnv{cfg: cfg, store: st, printer: printer}, nil
}
