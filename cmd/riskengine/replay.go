package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"strategos-hq/riskengine/pkg/cli"
	"strategos-hq/riskengine/pkg/replay"
)

func newReplayCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <audit-id>",
		Short: "Re-execute an audited run and compare it with the stored result",
		Long: `Re-execute the run recorded by an audit log entry against the model version it
used and compare the result with the stored payload. The command exits with
status 5 when the replay does not match.

Examples:
  riskengine replay --tenant acme 3f1c2a7e-...
  riskengine replay session --tenant acme 9b2e...
  riskengine replay verify --window 24h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := g.tenantID()
			if err != nil {
				return err
			}
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer env.store.Close()

			engine, err := newReplayEngine(env)
			if err != nil {
				return err
			}
			res, err := engine.Replay(cmd.Context(), tenant, args[0])
			if err != nil {
				return cli.NewCommandError("replay", err)
			}

			if err := env.printer.Print(replayReport{res}); err != nil {
				return err
			}
			if res.ReplayError != "" {
				return cli.NewCommandError("replay", fmt.Errorf("audit log %s: %s", res.AuditLogID, res.ReplayError))
			}
			if !res.Match {
				return fmt.Errorf("audit log %s: %w", res.AuditLogID, cli.ErrReplayDrift)
			}
			return nil
		},
	}

	cmd.AddCommand(newReplaySessionCmd(g), newReplayVerifyCmd(g))
	return cmd
}

func newReplayEngine(env *commandEnv) (*replay.Engine, error) {
	evaluator, err := newEvaluator(env.cfg)
	if err != nil {
		return nil, cli.NewConfigError("engine", err.Error())
	}
	return replay.NewEngine(env.store, evaluator, nil), nil
}

func newReplaySessionCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session <session-id>",
		Short: "Print the audit trail of a transformation session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := g.tenantID()
			if err != nil {
				return err
			}
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer env.store.Close()

			engine, err := newReplayEngine(env)
			if err != nil {
				return err
			}
			events, err := engine.Session(cmd.Context(), tenant, args[0])
			if err != nil {
				return cli.NewCommandError("replay session", err)
			}
			return env.printer.Print(sessionEventsTable{events})
		},
	}
}

type verifyOptions struct {
	window    time.Duration
	batchSize int
}

func newReplayVerifyCmd(g *globalOptions) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay recent audit entries of every tenant once",
		Long: `Run one verification sweep: replay the audit entries created within the
window, oldest first, and report every run that no longer reproduces. This is
the sweep serve runs on replay.verification_schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer env.store.Close()

			engine, err := newReplayEngine(env)
			if err != nil {
				return err
			}

			vc := replay.VerifierConfig{
				Window:    env.cfg.Replay.VerificationWindow,
				BatchSize: env.cfg.Replay.VerificationBatchSize,
			}
			if opts.window > 0 {
				vc.Window = opts.window
			}
			if opts.batchSize > 0 {
				vc.BatchSize = opts.batchSize
			}

			report, err := replay.NewVerifier(engine, vc, nil).Sweep(cmd.Context())
			if err != nil {
				return cli.NewCommandError("replay verify", err)
			}
			if err := env.printer.Print(sweepReport{report}); err != nil {
				return err
			}
			if report.Mismatched > 0 {
				return fmt.Errorf("%d of %d runs: %w", report.Mismatched, report.Checked, cli.ErrReplayDrift)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&opts.window, "window", 0, "how far back to look (default replay.verification_window)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "maximum entries to replay (default replay.verification_batch_size)")
	return cmd
}

type replayReport struct {
	*replay.Result
}

func (r replayReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Audit log:       %s (%s)\n", r.AuditLogID, r.CreatedAt.Format(time.RFC3339))
	if r.ReplayError != "" {
		fmt.Fprintf(&sb, "Replay failed:   %s", r.ReplayError)
		return sb.String()
	}
	fmt.Fprintf(&sb, "Match:           %t\n", r.Match)
	fmt.Fprintf(&sb, "Byte identical:  %t", r.ByteIdentical)
	for _, m := range r.Mismatches {
		fmt.Fprintf(&sb, "\n  %s: stored %v, replayed %v", m.Field, m.Stored, m.Replayed)
	}
	return sb.String()
}

type sessionEventsTable struct {
	*replay.SessionEvents
}

func (t sessionEventsTable) Header() []string {
	return []string{"VERSION", "AUDIT ID", "ACTION", "ACTOR", "CREATED"}
}

func (t sessionEventsTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.Events))
	for _, e := range t.Events {
		rows = append(rows, []string{
			fmt.Sprint(e.SnapshotVersion),
			e.ID,
			e.Action,
			e.Actor,
			e.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

type sweepReport struct {
	*replay.SweepReport
}

func (r sweepReport) String() string {
	s := fmt.Sprintf("Checked %d, matched %d, mismatched %d, failed %d",
		r.Checked, r.Matched, r.Mismatched, r.Failed)
	for _, id := range r.Mismatches {
		s += "\n  " + id
	}
	return s
}
