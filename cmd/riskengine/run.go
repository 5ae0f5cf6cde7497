package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"strategos-hq/riskengine/pkg/cli"
	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/pipeline"
)

type runOptions struct {
	inputFile      string
	set            []string
	modelVersionID string
	sessionID      string
	actor          string
	dryRun         bool
}

func newRunCmd(g *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine once",
		Long: `Evaluate one input vector against a model version, persist the run to the
audit log (and to the session, when given) and print the result.

Input values come from a JSON object (--input, "-" for stdin) and/or
repeated --set name=value flags; --set wins on conflicts.

Examples:
  riskengine run --tenant acme --set revenue=850 --set cost=700 --set margin=0.1
  riskengine run --tenant acme --input metrics.json --session 9b2e...
  echo '{"revenue": 1200}' | riskengine run --tenant acme --input - --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.inputFile, "input", "i", "", `JSON object of input values ("-" reads stdin)`)
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "input value as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.modelVersionID, "model-version", "", "model version id (default: session's, then active)")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "append the run to a transformation session")
	cmd.Flags().StringVar(&opts.actor, "actor", "cli", "actor recorded in the audit log")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "evaluate without persisting")
	return cmd
}

func runOnce(cmd *cobra.Command, g *globalOptions, opts *runOptions) error {
	tenant, err := g.tenantID()
	if err != nil {
		return err
	}
	input, err := readInput(cmd.InOrStdin(), opts.inputFile, opts.set)
	if err != nil {
		return err
	}

	env, err := g.setup(cmd)
	if err != nil {
		return err
	}
	defer env.store.Close()

	evaluator, err := newEvaluator(env.cfg)
	if err != nil {
		return cli.NewConfigError("engine", err.Error())
	}

	svc := pipeline.NewService(env.store, evaluator, nil, nil)
	req := &pipeline.Request{
		TenantID:       tenant,
		ModelVersionID: opts.modelVersionID,
		SessionID:      opts.sessionID,
		Actor:          opts.actor,
		Input:          input,
	}

	if opts.dryRun {
		payload, err := svc.Evaluate(cmd.Context(), req)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		return env.printer.Print(runReport{payload: payload})
	}

	res, err := svc.Execute(cmd.Context(), req)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	if env.printer.Format() == cli.FormatJSON {
		return env.printer.JSON(res)
	}
	return env.printer.Print(runReport{payload: &res.SnapshotPayload, result: res})
}

// readInput merges the JSON input file with --set pairs.
func readInput(stdin io.Reader, file string, pairs []string) (map[string]float64, error) {
	input := make(map[string]float64)

	if file != "" {
		var (
			data []byte
			err  error
		)
		if file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, cli.NewConfigError("input", err.Error())
		}
		if err := json.Unmarshal(data, &input); err != nil {
			return nil, model.NewInvalidInputError("input", fmt.Sprintf("must be a JSON object of numbers: %v", err))
		}
	}

	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, model.NewInvalidInputError("set", fmt.Sprintf("%q is not name=value", pair))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, model.NewInvalidInputError("set", fmt.Sprintf("%q is not a number", raw))
		}
		input[strings.TrimSpace(name)] = v
	}
	return input, nil
}

// runReport renders a run for the terminal. In JSON mode the payload itself
// is printed.
type runReport struct {
	payload *model.SnapshotPayload
	result  *pipeline.Result
}

func (r runReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.payload)
}

func (r runReport) String() string {
	p := r.payload
	var sb strings.Builder

	fmt.Fprintf(&sb, "Model:      %s (%s)\n", p.ModelVersion.Name, p.ModelVersion.ID)
	fmt.Fprintf(&sb, "State:      %s (rank %d)\n", p.State, p.StateRank)
	fmt.Fprintf(&sb, "Score:      %.4f = %.4f weighted + %.4f rules\n",
		p.ScoreBreakdown.TotalScore, p.ScoreBreakdown.WeightedInputScore, p.ScoreBreakdown.RuleImpactScore)
	fmt.Fprintf(&sb, "Rules:      %d of %d triggered\n", p.TriggeredRuleCount, p.RuleCount)

	for _, rr := range p.RuleResults {
		if rr.Triggered {
			fmt.Fprintf(&sb, "  + %s (%+.4f)\n", rr.Name, rr.Contribution)
		}
	}
	for _, d := range p.RestructuringActions {
		fmt.Fprintf(&sb, "Directive:  %s %s\n", d.TemplateName, string(d.Payload))
	}
	for _, e := range p.Errors {
		fmt.Fprintf(&sb, "Error:      %s %s: %s\n", e.Source, e.ID, e.Code)
	}
	for _, w := range p.Warnings {
		fmt.Fprintf(&sb, "Warning:    %s\n", w)
	}

	if r.result != nil {
		fmt.Fprintf(&sb, "Audit log:  %s\n", r.result.AuditLogID)
		if r.result.SessionID != "" {
			fmt.Fprintf(&sb, "Snapshot:   %s v%d\n", r.result.SessionID, r.result.SnapshotVersion)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
