package main

import (
	"strings"

	"github.com/spf13/cobra"

	"strategos-hq/riskengine/pkg/bundle"
	"strategos-hq/riskengine/pkg/cli"
	"strategos-hq/riskengine/pkg/expr"
	"strategos-hq/riskengine/pkg/model"
)

func newValidateCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate expressions and model bundles offline",
		Long: `Check expressions and model bundles without touching the store. Invalid input
exits with status 2.

Examples:
  riskengine validate expr "cost > (revenue * 0.78)"
  riskengine validate bundle models/baseline.yaml`,
	}
	cmd.AddCommand(newValidateExprCmd(g), newValidateBundleCmd(g))
	return cmd
}

type exprResult struct {
	Expression  string   `json:"expression"`
	Valid       bool     `json:"valid"`
	Identifiers []string `json:"identifiers,omitempty"`
	Code        string   `json:"code,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (r exprResult) String() string {
	if r.Valid {
		return "✓ valid, identifiers: " + strings.Join(r.Identifiers, ", ")
	}
	return "✗ " + r.Code + ": " + r.Error
}

func newValidateExprCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expr <expression>",
		Short: "Parse an expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := g.printer(cmd)
			if err != nil {
				return err
			}

			res := exprResult{Expression: args[0]}
			prog, cerr := expr.Compile(args[0])
			if cerr != nil {
				res.Code = expr.Code(cerr)
				res.Error = cerr.Error()
			} else {
				res.Valid = true
				res.Identifiers = prog.Identifiers()
			}

			if err := printer.Print(res); err != nil {
				return err
			}
			if cerr != nil {
				return model.NewInvalidInputError("expression", cerr.Error())
			}
			return nil
		},
	}
}

type bundleSummary struct {
	Name          string `json:"name"`
	Metrics       int    `json:"metrics"`
	Coefficients  int    `json:"coefficients"`
	Rules         int    `json:"rules"`
	States        int    `json:"states"`
	Templates     int    `json:"templates"`
	Restructuring int    `json:"restructuring"`
}

func newValidateBundleCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <file>",
		Short: "Parse and validate a model bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := g.printer(cmd)
			if err != nil {
				return err
			}

			b, err := bundle.LoadFile(args[0])
			if err != nil {
				return model.NewInvalidInputError("bundle", err.Error())
			}
			if err := bundle.Validate(b); err != nil {
				return err
			}

			summary := bundleSummary{
				Name:          b.ModelVersion.Name,
				Metrics:       len(b.Metrics),
				Coefficients:  len(b.Coefficients),
				Rules:         len(b.Rules),
				States:        len(b.States),
				Templates:     len(b.Templates),
				Restructuring: len(b.Restructuring),
			}
			if printer.Format() == cli.FormatJSON {
				return printer.JSON(summary)
			}
			printer.Status("Bundle %s is valid: %d metrics, %d coefficients, %d rules, %d states, %d templates",
				summary.Name, summary.Metrics, summary.Coefficients, summary.Rules, summary.States, summary.Templates)
			return nil
		},
	}
}
