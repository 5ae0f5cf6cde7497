package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"strategos-hq/riskengine/pkg/cli"
	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/store"
)

func newModelsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage model versions",
		Long: `List, inspect, activate and clone the model versions of a tenant.

A model version referenced by a transformation session is locked against
structural changes; clone it to evolve the configuration.`,
	}
	cmd.AddCommand(
		newModelsListCmd(g),
		newModelsShowCmd(g),
		newModelsActivateCmd(g),
		newModelsCloneCmd(g),
	)
	return cmd
}

type modelRow struct {
	model.ModelVersion
	Locked bool `json:"locked"`
}

type modelTable []modelRow

func (t modelTable) Header() []string {
	return []string{"ID", "NAME", "ACTIVE", "LOCKED", "CREATED"}
}

func (t modelTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, m := range t {
		rows = append(rows, []string{
			m.ID,
			m.Name,
			fmt.Sprint(m.IsActive),
			fmt.Sprint(m.Locked),
			m.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func newModelsListCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List model versions, oldest first",
		Args:  cobra.NoArgs,
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

			versions, err := env.store.ListModelVersions(cmd.Context(), tenant)
			if err != nil {
				return cli.NewCommandError("models list", err)
			}
			table := make(modelTable, 0, len(versions))
			for _, mv := range versions {
				locked, err := env.store.IsLocked(cmd.Context(), tenant, mv.ID)
				if err != nil {
					return cli.NewCommandError("models list", err)
				}
				table = append(table, modelRow{ModelVersion: mv, Locked: locked})
			}
			return env.printer.Print(table)
		},
	}
}

func newModelsShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [model-version-id]",
		Short: "Print the resolved configuration of a model version (default: active)",
		Args:  cobra.MaximumNArgs(1),
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

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			cfg, err := env.store.Load(cmd.Context(), tenant, id)
			if err != nil {
				return cli.NewCommandError("models show", err)
			}
			return env.printer.JSON(cfg)
		},
	}
}

func newModelsActivateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <model-version-id>",
		Short: "Make a model version the tenant's active version",
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

			mv, err := env.store.ActivateModelVersion(cmd.Context(), tenant, args[0])
			if err != nil {
				return cli.NewCommandError("models activate", err)
			}
			if env.printer.Format() == cli.FormatJSON {
				return env.printer.JSON(mv)
			}
			env.printer.Status("Model version %s (%s) is now active", mv.Name, mv.ID)
			return nil
		},
	}
}

func newModelsCloneCmd(g *globalOptions) *cobra.Command {
	var in store.NewModelVersion

	cmd := &cobra.Command{
		Use:   "clone <model-version-id>",
		Short: "Copy a model version into a new inactive version",
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

			mv, err := env.store.CloneModelVersion(cmd.Context(), tenant, args[0], in)
			if err != nil {
				return cli.NewCommandError("models clone", err)
			}
			if env.printer.Format() == cli.FormatJSON {
				return env.printer.JSON(mv)
			}
			env.printer.Status("Cloned into %s (%s)", mv.Name, mv.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "name of the new version (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "description of the new version")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
