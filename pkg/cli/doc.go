/*
Package cli provides helpers shared by the riskengine commands.

Output Formatting:

Commands accept --output text|json. Results that implement Table render as
aligned columns in text mode:

	printer := cli.NewPrinter(os.Stdout, cli.FormatText)
	if err := printer.Print(versions); err != nil {
		return err
	}

Errors and Exit Codes:

ExitCode maps the domain errors to process exit codes: 2 for invalid input,
3 for not found, 4 for conflicts or a missing active model and 5 for replay
drift.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
