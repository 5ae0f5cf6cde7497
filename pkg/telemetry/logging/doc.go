// Package logging provides structured logging for the risk engine.
//
// # Overview
//
// The logging package wraps log/slog to provide:
//   - JSON, text and console output
//   - Context-aware logging that picks up request, tenant, session and
//     model version identifiers
//   - A runtime-adjustable level for configuration hot reload
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	ctx = logging.WithTenantID(ctx, "tenant-a")
//	logger.InfoContext(ctx, "engine run persisted", "snapshot_version", 3)
//
// Packages that only need a component logger use
// slog.Default().With("component", "<name>").
package logging
