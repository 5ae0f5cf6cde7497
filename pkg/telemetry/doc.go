// Package telemetry bundles the observability components of the risk engine.
//
// # Components
//
//   - logging: structured slog logging with request context fields
//   - metrics: Prometheus metrics for runs, persistence, replay and HTTP
//   - health: liveness and readiness probes
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(tel.Logger().Slog())
//	tel.Health().RegisterCheck("store", health.PingCheck(st))
//	tel.Metrics().RecordRun(&payload, elapsed)
//
// Logging level changes from a configuration reload are applied with
// ApplyReload.
package telemetry
