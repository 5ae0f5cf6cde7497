// Package health provides liveness and readiness probes.
//
// Liveness only reports that the process is up. Readiness runs every
// registered CheckFunc concurrently, each bounded by the check timeout, and
// reports "degraded" with HTTP 503 if any of them fails.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("store", health.PingCheck(st))
//	router.Get("/health", checker.LivenessHandler())
//	router.Get("/health/ready", checker.ReadinessHandler())
package health
