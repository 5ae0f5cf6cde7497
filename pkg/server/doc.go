// Package server provides the HTTP API of the risk engine.
//
// The API is a chi router. Every route under /api/v1 is tenant scoped: the
// tenant comes from the configured tenant header (X-Tenant-ID by default),
// and the engine run also accepts it in the body. The responses share one
// envelope:
//
//	{"status": "success", "data": ..., "meta": {"request_id": "..."}}
//	{"status": "error", "error": {"code": "not_found", "message": "..."}}
//
// Domain errors map to status codes as follows:
//
//	*model.InvalidInputError   400 invalid_input
//	*model.NotFoundError       404 not_found
//	*model.NoActiveModelError  409 no_active_model
//	*model.ConflictError       409 conflict
//	classifier.ErrNoStates     409 no_states
//
// Anything else is a 500 whose detail is logged but not returned.
//
// # Usage
//
//	srv := server.NewServer(cfg, server.Dependencies{
//	    Store:     st,
//	    Pipeline:  pipeline.NewService(st, evaluator, tel.Metrics(), tel.Logger()),
//	    Replay:    replay.NewEngine(st, evaluator, tel.Metrics()),
//	    Telemetry: tel,
//	    Version:   health.NewVersionInfo(version, commit, buildTime),
//	})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until ctx is cancelled, SIGINT or SIGTERM arrives, or Stop is
// called, then drains in-flight requests within Server.ShutdownTimeout.
package server
