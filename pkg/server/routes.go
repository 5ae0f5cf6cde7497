package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"strategos-hq/riskengine/pkg/store"
	"strategos-hq/riskengine/pkg/telemetry/health"
	"strategos-hq/riskengine/pkg/telemetry/logging"
)

// setupRoutes configures the router and its middleware chain.
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestContext)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	tel := s.deps.Telemetry.Config()
	checker := s.deps.Telemetry.Health()
	if tel.Health.Enabled {
		r.Get(tel.Health.LivenessPath, checker.LivenessHandler())
		r.Get(tel.Health.ReadinessPath, checker.ReadinessHandler())
	}
	if tel.Metrics.Enabled {
		r.Handle(tel.Metrics.Path, s.deps.Telemetry.Metrics().Handler())
	}
	r.Get("/version", health.VersionHandler(s.deps.Version))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
		r.Use(middleware.RequestSize(s.config.Server.MaxBodyBytes))

		r.Post("/engine/run", s.handleRun)
		r.Post("/expressions/validate", s.handleValidateExpression)

		r.Route("/models/versions", func(r chi.Router) {
			r.Post("/", s.handleCreateModelVersion)
			r.Get("/", s.handleListModelVersions)
			r.Get("/{id}", s.handleGetModelVersion)
			r.Patch("/{id}/activate", s.handleActivateModelVersion)
			r.Post("/{id}/clone", s.handleCloneModelVersion)
			r.Get("/{id}/config", s.handleGetModelConfig)
			r.Post("/{id}/metrics", s.handleCreateMetric)
			r.Get("/{id}/metrics", s.handleListMetrics)
			r.Post("/{id}/coefficients", s.handleCreateCoefficient)
			r.Get("/{id}/coefficients", s.handleListCoefficients)
		})

		r.Post("/rules", s.handleCreateRule)
		r.Get("/rules", s.handleListRules)
		r.Get("/rules/{id}", s.handleGetRule)
		r.Patch("/rules/{id}", s.handleToggle(store.ToggleRule))
		r.Post("/rules/{id}/conditions", s.handleAddCondition)
		r.Post("/rules/{id}/impacts", s.handleAddImpact)
		r.Patch("/conditions/{id}", s.handleToggle(store.ToggleCondition))
		r.Patch("/impacts/{id}", s.handleToggle(store.ToggleImpact))
		r.Patch("/metrics/{id}", s.handleToggle(store.ToggleMetric))
		r.Patch("/coefficients/{id}", s.handleToggle(store.ToggleCoefficient))

		r.Post("/states", s.handleCreateState)
		r.Get("/states", s.handleListStates)
		r.Post("/states/{id}/thresholds", s.handleAddThreshold)
		r.Get("/states/{id}/thresholds", s.handleListThresholds)
		r.Patch("/thresholds/{id}", s.handleToggle(store.ToggleThreshold))

		r.Post("/restructuring/templates", s.handleCreateTemplate)
		r.Get("/restructuring/templates", s.handleListTemplates)
		r.Post("/restructuring/rules", s.handleCreateRestructuringRule)
		r.Get("/restructuring/rules", s.handleListRestructuringRules)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/replay/audit/{auditID}", s.handleReplayAudit)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/snapshots", s.handleSnapshots)
		r.Get("/sessions/{id}/replay", s.handleSessionReplay)
		r.Get("/sessions/{id}/summary", s.handleSessionSummary)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}

// requestContext copies the request id, tenant and actor into the context
// so every log line of the request carries them.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		if tenant := r.Header.Get(s.config.Server.TenantHeader); tenant != "" {
			ctx = logging.WithTenantID(ctx, tenant)
		}
		if actor := r.Header.Get(s.config.Server.ActorHeader); actor != "" {
			ctx = logging.WithActor(ctx, actor)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe logs each request and records it in the request metrics under
// its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		latency := time.Since(start)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		s.deps.Telemetry.Metrics().RecordHTTPRequest(r.Method, route, status, latency)

		logger := s.deps.Telemetry.Logger()
		args := []any{
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		}
		switch {
		case status >= 500:
			logger.ErrorContext(r.Context(), "request completed", args...)
		case status >= 400:
			logger.WarnContext(r.Context(), "request completed", args...)
		default:
			logger.DebugContext(r.Context(), "request completed", args...)
		}
	})
}
