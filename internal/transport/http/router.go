// Package httptransport assembles the HTTP surface: middleware chain,
// health and metrics endpoints, and the per-feature route groups.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	intakehandler "caseflow/internal/intake/handler"
	l2lhandler "caseflow/internal/l2l/handler"
	"caseflow/internal/platform/metrics"
	"caseflow/internal/platform/middleware"
	"caseflow/internal/platform/response"
	sessionhandler "caseflow/internal/session/handler"
)

// HealthChecker reports the readiness of one dependency.
type HealthChecker func(ctx context.Context) error

// Deps is everything the router composes.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Sessions middleware.SessionResolver

	Intake  *intakehandler.Handler
	L2L     *l2lhandler.Handler
	Auth    *sessionhandler.Handler

	// Health holds named dependency probes for /healthz.
	Health map[string]HealthChecker
}

// New wires the full router.
func New(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(deps.Metrics, "api"))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		deps.Auth.RegisterPublic(r)
		deps.Intake.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(deps.Sessions, deps.Logger))
			deps.Auth.Register(r)
			deps.Intake.Register(r)
			deps.L2L.Register(r)
		})
	})

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"server": "ok"}
		healthy := true
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			response.Fail(w, http.StatusServiceUnavailable, "dependency unhealthy")
			return
		}
		response.OK(w, status)
	}
}
