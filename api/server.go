/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog request logging (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request counters by route pattern
  5. CORS:       Cross-origin requests for the frontend

ROUTES:
  /                   API info
  /config/*           Regions, heating sources, materials
  /calculate/*        Savings calculation (JSON or PDF)
  /report/pdf         Re-render a result record
  /healthz, /readyz   Liveness and readiness
  /metrics            Prometheus scrape endpoint

SECURITY NOTE:
  No authentication. Every endpoint is a pure computation over public
  reference data.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigins []string

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(instrument(h.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/", h.Root)

	r.Route("/config", func(r chi.Router) {
		r.Get("/regions", h.ListRegions)
		r.Get("/materials", h.ListMaterials)
	})

	r.Route("/calculate", func(r chi.Router) {
		r.Post("/savings", h.CalculateSavings)
		r.Post("/pdf", h.CalculatePDF)
	})

	r.Post("/report/pdf", h.RenderReport)

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
