/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RealIP:        Client address from proxy headers
  3. RequestLogger: zap access log + request counter (sees recovered 500s)
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. CORS:          Cross-origin requests for the simulator page

ROUTE GROUPS:
  /api/simulations      Simulation runs
  /api/presets/*        Program documents
  /api/scenarios/*      Canned seller patterns
  /api/tier-criteria    Live criteria table
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/tiersim/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.Logger, h.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/simulations", h.RunSimulation)

		r.Route("/presets", func(r chi.Router) {
			r.Get("/default", h.GetDefaultPreset)
			r.Get("/live", h.GetLivePreset)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{id}/run", h.RunScenario)
		})

		r.Route("/tier-criteria", func(r chi.Router) {
			r.Get("/", h.ListCriteria)
			r.Put("/", h.UpdateCriteria)
		})
	})

	r.Get("/healthz", h.Health)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Seller Tier Simulator</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Seller Tier Simulator API</h1>
<h2>API Endpoints</h2>
<ul>
<li><code>POST /api/simulations</code> - Run a simulation</li>
<li><a href="/api/presets/default">/api/presets/default</a> - Default program</li>
<li><a href="/api/presets/live">/api/presets/live</a> - Live program</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Seller patterns</li>
<li><a href="/api/tier-criteria">/api/tier-criteria</a> - Live tier criteria</li>
<li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
</ul>
</body>
</html>`))
	})

	return r
}
