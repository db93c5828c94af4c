// Package api provides HTTP router setup.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dallasopendata/incidents/internal/config"
	"github.com/dallasopendata/incidents/internal/telemetry"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg *config.Config, handler *Handler, metrics *telemetry.Metrics) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(metrics))

	if metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)

		r.Group(func(r chi.Router) {
			if cfg.RateLimits.RequestsPerMinute > 0 {
				r.Use(RateLimitMiddleware(cfg.RateLimits.RequestsPerMinute))
			}

			// Datasets and offense taxonomy
			r.Get("/presets", handler.ListPresets)
			r.Get("/presets/{name}", handler.GetPreset)
			r.Get("/categories", handler.ListCategories)
			r.Post("/categorize", handler.Categorize)
			r.Get("/offenses/search", handler.SearchOffenses)

			// Query translation and execution
			r.Post("/compile", handler.Compile)
			r.Post("/incidents", handler.Incidents)

			// Active calls snapshots
			r.Get("/snapshots", handler.ListSnapshots)
			r.Post("/snapshots", handler.CreateSnapshot)
			r.Get("/snapshots/latest", handler.LatestSnapshot)
			r.Get("/snapshots/stats", handler.SnapshotStats)
			r.Get("/snapshots/{id}", handler.GetSnapshot)

			// Call tracking
			r.Post("/tracked", handler.TrackCall)
			r.Get("/tracked", handler.ListTracked)
			r.Get("/tracked/summary", handler.TrackedSummary)
			r.Get("/tracked/queries", handler.TrackedQueries)
			r.Delete("/tracked/{id}", handler.DeleteTracked)
		})
	})

	if cfg.Server.EnableUI {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(indexPage))
		})
	}

	return r
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>Dallas Incidents</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #2563eb; }
        code { background: #f1f5f9; padding: 2px 6px; border-radius: 4px; }
        .endpoint { margin: 10px 0; }
    </style>
</head>
<body>
    <h1>Dallas Incidents API</h1>
    <p>Query translation and offense categorization for Dallas open data.</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><code>GET /api/v1/health</code> - Health check</div>
    <div class="endpoint"><code>GET /api/v1/presets</code> - Dataset presets</div>
    <div class="endpoint"><code>GET /api/v1/categories</code> - Offense categories</div>
    <div class="endpoint"><code>POST /api/v1/categorize</code> - Categorize offense text</div>
    <div class="endpoint"><code>POST /api/v1/compile</code> - Translate a query to SoQL</div>
    <div class="endpoint"><code>POST /api/v1/incidents</code> - Fetch incidents</div>
    <div class="endpoint"><code>GET /api/v1/snapshots/latest</code> - Latest active calls snapshot</div>
    <div class="endpoint"><code>GET /api/v1/tracked</code> - Tracked calls</div>
    <div class="endpoint"><code>GET /metrics</code> - Prometheus metrics</div>
</body>
</html>`
