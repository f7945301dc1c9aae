// Package httpx assembles the HTTP surface: routing, health endpoints, and
// the middleware stack.
package httpx

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shemshallah/quantum-foam-rng/pkg/config"
	"github.com/shemshallah/quantum-foam-rng/pkg/server/api"
	v1 "github.com/shemshallah/quantum-foam-rng/pkg/server/api/v1"
)

// NewRouter builds the full request handler: health endpoints always, the
// job API when enabled, wrapped in CORS and request logging.
func NewRouter(cfg config.ServerConfig, deps *api.Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", ReadyzHandler(deps))

	if cfg.APIEnabled {
		mux.Handle("POST /api/v1/jobs", v1.CreateJobHandler(deps))
		mux.Handle("GET /api/v1/jobs/{id}", v1.GetJobHandler(deps))
		log.Info().
			Str("component", "httpx").
			Msg("Job API routes mounted")
	} else {
		log.Info().
			Str("component", "httpx").
			Msg("API disabled, serving health endpoints only")
	}

	return requestLogger(corsMiddleware(mux))
}

// HealthzHandler reports process liveness. Always 200.
func HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ReadyzHandler reports readiness to serve traffic: 200 once the app has
// finished startup, 503 before that and during shutdown.
func ReadyzHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if deps.Ready != nil && deps.Ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Not Ready"))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Debug().
			Str("component", "httpx").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
