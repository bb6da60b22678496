package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/himmelblau-idm/kerbeiros-sub001/internal/logger"
)

// NewRouter builds the observability HTTP surface: GET /healthz for a
// liveness probe and GET /metrics for Prometheus scraping (empty body if
// InitRegistry was never called), grounded on dittofs's pkg/controlplane/api
// router's middleware stack.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		reg := GetRegistry()
		if reg == nil {
			logger.Debug("metrics scrape while registry disabled")
			w.WriteHeader(http.StatusOK)
			return
		}
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})

	return r
}
