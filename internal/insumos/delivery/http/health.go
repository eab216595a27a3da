package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// RegisterHealthCheck mounts /health. Every check must pass within two
// seconds for the service to report healthy.
func RegisterHealthCheck(router *mux.Router, checks map[string]HealthCheck) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "dependency unavailable",
				Data:    status,
			})
			return
		}
		respondOK(w, http.StatusOK, "Insumos service is healthy", status)
	}).Methods(http.MethodGet)
}

// RegisterMetrics mounts /metrics for the given gatherer.
func RegisterMetrics(router *mux.Router, gatherer prometheus.Gatherer) {
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
