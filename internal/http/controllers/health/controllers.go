// Package health contiene los controllers de health check.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/littlejohn/internal/cache"
	"github.com/dropDatabas3/littlejohn/internal/store"
)

// Controller responde los endpoints de liveness y readiness.
type Controller struct {
	store store.Store
	cache cache.Client
}

// NewController crea el controller de health.
func NewController(st store.Store, c cache.Client) *Controller {
	return &Controller{store: st, cache: c}
}

// Healthz maneja GET /healthz (liveness).
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz maneja GET /readyz (readiness): store y cache deben responder.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{"store": "ok", "cache": "ok"}
	status := http.StatusOK

	if err := c.store.Ping(ctx); err != nil {
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := c.cache.Ping(ctx); err != nil {
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(checks)
}
