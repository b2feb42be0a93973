// Package httptransport assembles the public HTTP surface. Route groups carry
// their own middleware chains; the router only adds the operational endpoints.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"afridio/pkg/platform/httputil"
)

// Registrar is anything that can attach its routes to the router. Both the
// account and phone handlers implement it.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all public endpoints plus health and metrics.
func NewRouter(handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
