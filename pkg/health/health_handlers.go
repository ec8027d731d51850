package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the checks of one kind. Degraded is still 200 on the
// general health endpoint; readiness and liveness are binary.
func (c *Checker) Handler(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := c.Run(kind)

		code := http.StatusOK
		switch {
		case response.Status == StatusUnhealthy:
			code = http.StatusServiceUnavailable
		case response.Status == StatusDegraded && kind != KindHealth:
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(response)
	}
}

// Mount registers /health, /ready and /live on mux
func (c *Checker) Mount(mux *http.ServeMux) {
	mux.HandleFunc("/health", c.Handler(KindHealth))
	mux.HandleFunc("/ready", c.Handler(KindReadiness))
	mux.HandleFunc("/live", c.Handler(KindLiveness))
}
