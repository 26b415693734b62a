package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
)

type handlers struct {
	db     *sql.DB
	status StatusSource
}

// handleHealthz responds to liveness probes. The process is alive as long as it
// can serve this request; database connectivity is a readiness concern.
func (h *handlers) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz responds to readiness probes, checking database connectivity
// when Postgres is configured.
func (h *handlers) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": "database",
				"error":        err.Error(),
			})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// handleStatus reports the watcher state.
func (h *handlers) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]interface{}{"status": "running"}
	if h.status != nil {
		resp["watcher"] = h.status()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
