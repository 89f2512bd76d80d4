package handlers

import "net/http"

// HealthCheck reports service liveness.
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "scheduling-core",
	})
}
