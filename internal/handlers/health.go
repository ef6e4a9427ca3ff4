// internal/handlers/health.go
package handlers

import "net/http"

// HealthHandler reports liveness and the number of connected clients.
func HealthHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"connections": hub.Len(),
		})
	}
}
