package gateway

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status   string   `json:"status"`
	Channels []string `json:"channels"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}
		for _, id := range g.registry.Channels() {
			resp.Channels = append(resp.Channels, string(id))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
