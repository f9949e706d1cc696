package gateway

import (
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds float64  `json:"uptime_seconds"`
	Channels      []string `json:"channels"`
	Draining      bool     `json:"draining"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: time.Since(g.startedAt).Truncate(time.Second).Seconds(),
			Draining:      g.draining.Load(),
		}
		for _, id := range g.registry.Channels() {
			resp.Channels = append(resp.Channels, string(id))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
