package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", g.handleHealth())

	// Webhooks are verified per channel, never behind operator auth.
	r.Get("/webhook/{channel}", g.handleWebhookGet)
	r.Post("/webhook/{channel}", g.handleWebhookPost)

	r.Handle("/metrics", promhttp.HandlerFor(g.metrics.Registry(), promhttp.HandlerOpts{}))

	// Operator endpoints. Not mounted if no auth configured.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth))
			r.Get("/status", g.handleStatus())
			r.Get("/api/deliveries", g.handleListDeliveries())
			if g.feed != nil {
				r.Get("/ws/deliveries", g.feed.ServeHTTP)
			}
		})
	}

	return r
}
