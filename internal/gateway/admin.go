package gateway

import (
	"net/http"
	"strconv"

	"github.com/thesoulpath/soulpath/internal/delivery"
)

const defaultDeliveriesLimit = 50

// handleListDeliveries returns an http.HandlerFunc for GET /api/deliveries.
// It lists recent delivery records, newest first. The limit query parameter
// caps the result size.
func (g *Gateway) handleListDeliveries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultDeliveriesLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		records, err := g.store.Recent(limit)
		if err != nil {
			g.logger.Error("delivery listing failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []delivery.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}
