package accounts

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

const exportLimit = 10
const exportWindow = time.Minute

// MountRoutes registers ledger endpoints for suppliers and agents.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(exportLimit, exportWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Get("/suppliers/{id}/ledger", h.supplierLedger)
	r.Get("/agents/{id}/ledger", h.agentLedger)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/suppliers/{id}/ledger.csv", h.supplierLedgerCSV)
		gr.Get("/agents/{id}/ledger.csv", h.agentLedgerCSV)
	})
	r.Post("/accounts/cache/bump", h.bumpCache)
}
