package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/platform/httpx"
)

// StatementService is the contract the HTTP handler depends on.
type StatementService interface {
	SupplierStatement(ctx context.Context, supplierID int64) (Statement, error)
	AgentStatement(ctx context.Context, agentID int64) (Statement, error)
	InvalidateSnapshots(ctx context.Context) error
}

// Handler exposes account statements over HTTP.
type Handler struct {
	logger  *slog.Logger
	service StatementService
}

// NewHandler constructs the accounts HTTP handler.
func NewHandler(logger *slog.Logger, service StatementService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

type statementLoader func(ctx context.Context, id int64) (Statement, error)

func (h *Handler) supplierLedger(w http.ResponseWriter, r *http.Request) {
	h.serveJSON(w, r, h.service.SupplierStatement)
}

func (h *Handler) agentLedger(w http.ResponseWriter, r *http.Request) {
	h.serveJSON(w, r, h.service.AgentStatement)
}

func (h *Handler) supplierLedgerCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, h.service.SupplierStatement)
}

func (h *Handler) agentLedgerCSV(w http.ResponseWriter, r *http.Request) {
	h.serveCSV(w, r, h.service.AgentStatement)
}

func (h *Handler) bumpCache(w http.ResponseWriter, r *http.Request) {
	if err := h.service.InvalidateSnapshots(r.Context()); err != nil {
		h.logger.Error("invalidate snapshots", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) serveJSON(w http.ResponseWriter, r *http.Request, load statementLoader) {
	st, ok := h.load(w, r, load)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) serveCSV(w http.ResponseWriter, r *http.Request, load statementLoader) {
	st, ok := h.load(w, r, load)
	if !ok {
		return
	}
	filename := fmt.Sprintf("%s-%d-ledger.csv", st.AccountType, st.AccountID)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	if err := WriteStatementCSV(w, st); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, load statementLoader) (Statement, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid account id", httpx.ErrValidation))
		return Statement{}, false
	}
	st, err := load(r.Context(), id)
	if err != nil {
		if !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("build statement", slog.Int64("account_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return Statement{}, false
	}
	if n := len(st.Ledger.Rejected); n > 0 {
		w.Header().Set("X-Rejected-Events", strconv.Itoa(n))
	}
	return st, true
}
