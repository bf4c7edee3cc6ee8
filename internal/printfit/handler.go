package printfit

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk/internal/platform/httpx"
)

// ErrMediaOverflow is returned when the caller asked to reject prints that no
// stocked roll can hold.
var ErrMediaOverflow = fmt.Errorf("%w: print exceeds the widest stocked roll on both sides", httpx.ErrUnprocessable)

// QuoteForm is the order-entry payload.
type QuoteForm struct {
	Width    float64          `json:"width" validate:"gt=0"`
	Height   float64          `json:"height" validate:"gt=0"`
	Unit     string           `json:"unit" validate:"required,oneof=in inch inches ft foot feet"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Quantity int              `json:"quantity" validate:"gte=0"`
}

type quoteResponse struct {
	Result
	DisplayWidth  float64          `json:"display_width"`
	DisplayHeight float64          `json:"display_height"`
	RatePerSqFt   *decimal.Decimal `json:"rate_per_sqft,omitempty"`
	Quantity      int              `json:"quantity,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
}

// Handler serves print-fit quotes for the order-entry screens.
type Handler struct {
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, validator: validator.New()}
}

// MountRoutes registers the quote endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/print-fit", h.handleQuote)
	r.Get("/print-fit/media", h.handleMedia)
}

func (h *Handler) handleMedia(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"roll_widths_ft": MediaCatalog()})
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var form QuoteForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if fields := h.validate(form); len(fields) > 0 {
		httpx.FieldProblem(w, fields)
		return
	}
	unit, _ := ParseUnit(form.Unit)

	res, err := Fit(Request{Width: form.Width, Height: form.Height, Unit: unit})
	if err != nil {
		if errors.Is(err, ErrInvalidDimension) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
			return
		}
		h.logger.Error("fit print", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if res.Overflow && r.URL.Query().Get("reject_overflow") == "true" {
		httpx.RespondError(w, ErrMediaOverflow)
		return
	}

	resp := quoteResponse{Result: res}
	resp.DisplayWidth, resp.DisplayHeight = res.DisplaySize()
	if form.Rate != nil {
		qty := form.Quantity
		if qty == 0 {
			qty = 1
		}
		q, err := NewQuote(res, *form.Rate, qty)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
			return
		}
		resp.RatePerSqFt, resp.Quantity, resp.Amount = &q.RatePerSqFt, q.Quantity, &q.Amount
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) validate(form QuoteForm) map[string]string {
	fields := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[strings.ToLower(fieldErr.Field())] = fieldErr.Error()
			}
		}
	}
	return fields
}
