package dailyledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mzeesam/QDeskPro-sub003/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the daily ledger chain.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the daily ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes attaches daily ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.chain)
	r.Get("/{date}", h.day)
	r.Post("/recalculate", h.recalculate)
}

type recalcRequest struct {
	QuarryID int64  `json:"quarry_id" validate:"required,gt=0"`
	From     string `json:"from" validate:"required"`
}

func (h *Handler) recalculate(w http.ResponseWriter, r *http.Request) {
	var req recalcRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "from must be YYYY-MM-DD")
		return
	}
	result, err := h.service.RecalcFrom(r.Context(), req.QuarryID, from)
	if err != nil {
		h.respondError(w, err, result)
		return
	}
	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	quarryID, err := strconv.ParseInt(r.URL.Query().Get("quarry_id"), 10, 64)
	if err != nil || quarryID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "quarry_id required")
		return
	}
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}
	summary, err := h.service.Day(r.Context(), quarryID, date)
	if err != nil {
		h.respondError(w, err, RecalcResult{})
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) chain(w http.ResponseWriter, r *http.Request) {
	quarryID, err := strconv.ParseInt(r.URL.Query().Get("quarry_id"), 10, 64)
	if err != nil || quarryID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "quarry_id required")
		return
	}
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "to must be YYYY-MM-DD")
		return
	}
	chain, err := h.service.Chain(r.Context(), quarryID, from, to)
	if err != nil {
		h.respondError(w, err, RecalcResult{})
		return
	}
	httpx.JSON(w, http.StatusOK, chain)
}

func (h *Handler) respondError(w http.ResponseWriter, err error, partial RecalcResult) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrCascadeBusy):
		httpx.Problem(w, http.StatusConflict, "Cascade Busy", err.Error())
	case errors.Is(err, ErrFutureDate):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", err.Error())
	case partial.FailedDate != nil:
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{
			"title":       "Cascade Failed",
			"detail":      err.Error(),
			"failed_date": partial.FailedDate.Format("2006-01-02"),
			"days_done":   partial.Days,
		})
	default:
		h.logger.Error("dailyledger handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
