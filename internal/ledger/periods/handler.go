package periods

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mzeesam/QDeskPro-sub003/internal/platform/httpx"
	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
)

// Handler wires HTTP endpoints for accounting periods.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the periods handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes attaches period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/close", h.close)
	r.Post("/{id}/reopen", h.reopen)
}

type createPeriodRequest struct {
	QuarryID   int64  `json:"quarry_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
	FiscalYear int    `json:"fiscal_year" validate:"required"`
	PeriodNo   int    `json:"period_no" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=MONTHLY QUARTERLY ANNUAL"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "end_date must be YYYY-MM-DD")
		return
	}
	period, err := h.service.Create(r.Context(), CreateInput{
		QuarryID:   req.QuarryID,
		Name:       req.Name,
		StartDate:  start,
		EndDate:    end,
		FiscalYear: req.FiscalYear,
		PeriodNo:   req.PeriodNo,
		Type:       Type(req.Type),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, period)
}

type closePeriodRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req closePeriodRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	period, err := h.service.Close(r.Context(), id, shared.ActorFromRequest(r), req.Notes)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	period, err := h.service.Reopen(r.Context(), id, shared.ActorFromRequest(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	period, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	quarryID, err := strconv.ParseInt(r.URL.Query().Get("quarry_id"), 10, 64)
	if err != nil || quarryID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "quarry_id required")
		return
	}
	fiscalYear, _ := strconv.Atoi(r.URL.Query().Get("fiscal_year"))
	list, err := h.service.List(r.Context(), quarryID, fiscalYear)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrAlreadyClosed), errors.Is(err, ErrNotClosed), errors.Is(err, ErrUnpostedEntriesInPeriod):
		httpx.Problem(w, http.StatusConflict, "State Conflict", err.Error())
	case errors.Is(err, ErrPeriodOverlap), errors.Is(err, ErrDuplicatePeriod):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error("periods handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
