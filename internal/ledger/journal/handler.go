package journal

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/periods"
	"github.com/mzeesam/QDeskPro-sub003/internal/platform/httpx"
	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
)

// Handler wires HTTP endpoints for the journal engine.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the journal handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes attaches journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/generate", h.generate)
	r.Post("/regenerate", h.regenerate)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/post", h.post)
	r.Post("/{id}/unpost", h.unpost)
}

type createEntryRequest struct {
	QuarryID    int64       `json:"quarry_id" validate:"required"`
	Date        string      `json:"date" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Lines       []LineInput `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}
	entry, err := h.service.CreateManual(r.Context(), shared.ActorFromRequest(r), CreateInput{
		QuarryID:    req.QuarryID,
		Date:        date,
		Description: req.Description,
		Lines:       req.Lines,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entryResponse(entry))
}

type generateRequest struct {
	SourceKind string `json:"source_kind" validate:"required,oneof=SALE EXPENSE BANKING FUEL_USAGE"`
	SourceID   int64  `json:"source_id" validate:"required,gt=0"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.GenerateFromSource(r.Context(), shared.ActorFromRequest(r), SourceRef{
		Kind: SourceKind(req.SourceKind),
		ID:   req.SourceID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entryResponse(entry))
}

type regenerateRequest struct {
	QuarryID int64  `json:"quarry_id" validate:"required,gt=0"`
	From     string `json:"from" validate:"required"`
	To       string `json:"to" validate:"required"`
}

func (h *Handler) regenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
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
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "to must not precede from")
		return
	}
	deleted, created, err := h.service.Regenerate(r.Context(), shared.ActorFromRequest(r), req.QuarryID, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": deleted, "created": created})
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	id, quarryID, err := entryParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	entry, err := h.service.Post(r.Context(), shared.ActorFromRequest(r), quarryID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entryResponse(entry))
}

func (h *Handler) unpost(w http.ResponseWriter, r *http.Request) {
	id, quarryID, err := entryParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	entry, err := h.service.Unpost(r.Context(), shared.ActorFromRequest(r), quarryID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entryResponse(entry))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, quarryID, err := entryParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), shared.ActorFromRequest(r), quarryID, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, quarryID, err := entryParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}
	entry, err := h.service.Get(r.Context(), quarryID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entryResponse(entry))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
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
	entries, err := h.service.List(r.Context(), quarryID, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entryResponse(entry))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func entryParams(r *http.Request) (entryID, quarryID int64, err error) {
	entryID, err = strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, 0, errors.New("invalid entry id")
	}
	quarryID, err = strconv.ParseInt(r.URL.Query().Get("quarry_id"), 10, 64)
	if err != nil || quarryID == 0 {
		return 0, 0, errors.New("quarry_id required")
	}
	return entryID, quarryID, nil
}

func entryResponse(entry Entry) map[string]any {
	lines := make([]map[string]any, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		lines = append(lines, map[string]any{
			"id":         line.ID,
			"account_id": line.AccountID,
			"line_no":    line.LineNo,
			"debit":      line.Debit,
			"credit":     line.Credit,
			"memo":       line.Memo,
		})
	}
	return map[string]any{
		"id":           entry.ID,
		"quarry_id":    entry.QuarryID,
		"date":         entry.Date.Format("2006-01-02"),
		"reference":    entry.Reference,
		"description":  entry.Description,
		"kind":         entry.Kind,
		"source_kind":  entry.Source.Kind,
		"source_id":    entry.Source.ID,
		"posted":       entry.Posted,
		"posted_by":    entry.PostedBy,
		"posted_at":    entry.PostedAt,
		"fiscal_year":  entry.FiscalYear,
		"period_no":    entry.PeriodNo,
		"total_debit":  entry.TotalDebit(),
		"total_credit": entry.TotalCredit(),
		"lines":        lines,
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrUnbalanced), errors.Is(err, ErrTooFewLines), errors.Is(err, ErrNoAccountMapping), errors.Is(err, ErrUnknownSource):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrAlreadyPosted), errors.Is(err, ErrNotPosted), errors.Is(err, ErrPostedImmutable), errors.Is(err, ErrSourceAlreadyLinked):
		httpx.Problem(w, http.StatusConflict, "State Conflict", err.Error())
	case errors.Is(err, periods.ErrPeriodClosed):
		httpx.Problem(w, http.StatusConflict, "Period Closed", err.Error())
	default:
		h.logger.Error("journal handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
