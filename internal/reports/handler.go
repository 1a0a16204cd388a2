package reports

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mzeesam/QDeskPro-sub003/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the report engine.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	formatter *Formatter
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, formatter: NewFormatter()}
}

// MountRoutes attaches report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/profit-loss", h.profitLoss)
	r.Get("/balance-sheet", h.balanceSheet)
	r.Get("/cash-flow", h.cashFlow)
	r.Get("/receivables-aging", h.receivablesAging)
	r.Get("/payables-summary", h.payablesSummary)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	quarryID, from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	report, err := h.service.TrialBalance(r.Context(), quarryID, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) profitLoss(w http.ResponseWriter, r *http.Request) {
	quarryID, from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	var compareFrom, compareTo *time.Time
	if raw := r.URL.Query().Get("compare_from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "compare_from must be YYYY-MM-DD")
			return
		}
		compareFrom = &parsed
	}
	if raw := r.URL.Query().Get("compare_to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "compare_to must be YYYY-MM-DD")
			return
		}
		compareTo = &parsed
	}
	report, err := h.service.ProfitLoss(r.Context(), quarryID, from, to, compareFrom, compareTo)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "display" {
		httpx.JSON(w, http.StatusOK, h.formatter.FormatProfitLoss(report))
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	quarryID, asOf, ok := asOfParams(w, r)
	if !ok {
		return
	}
	report, err := h.service.BalanceSheet(r.Context(), quarryID, asOf)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	quarryID, from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	report, err := h.service.CashFlow(r.Context(), quarryID, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) receivablesAging(w http.ResponseWriter, r *http.Request) {
	quarryID, asOf, ok := asOfParams(w, r)
	if !ok {
		return
	}
	report, err := h.service.ReceivablesAging(r.Context(), quarryID, asOf)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) payablesSummary(w http.ResponseWriter, r *http.Request) {
	quarryID, from, to, ok := rangeParams(w, r)
	if !ok {
		return
	}
	report, err := h.service.PayablesSummary(r.Context(), quarryID, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func rangeParams(w http.ResponseWriter, r *http.Request) (quarryID int64, from, to time.Time, ok bool) {
	quarryID, err := strconv.ParseInt(r.URL.Query().Get("quarry_id"), 10, 64)
	if err != nil || quarryID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "quarry_id required")
		return 0, time.Time{}, time.Time{}, false
	}
	from, err = time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "from must be YYYY-MM-DD")
		return 0, time.Time{}, time.Time{}, false
	}
	to, err = time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "to must be YYYY-MM-DD")
		return 0, time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "to must not precede from")
		return 0, time.Time{}, time.Time{}, false
	}
	return quarryID, from, to, true
}

func asOfParams(w http.ResponseWriter, r *http.Request) (quarryID int64, asOf time.Time, ok bool) {
	quarryID, err := strconv.ParseInt(r.URL.Query().Get("quarry_id"), 10, 64)
	if err != nil || quarryID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "quarry_id required")
		return 0, time.Time{}, false
	}
	asOf, err = time.Parse("2006-01-02", r.URL.Query().Get("as_of"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "as_of must be YYYY-MM-DD")
		return 0, time.Time{}, false
	}
	return quarryID, asOf, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrReportInconsistent) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrIntegrity, err.Error()))
		return
	}
	h.logger.Error("reports handler", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
