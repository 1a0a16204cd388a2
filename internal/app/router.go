package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mzeesam/QDeskPro-sub003/internal/dailyledger"
	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/journal"
	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/periods"
	"github.com/mzeesam/QDeskPro-sub003/internal/reports"
	"github.com/mzeesam/QDeskPro-sub003/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AccountsHandler    *accounts.Handler
	JournalHandler     *journal.Handler
	PeriodsHandler     *periods.Handler
	ReportsHandler     *reports.Handler
	DailyLedgerHandler *dailyledger.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with QDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.AccountsHandler != nil {
			r.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.JournalHandler != nil {
			r.Route("/journal", params.JournalHandler.MountRoutes)
		}
		if params.PeriodsHandler != nil {
			r.Route("/periods", params.PeriodsHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
		if params.DailyLedgerHandler != nil {
			r.Route("/daily-ledger", params.DailyLedgerHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
