package dailyledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
)

// ChainRepository persists and reads the daily summary chain.
type ChainRepository interface {
	ClosingOnOrBefore(ctx context.Context, quarryID int64, date time.Time) (float64, bool, error)
	UpsertDay(ctx context.Context, summary DaySummary) error
	ListChain(ctx context.Context, quarryID int64, from, to time.Time) ([]DaySummary, error)
	GetDay(ctx context.Context, quarryID int64, date time.Time) (DaySummary, error)
}

// TotalsReader recomputes one day's operational aggregates.
type TotalsReader interface {
	DayTotals(ctx context.Context, quarryID int64, date time.Time) (operations.DayTotals, error)
}

// LockPort is the per-tenant mutex guarding a quarry's chain.
type LockPort interface {
	Acquire(ctx context.Context, key string) (string, error)
	Release(ctx context.Context, key, token string) error
}

// Enqueuer hands oversized windows to the background worker.
type Enqueuer interface {
	EnqueueCascade(ctx context.Context, quarryID int64, from time.Time) error
}

// Service runs the closing-balance cascade.
type Service struct {
	logger  *slog.Logger
	repo    ChainRepository
	totals  TotalsReader
	lock    LockPort
	enqueue Enqueuer
	maxDays int
	now     func() time.Time
}

// NewService constructs the cascade service. enqueue may be nil; oversized
// windows then run inline.
func NewService(logger *slog.Logger, repo ChainRepository, totals TotalsReader, lock LockPort, enqueue Enqueuer, maxDays int) *Service {
	if maxDays <= 0 {
		maxDays = 92
	}
	return &Service{logger: logger, repo: repo, totals: totals, lock: lock, enqueue: enqueue, maxDays: maxDays, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RecalcFrom rebuilds the chain from the given date through today, strictly
// ascending. Each day is persisted before the fold advances, so day N+1
// always opens on day N's recomputed closing. The first persistence failure
// stops the run; earlier days keep their recomputed values.
func (s *Service) RecalcFrom(ctx context.Context, quarryID int64, from time.Time) (RecalcResult, error) {
	from = midnight(from)
	today := midnight(s.now())
	if from.After(today) {
		return RecalcResult{}, ErrFutureDate
	}
	days := int(today.Sub(from).Hours()/24) + 1
	if days > s.maxDays && s.enqueue != nil {
		if err := s.enqueue.EnqueueCascade(ctx, quarryID, from); err != nil {
			return RecalcResult{}, err
		}
		s.logger.Info("cascade window queued",
			slog.Int64("quarry_id", quarryID), slog.Time("from", from), slog.Int("days", days))
		return RecalcResult{QuarryID: quarryID, From: from, To: today, Days: days, Queued: true}, nil
	}

	key := shared.CascadeLockKey(quarryID)
	token, err := s.lock.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			return RecalcResult{}, ErrCascadeBusy
		}
		return RecalcResult{}, err
	}
	defer func() {
		if err := s.lock.Release(ctx, key, token); err != nil {
			s.logger.Warn("cascade lock release failed", slog.Int64("quarry_id", quarryID), slog.Any("error", err))
		}
	}()

	prevClosing, _, err := s.repo.ClosingOnOrBefore(ctx, quarryID, from.AddDate(0, 0, -1))
	if err != nil {
		return RecalcResult{}, err
	}

	result := RecalcResult{QuarryID: quarryID, From: from, To: today}
	for date := from; !date.After(today); date = date.AddDate(0, 0, 1) {
		summary, err := s.recomputeDay(ctx, quarryID, date, prevClosing)
		if err != nil {
			failed := date
			result.FailedDate = &failed
			s.logger.Error("cascade stopped",
				slog.Int64("quarry_id", quarryID), slog.Time("date", date), slog.Any("error", err))
			return result, fmt.Errorf("dailyledger: cascade failed at %s: %w", date.Format("2006-01-02"), err)
		}
		prevClosing = summary.ClosingBalance
		result.Days++
	}
	s.logger.Info("cascade complete",
		slog.Int64("quarry_id", quarryID), slog.Time("from", from), slog.Int("days", result.Days))
	return result, nil
}

// recomputeDay derives and persists one day from the operational tables.
func (s *Service) recomputeDay(ctx context.Context, quarryID int64, date time.Time, opening float64) (DaySummary, error) {
	totals, err := s.totals.DayTotals(ctx, quarryID, date)
	if err != nil {
		return DaySummary{}, err
	}
	summary := DaySummary{
		QuarryID:        quarryID,
		Date:            date,
		SalesTotal:      totals.SalesTotal,
		ExpenseTotal:    totals.ExpenseTotal,
		CommissionTotal: totals.CommissionTotal,
		FeeTotal:        totals.LoadersFeeTotal + totals.LandRateTotal,
		FuelBalance:     totals.FuelCostTotal,
		BankedAmount:    totals.BankedTotal,
		UnpaidAmount:    totals.UnpaidTotal,
		OpeningBalance:  opening,
		ClosingBalance:  opening + totals.Earnings() - totals.UnpaidTotal - totals.BankedTotal,
	}
	if err := s.repo.UpsertDay(ctx, summary); err != nil {
		return DaySummary{}, err
	}
	return summary, nil
}

// Chain returns the stored summaries for a range.
func (s *Service) Chain(ctx context.Context, quarryID int64, from, to time.Time) ([]DaySummary, error) {
	return s.repo.ListChain(ctx, quarryID, from, to)
}

// Day returns one stored summary.
func (s *Service) Day(ctx context.Context, quarryID int64, date time.Time) (DaySummary, error) {
	return s.repo.GetDay(ctx, quarryID, midnight(date))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
