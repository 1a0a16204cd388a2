package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/mzeesam/QDeskPro-sub003/internal/reports"
)

// TrialBalancer is the report surface the integrity scan exercises.
type TrialBalancer interface {
	TrialBalance(ctx context.Context, quarryID int64, from, to time.Time) (reports.TrialBalance, error)
}

// TenantLister enumerates quarries to scan.
type TenantLister interface {
	ListQuarryIDs(ctx context.Context) ([]int64, error)
}

// NewLedgerIntegrityHandler builds the nightly scan: every tenant's trial
// balance as of now, with bounded concurrency. Any imbalance fails the task
// so asynq surfaces it for retry and alerting.
func NewLedgerIntegrityHandler(logger *slog.Logger, balancer TrialBalancer, tenants TenantLister, concurrency int) asynq.HandlerFunc {
	if concurrency <= 0 {
		concurrency = 4
	}
	return func(ctx context.Context, t *asynq.Task) error {
		quarryIDs, err := tenants.ListQuarryIDs(ctx)
		if err != nil {
			return err
		}
		epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
		now := time.Now().UTC()
		var faults atomic.Int64
		group, ctx := errgroup.WithContext(ctx)
		group.SetLimit(concurrency)
		for _, quarryID := range quarryIDs {
			group.Go(func() error {
				if _, err := balancer.TrialBalance(ctx, quarryID, epoch, now); err != nil {
					logger.Error("ledger integrity scan",
						slog.Int64("quarry_id", quarryID), slog.Any("error", err))
					faults.Add(1)
				}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
		if n := faults.Load(); n > 0 {
			return fmt.Errorf("jobs: %d quarries out of balance", n)
		}
		logger.Info("ledger integrity scan clean", slog.Int("quarries", len(quarryIDs)))
		return nil
	}
}
