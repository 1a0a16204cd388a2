package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/mzeesam/QDeskPro-sub003/internal/dailyledger"
)

// Recalculator is the cascade surface the job drives.
type Recalculator interface {
	RecalcFrom(ctx context.Context, quarryID int64, from time.Time) (dailyledger.RecalcResult, error)
}

// NewCascadeHandler processes queued chain rebuilds. A held tenant lock is
// returned as a retryable error so asynq backs off and tries again.
func NewCascadeHandler(logger *slog.Logger, recalc Recalculator) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload CascadePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		from, err := payload.FromDate()
		if err != nil {
			return asynq.SkipRetry
		}
		result, err := recalc.RecalcFrom(ctx, payload.QuarryID, from)
		if err != nil {
			if errors.Is(err, dailyledger.ErrCascadeBusy) {
				return err
			}
			logger.Error("cascade job failed",
				slog.Int64("quarry_id", payload.QuarryID), slog.Any("error", err))
			return err
		}
		logger.Info("cascade job complete",
			slog.Int64("quarry_id", payload.QuarryID), slog.Int("days", result.Days))
		return nil
	}
}
