package dailyledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
)

type memoryChain struct {
	days     map[time.Time]DaySummary
	failDate *time.Time
}

func newMemoryChain() *memoryChain {
	return &memoryChain{days: make(map[time.Time]DaySummary)}
}

func (r *memoryChain) ClosingOnOrBefore(ctx context.Context, quarryID int64, date time.Time) (float64, bool, error) {
	var best *DaySummary
	for _, summary := range r.days {
		if summary.Date.After(date) {
			continue
		}
		if best == nil || summary.Date.After(best.Date) {
			copied := summary
			best = &copied
		}
	}
	if best == nil {
		return 0, false, nil
	}
	return best.ClosingBalance, true, nil
}

func (r *memoryChain) UpsertDay(ctx context.Context, summary DaySummary) error {
	if r.failDate != nil && summary.Date.Equal(*r.failDate) {
		return errors.New("disk full")
	}
	r.days[summary.Date] = summary
	return nil
}

func (r *memoryChain) ListChain(ctx context.Context, quarryID int64, from, to time.Time) ([]DaySummary, error) {
	var out []DaySummary
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if summary, ok := r.days[date]; ok {
			out = append(out, summary)
		}
	}
	return out, nil
}

func (r *memoryChain) GetDay(ctx context.Context, quarryID int64, date time.Time) (DaySummary, error) {
	summary, ok := r.days[date]
	if !ok {
		return DaySummary{}, ErrNotFound
	}
	return summary, nil
}

type stubTotals struct {
	byDate map[time.Time]operations.DayTotals
}

func (s *stubTotals) DayTotals(ctx context.Context, quarryID int64, date time.Time) (operations.DayTotals, error) {
	return s.byDate[date], nil
}

type noopLock struct{}

func (noopLock) Acquire(ctx context.Context, key string) (string, error) { return "token", nil }
func (noopLock) Release(ctx context.Context, key, token string) error    { return nil }

type stubEnqueuer struct {
	calls int
}

func (e *stubEnqueuer) EnqueueCascade(ctx context.Context, quarryID int64, from time.Time) error {
	e.calls++
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func threeDayTotals() *stubTotals {
	return &stubTotals{byDate: map[time.Time]operations.DayTotals{
		date(2025, time.July, 1): {SalesTotal: 1000},
		date(2025, time.July, 2): {SalesTotal: 200},
		date(2025, time.July, 3): {SalesTotal: 300},
	}}
}

func newCascadeService(t *testing.T, chain *memoryChain, totals *stubTotals, lock LockPort, enqueue Enqueuer, maxDays int) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, chain, totals, lock, enqueue, maxDays)
	svc.WithNow(func() time.Time { return date(2025, time.July, 3) })
	return svc
}

func TestRecalcFromRebuildsChain(t *testing.T) {
	chain := newMemoryChain()
	totals := threeDayTotals()
	svc := newCascadeService(t, chain, totals, noopLock{}, nil, 92)
	ctx := context.Background()

	result, err := svc.RecalcFrom(ctx, 1, date(2025, time.July, 1))
	require.NoError(t, err)
	require.Equal(t, 3, result.Days)
	require.False(t, result.Queued)

	summaries, err := chain.ListChain(ctx, 1, date(2025, time.July, 1), date(2025, time.July, 3))
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	require.InDelta(t, 1000, summaries[0].ClosingBalance, 0.001)
	require.InDelta(t, 1200, summaries[1].ClosingBalance, 0.001)
	require.InDelta(t, 1500, summaries[2].ClosingBalance, 0.001)

	// backdated expense on day one ripples through every later day
	day1 := totals.byDate[date(2025, time.July, 1)]
	day1.ExpenseTotal = 100
	totals.byDate[date(2025, time.July, 1)] = day1

	_, err = svc.RecalcFrom(ctx, 1, date(2025, time.July, 1))
	require.NoError(t, err)
	summaries, err = chain.ListChain(ctx, 1, date(2025, time.July, 1), date(2025, time.July, 3))
	require.NoError(t, err)
	require.InDelta(t, 900, summaries[0].ClosingBalance, 0.001)
	require.InDelta(t, 1100, summaries[1].ClosingBalance, 0.001)
	require.InDelta(t, 1400, summaries[2].ClosingBalance, 0.001)
	require.InDelta(t, 1100, summaries[2].OpeningBalance, 0.001)
}

func TestRecalcDeductsUnpaidAndBanked(t *testing.T) {
	chain := newMemoryChain()
	totals := &stubTotals{byDate: map[time.Time]operations.DayTotals{
		date(2025, time.July, 3): {SalesTotal: 1000, UnpaidTotal: 300, BankedTotal: 200, CommissionTotal: 50},
	}}
	svc := newCascadeService(t, chain, totals, noopLock{}, nil, 92)

	_, err := svc.RecalcFrom(context.Background(), 1, date(2025, time.July, 3))
	require.NoError(t, err)
	summary, err := chain.GetDay(context.Background(), 1, date(2025, time.July, 3))
	require.NoError(t, err)
	// 1000 sales - 50 commission earnings, minus 300 unpaid and 200 banked
	require.InDelta(t, 450, summary.ClosingBalance, 0.001)
}

func TestRecalcStopsAtFirstFailure(t *testing.T) {
	chain := newMemoryChain()
	fail := date(2025, time.July, 2)
	chain.failDate = &fail
	svc := newCascadeService(t, chain, threeDayTotals(), noopLock{}, nil, 92)

	result, err := svc.RecalcFrom(context.Background(), 1, date(2025, time.July, 1))
	require.Error(t, err)
	require.NotNil(t, result.FailedDate)
	require.Equal(t, fail, *result.FailedDate)
	require.Equal(t, 1, result.Days)

	// day one persisted, later days untouched
	_, err = chain.GetDay(context.Background(), 1, date(2025, time.July, 1))
	require.NoError(t, err)
	_, err = chain.GetDay(context.Background(), 1, date(2025, time.July, 3))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecalcRejectsFutureStart(t *testing.T) {
	svc := newCascadeService(t, newMemoryChain(), threeDayTotals(), noopLock{}, nil, 92)
	_, err := svc.RecalcFrom(context.Background(), 1, date(2025, time.July, 4))
	require.ErrorIs(t, err, ErrFutureDate)
}

func TestRecalcQueuesOversizedWindow(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	svc := newCascadeService(t, newMemoryChain(), threeDayTotals(), noopLock{}, enqueuer, 2)

	result, err := svc.RecalcFrom(context.Background(), 1, date(2025, time.July, 1))
	require.NoError(t, err)
	require.True(t, result.Queued)
	require.Equal(t, 1, enqueuer.calls)
}

func TestRecalcSerialisedPerQuarry(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	lock := shared.NewTenantLock(client, time.Minute)

	svc := newCascadeService(t, newMemoryChain(), threeDayTotals(), lock, nil, 92)
	ctx := context.Background()

	// simulate a concurrent run holding quarry 1's lock
	require.NoError(t, client.Set(ctx, shared.CascadeLockKey(1), "other", time.Minute).Err())
	_, err := svc.RecalcFrom(ctx, 1, date(2025, time.July, 1))
	require.ErrorIs(t, err, ErrCascadeBusy)

	// quarry 2 proceeds independently
	result, err := svc.RecalcFrom(ctx, 2, date(2025, time.July, 1))
	require.NoError(t, err)
	require.Equal(t, 3, result.Days)

	// releasing the lock unblocks quarry 1
	srv.Del(shared.CascadeLockKey(1))
	_, err = svc.RecalcFrom(ctx, 1, date(2025, time.July, 1))
	require.NoError(t, err)
	require.False(t, srv.Exists(shared.CascadeLockKey(1)), "lock released after run")
}
