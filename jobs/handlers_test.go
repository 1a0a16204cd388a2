package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/mzeesam/QDeskPro-sub003/internal/dailyledger"
	"github.com/mzeesam/QDeskPro-sub003/internal/reports"
)

type stubBalancer struct {
	badQuarries map[int64]bool
	calls       atomic.Int64
}

func (s *stubBalancer) TrialBalance(ctx context.Context, quarryID int64, from, to time.Time) (reports.TrialBalance, error) {
	s.calls.Add(1)
	if s.badQuarries[quarryID] {
		return reports.TrialBalance{}, reports.ErrReportInconsistent
	}
	return reports.TrialBalance{QuarryID: quarryID}, nil
}

type stubLister struct {
	ids []int64
}

func (s *stubLister) ListQuarryIDs(ctx context.Context) ([]int64, error) {
	return s.ids, nil
}

type stubRecalc struct {
	err    error
	result dailyledger.RecalcResult
	gotID  int64
	gotDay time.Time
}

func (s *stubRecalc) RecalcFrom(ctx context.Context, quarryID int64, from time.Time) (dailyledger.RecalcResult, error) {
	s.gotID = quarryID
	s.gotDay = from
	return s.result, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLedgerIntegrityScanClean(t *testing.T) {
	balancer := &stubBalancer{}
	handler := NewLedgerIntegrityHandler(testLogger(), balancer, &stubLister{ids: []int64{1, 2, 3}}, 2)

	err := handler(context.Background(), NewLedgerIntegrityTask())
	require.NoError(t, err)
	require.Equal(t, int64(3), balancer.calls.Load())
}

func TestLedgerIntegrityScanReportsFaults(t *testing.T) {
	balancer := &stubBalancer{badQuarries: map[int64]bool{2: true, 3: true}}
	handler := NewLedgerIntegrityHandler(testLogger(), balancer, &stubLister{ids: []int64{1, 2, 3}}, 2)

	err := handler(context.Background(), NewLedgerIntegrityTask())
	require.Error(t, err)
	require.Contains(t, err.Error(), "2 quarries out of balance")
}

func TestCascadeHandlerRunsPayload(t *testing.T) {
	recalc := &stubRecalc{result: dailyledger.RecalcResult{Days: 4}}
	handler := NewCascadeHandler(testLogger(), recalc)

	task, err := NewCascadeTask(7, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, int64(7), recalc.gotID)
	require.Equal(t, "2025-07-01", recalc.gotDay.Format("2006-01-02"))
}

func TestCascadeHandlerSkipsBadPayload(t *testing.T) {
	handler := NewCascadeHandler(testLogger(), &stubRecalc{})

	err := handler(context.Background(), asynq.NewTask(TaskCascadeRecalc, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestCascadeHandlerRetriesWhenBusy(t *testing.T) {
	recalc := &stubRecalc{err: dailyledger.ErrCascadeBusy}
	handler := NewCascadeHandler(testLogger(), recalc)

	task, err := NewCascadeTask(7, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.ErrorIs(t, err, dailyledger.ErrCascadeBusy)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}
