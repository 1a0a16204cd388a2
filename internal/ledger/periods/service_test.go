package periods

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryPeriodRepo struct {
	periods  map[int64]Period
	unposted map[int64]int // quarry -> unposted entry count inside any range
	nextID   int64
}

func newMemoryPeriodRepo() *memoryPeriodRepo {
	return &memoryPeriodRepo{periods: make(map[int64]Period), unposted: make(map[int64]int)}
}

func (r *memoryPeriodRepo) Insert(ctx context.Context, period Period) (Period, error) {
	for _, existing := range r.periods {
		if existing.QuarryID == period.QuarryID && existing.FiscalYear == period.FiscalYear && existing.PeriodNo == period.PeriodNo {
			return Period{}, ErrDuplicatePeriod
		}
	}
	r.nextID++
	period.ID = r.nextID
	period.Status = StatusOpen
	r.periods[period.ID] = period
	return period, nil
}

func (r *memoryPeriodRepo) Get(ctx context.Context, id int64) (Period, error) {
	period, ok := r.periods[id]
	if !ok {
		return Period{}, ErrNotFound
	}
	return period, nil
}

func (r *memoryPeriodRepo) List(ctx context.Context, quarryID int64, fiscalYear int) ([]Period, error) {
	var out []Period
	for _, period := range r.periods {
		if period.QuarryID != quarryID {
			continue
		}
		if fiscalYear > 0 && period.FiscalYear != fiscalYear {
			continue
		}
		out = append(out, period)
	}
	return out, nil
}

func (r *memoryPeriodRepo) FindByDate(ctx context.Context, quarryID int64, date time.Time) (Period, error) {
	for _, period := range r.periods {
		if period.QuarryID == quarryID && period.Contains(date) {
			return period, nil
		}
	}
	return Period{}, ErrNotFound
}

func (r *memoryPeriodRepo) SetClosed(ctx context.Context, id int64, closedBy int64, closedAt time.Time, notes string) error {
	period, ok := r.periods[id]
	if !ok {
		return ErrNotFound
	}
	period.Status = StatusClosed
	period.ClosedBy = &closedBy
	period.ClosedAt = &closedAt
	period.Notes = notes
	r.periods[id] = period
	return nil
}

func (r *memoryPeriodRepo) SetOpen(ctx context.Context, id int64) error {
	period, ok := r.periods[id]
	if !ok {
		return ErrNotFound
	}
	period.Status = StatusOpen
	period.ClosedBy = nil
	period.ClosedAt = nil
	r.periods[id] = period
	return nil
}

func (r *memoryPeriodRepo) RangeConflict(ctx context.Context, quarryID int64, start, end time.Time) (bool, error) {
	for _, period := range r.periods {
		if period.QuarryID != quarryID {
			continue
		}
		if !start.After(period.EndDate) && !end.Before(period.StartDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryPeriodRepo) CountUnpostedEntries(ctx context.Context, quarryID int64, start, end time.Time) (int, error) {
	return r.unposted[quarryID], nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func januaryInput() CreateInput {
	return CreateInput{
		QuarryID:   1,
		Name:       "January 2026",
		StartDate:  date(2026, time.January, 1),
		EndDate:    date(2026, time.January, 31),
		FiscalYear: 2026,
		PeriodNo:   1,
		Type:       TypeMonthly,
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	repo := newMemoryPeriodRepo()
	service := NewService(repo, nil)
	ctx := context.Background()

	_, err := service.Create(ctx, januaryInput())
	require.NoError(t, err)

	overlap := januaryInput()
	overlap.PeriodNo = 2
	overlap.StartDate = date(2026, time.January, 15)
	overlap.EndDate = date(2026, time.February, 15)
	_, err = service.Create(ctx, overlap)
	require.ErrorIs(t, err, ErrPeriodOverlap)
}

func TestCloseLifecycle(t *testing.T) {
	repo := newMemoryPeriodRepo()
	service := NewService(repo, nil)
	service.WithNow(func() time.Time { return date(2026, time.February, 2) })
	ctx := context.Background()

	period, err := service.Create(ctx, januaryInput())
	require.NoError(t, err)

	repo.unposted[1] = 2
	_, err = service.Close(ctx, period.ID, 9, "month end")
	require.ErrorIs(t, err, ErrUnpostedEntriesInPeriod)

	repo.unposted[1] = 0
	closed, err := service.Close(ctx, period.ID, 9, "month end")
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedBy)
	require.Equal(t, int64(9), *closed.ClosedBy)

	_, err = service.Close(ctx, period.ID, 9, "again")
	require.ErrorIs(t, err, ErrAlreadyClosed)

	reopened, err := service.Reopen(ctx, period.ID, 9)
	require.NoError(t, err)
	require.Equal(t, StatusOpen, reopened.Status)
	require.Nil(t, reopened.ClosedBy)

	_, err = service.Reopen(ctx, period.ID, 9)
	require.ErrorIs(t, err, ErrNotClosed)
}

func TestEnsureOpenForDate(t *testing.T) {
	repo := newMemoryPeriodRepo()
	service := NewService(repo, nil)
	ctx := context.Background()

	period, err := service.Create(ctx, januaryInput())
	require.NoError(t, err)

	require.NoError(t, service.EnsureOpenForDate(ctx, 1, date(2026, time.January, 10)))

	// No period over the date is allowed.
	require.NoError(t, service.EnsureOpenForDate(ctx, 1, date(2026, time.June, 10)))

	_, err = service.Close(ctx, period.ID, 1, "")
	require.NoError(t, err)
	require.ErrorIs(t, service.EnsureOpenForDate(ctx, 1, date(2026, time.January, 10)), ErrPeriodClosed)

	_, err = service.Reopen(ctx, period.ID, 1)
	require.NoError(t, err)
	require.NoError(t, service.EnsureOpenForDate(ctx, 1, date(2026, time.January, 10)))
}
