package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts period persistence for the service layer.
type RepositoryPort interface {
	Insert(ctx context.Context, period Period) (Period, error)
	Get(ctx context.Context, id int64) (Period, error)
	List(ctx context.Context, quarryID int64, fiscalYear int) ([]Period, error)
	FindByDate(ctx context.Context, quarryID int64, date time.Time) (Period, error)
	SetClosed(ctx context.Context, id int64, closedBy int64, closedAt time.Time, notes string) error
	SetOpen(ctx context.Context, id int64) error
	RangeConflict(ctx context.Context, quarryID int64, start, end time.Time) (bool, error)
	CountUnpostedEntries(ctx context.Context, quarryID int64, start, end time.Time) (int, error)
}

// Repository persists accounting periods.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const periodColumns = `id, quarry_id, name, start_date, end_date, fiscal_year, period_no, type, status, closed_by, closed_at, notes, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.QuarryID, &p.Name, &p.StartDate, &p.EndDate, &p.FiscalYear, &p.PeriodNo, &p.Type, &p.Status, &p.ClosedBy, &p.ClosedAt, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) Insert(ctx context.Context, period Period) (Period, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO accounting_periods (quarry_id, name, start_date, end_date, fiscal_year, period_no, type, status, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,'OPEN',$8) RETURNING `+periodColumns,
		period.QuarryID, period.Name, period.StartDate, period.EndDate, period.FiscalYear, period.PeriodNo, period.Type, period.Notes)
	inserted, err := scanPeriod(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Period{}, ErrDuplicatePeriod
		}
		return Period{}, err
	}
	return inserted, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Period, error) {
	period, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNotFound
		}
		return Period{}, err
	}
	return period, nil
}

func (r *Repository) List(ctx context.Context, quarryID int64, fiscalYear int) ([]Period, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE quarry_id=$1`
	args := []any{quarryID}
	if fiscalYear > 0 {
		query += ` AND fiscal_year=$2`
		args = append(args, fiscalYear)
	}
	query += ` ORDER BY start_date`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Period
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, period)
	}
	return list, rows.Err()
}

func (r *Repository) FindByDate(ctx context.Context, quarryID int64, date time.Time) (Period, error) {
	period, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods
WHERE quarry_id=$1 AND $2 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, quarryID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNotFound
		}
		return Period{}, err
	}
	return period, nil
}

func (r *Repository) SetClosed(ctx context.Context, id int64, closedBy int64, closedAt time.Time, notes string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounting_periods SET status='CLOSED', closed_by=$2, closed_at=$3, notes=$4, updated_at=NOW() WHERE id=$1`,
		id, closedBy, closedAt, notes)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetOpen(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE accounting_periods SET status='OPEN', closed_by=NULL, closed_at=NULL, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) RangeConflict(ctx context.Context, quarryID int64, start, end time.Time) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounting_periods
WHERE quarry_id=$1 AND start_date <= $3 AND end_date >= $2`, quarryID, start, end).Scan(&count)
	return count > 0, err
}

func (r *Repository) CountUnpostedEntries(ctx context.Context, quarryID int64, start, end time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
WHERE quarry_id=$1 AND date BETWEEN $2 AND $3 AND NOT posted`, quarryID, start, end).Scan(&count)
	return count, err
}
