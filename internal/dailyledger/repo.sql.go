package dailyledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const summaryColumns = `id, quarry_id, summary_date, sales_total, expense_total, commission_total, fee_total, fuel_balance, banked_amount, unpaid_amount, opening_balance, closing_balance, notes, created_at, updated_at`

// Repository persists the daily summary chain.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetDay loads one summary row.
func (r *Repository) GetDay(ctx context.Context, quarryID int64, date time.Time) (DaySummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+summaryColumns+` FROM daily_summaries
WHERE quarry_id=$1 AND summary_date=$2`, quarryID, date)
	return scanSummary(row)
}

// ClosingOnOrBefore returns the closing balance of the latest summary dated
// on or before the given date. The second return is false when the chain has
// no such day.
func (r *Repository) ClosingOnOrBefore(ctx context.Context, quarryID int64, date time.Time) (float64, bool, error) {
	var closing float64
	err := r.pool.QueryRow(ctx, `SELECT closing_balance FROM daily_summaries
WHERE quarry_id=$1 AND summary_date<=$2 ORDER BY summary_date DESC LIMIT 1`, quarryID, date).Scan(&closing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return closing, true, nil
}

// UpsertDay writes one recomputed day, replacing any previous row for the
// same (quarry, date).
func (r *Repository) UpsertDay(ctx context.Context, summary DaySummary) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO daily_summaries
(quarry_id, summary_date, sales_total, expense_total, commission_total, fee_total, fuel_balance, banked_amount, unpaid_amount, opening_balance, closing_balance, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (quarry_id, summary_date) DO UPDATE SET
sales_total=EXCLUDED.sales_total, expense_total=EXCLUDED.expense_total,
commission_total=EXCLUDED.commission_total, fee_total=EXCLUDED.fee_total,
fuel_balance=EXCLUDED.fuel_balance, banked_amount=EXCLUDED.banked_amount,
unpaid_amount=EXCLUDED.unpaid_amount, opening_balance=EXCLUDED.opening_balance,
closing_balance=EXCLUDED.closing_balance, notes=EXCLUDED.notes, updated_at=NOW()`,
		summary.QuarryID, summary.Date, summary.SalesTotal, summary.ExpenseTotal,
		summary.CommissionTotal, summary.FeeTotal, summary.FuelBalance, summary.BankedAmount,
		summary.UnpaidAmount, summary.OpeningBalance, summary.ClosingBalance, summary.Notes)
	return err
}

// ListChain returns summaries in the range, oldest first.
func (r *Repository) ListChain(ctx context.Context, quarryID int64, from, to time.Time) ([]DaySummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+summaryColumns+` FROM daily_summaries
WHERE quarry_id=$1 AND summary_date BETWEEN $2 AND $3 ORDER BY summary_date ASC`, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []DaySummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (DaySummary, error) {
	var s DaySummary
	err := row.Scan(&s.ID, &s.QuarryID, &s.Date, &s.SalesTotal, &s.ExpenseTotal, &s.CommissionTotal,
		&s.FeeTotal, &s.FuelBalance, &s.BankedAmount, &s.UnpaidAmount, &s.OpeningBalance,
		&s.ClosingBalance, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DaySummary{}, ErrNotFound
		}
		return DaySummary{}, err
	}
	return s, nil
}
