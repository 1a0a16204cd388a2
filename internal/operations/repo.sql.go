package operations

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the operational row does not exist or is inactive.
var ErrNotFound = errors.New("operations: record not found")

// Repository reads operational transaction tables. All access is read-only;
// mutation belongs to the owning modules.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetQuarry loads fee configuration for a tenant.
func (r *Repository) GetQuarry(ctx context.Context, id int64) (Quarry, error) {
	var q Quarry
	err := r.pool.QueryRow(ctx, `SELECT id, name, loaders_fee_per_unit, land_rate_per_unit, is_active, created_at, updated_at
FROM quarries WHERE id=$1 AND is_active`, id).
		Scan(&q.ID, &q.Name, &q.LoadersFeePerUnit, &q.LandRatePerUnit, &q.IsActive, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quarry{}, ErrNotFound
		}
		return Quarry{}, err
	}
	return q, nil
}

// ListQuarryIDs returns all active tenant ids.
func (r *Repository) ListQuarryIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM quarries WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const saleColumns = `id, quarry_id, date, reference, vehicle_reg, broker_name, quantity, unit_price, commission_amount, land_rate_applies, paid, paid_amount, is_active, created_at, updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.QuarryID, &s.Date, &s.Reference, &s.VehicleReg, &s.BrokerName, &s.Quantity, &s.UnitPrice, &s.CommissionAmount, &s.LandRateApplies, &s.Paid, &s.PaidAmount, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetSale loads one active sale.
func (r *Repository) GetSale(ctx context.Context, id int64) (Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1 AND is_active`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, err
	}
	return s, nil
}

// ListSalesInRange returns active sales for a quarry between from and to inclusive.
func (r *Repository) ListSalesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE quarry_id=$1 AND date BETWEEN $2 AND $3 AND is_active ORDER BY date, id`, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sales []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// ListUnpaidSalesAsOf returns sales still outstanding at the given date.
func (r *Repository) ListUnpaidSalesAsOf(ctx context.Context, quarryID int64, asOf time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE quarry_id=$1 AND date <= $2 AND NOT paid AND is_active ORDER BY date, id`, quarryID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sales []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// GetExpense loads one active expense.
func (r *Repository) GetExpense(ctx context.Context, id int64) (Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx, `SELECT id, quarry_id, date, category, amount, description, is_active, created_at, updated_at
FROM expenses WHERE id=$1 AND is_active`, id).
		Scan(&e.ID, &e.QuarryID, &e.Date, &e.Category, &e.Amount, &e.Description, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrNotFound
		}
		return Expense{}, err
	}
	return e, nil
}

// ListExpensesInRange returns active expenses for a quarry in range.
func (r *Repository) ListExpensesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, quarry_id, date, category, amount, description, is_active, created_at, updated_at
FROM expenses WHERE quarry_id=$1 AND date BETWEEN $2 AND $3 AND is_active ORDER BY date, id`, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.QuarryID, &e.Date, &e.Category, &e.Amount, &e.Description, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// GetBankingDeposit loads one active deposit.
func (r *Repository) GetBankingDeposit(ctx context.Context, id int64) (BankingDeposit, error) {
	var b BankingDeposit
	err := r.pool.QueryRow(ctx, `SELECT id, quarry_id, date, amount, reference, is_active, created_at, updated_at
FROM banking_deposits WHERE id=$1 AND is_active`, id).
		Scan(&b.ID, &b.QuarryID, &b.Date, &b.Amount, &b.Reference, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankingDeposit{}, ErrNotFound
		}
		return BankingDeposit{}, err
	}
	return b, nil
}

// ListBankingInRange returns active deposits for a quarry in range.
func (r *Repository) ListBankingInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]BankingDeposit, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, quarry_id, date, amount, reference, is_active, created_at, updated_at
FROM banking_deposits WHERE quarry_id=$1 AND date BETWEEN $2 AND $3 AND is_active ORDER BY date, id`, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var deposits []BankingDeposit
	for rows.Next() {
		var b BankingDeposit
		if err := rows.Scan(&b.ID, &b.QuarryID, &b.Date, &b.Amount, &b.Reference, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		deposits = append(deposits, b)
	}
	return deposits, rows.Err()
}

// GetFuelUsage loads one active fuel usage row.
func (r *Repository) GetFuelUsage(ctx context.Context, id int64) (FuelUsage, error) {
	var f FuelUsage
	err := r.pool.QueryRow(ctx, `SELECT id, quarry_id, date, litres, cost, is_active, created_at, updated_at
FROM fuel_usage WHERE id=$1 AND is_active`, id).
		Scan(&f.ID, &f.QuarryID, &f.Date, &f.Litres, &f.Cost, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FuelUsage{}, ErrNotFound
		}
		return FuelUsage{}, err
	}
	return f, nil
}

// ListFuelUsageInRange returns active fuel usage for a quarry in range.
func (r *Repository) ListFuelUsageInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]FuelUsage, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, quarry_id, date, litres, cost, is_active, created_at, updated_at
FROM fuel_usage WHERE quarry_id=$1 AND date BETWEEN $2 AND $3 AND is_active ORDER BY date, id`, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var usage []FuelUsage
	for rows.Next() {
		var f FuelUsage
		if err := rows.Scan(&f.ID, &f.QuarryID, &f.Date, &f.Litres, &f.Cost, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		usage = append(usage, f)
	}
	return usage, rows.Err()
}

// DayTotals aggregates one quarry-day across the operational tables.
// Loaders and land-rate fees are derived from sold quantity times the
// quarry's configured per-unit rates.
func (r *Repository) DayTotals(ctx context.Context, quarryID int64, date time.Time) (DayTotals, error) {
	quarry, err := r.GetQuarry(ctx, quarryID)
	if err != nil {
		return DayTotals{}, err
	}
	var t DayTotals
	var qty, landQty float64
	err = r.pool.QueryRow(ctx, `SELECT
COALESCE(SUM(quantity*unit_price),0),
COALESCE(SUM(paid_amount),0),
COALESCE(SUM(CASE WHEN NOT paid THEN quantity*unit_price - paid_amount ELSE 0 END),0),
COALESCE(SUM(commission_amount),0),
COALESCE(SUM(quantity),0),
COALESCE(SUM(CASE WHEN land_rate_applies THEN quantity ELSE 0 END),0)
FROM sales WHERE quarry_id=$1 AND date=$2 AND is_active`, quarryID, date).
		Scan(&t.SalesTotal, &t.PaidTotal, &t.UnpaidTotal, &t.CommissionTotal, &qty, &landQty)
	if err != nil {
		return DayTotals{}, err
	}
	t.LoadersFeeTotal = qty * quarry.LoadersFeePerUnit
	t.LandRateTotal = landQty * quarry.LandRatePerUnit

	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount),0) FROM expenses
WHERE quarry_id=$1 AND date=$2 AND is_active`, quarryID, date).Scan(&t.ExpenseTotal); err != nil {
		return DayTotals{}, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount),0) FROM banking_deposits
WHERE quarry_id=$1 AND date=$2 AND is_active`, quarryID, date).Scan(&t.BankedTotal); err != nil {
		return DayTotals{}, err
	}
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(cost),0) FROM fuel_usage
WHERE quarry_id=$1 AND date=$2 AND cost IS NOT NULL AND is_active`, quarryID, date).Scan(&t.FuelCostTotal); err != nil {
		return DayTotals{}, err
	}
	return t, nil
}
