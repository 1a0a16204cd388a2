package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads posted-line aggregates for report builders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const balanceQuery = `SELECT a.id, a.code, a.name, a.category, a.type, a.normal_balance,
COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
FROM ledger_accounts a
LEFT JOIN (
	SELECT jl.account_id, jl.debit, jl.credit
	FROM journal_lines jl
	JOIN journal_entries je ON je.id = jl.entry_id
	WHERE je.posted AND je.entry_date BETWEEN $2 AND $3
) l ON l.account_id = a.id
WHERE a.quarry_id = $1 AND a.is_active
GROUP BY a.id, a.code, a.name, a.category, a.type, a.normal_balance
ORDER BY a.code`

// BalancesInRange aggregates posted lines dated inside [from, to] per
// account. Accounts with no activity come back with zero columns.
func (r *Repository) BalancesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]AccountBalance, error) {
	rows, err := r.pool.Query(ctx, balanceQuery, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Category, &b.Type, &b.NormalBalance, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// BalancesAsOf aggregates all posted lines up to and including asOf.
func (r *Repository) BalancesAsOf(ctx context.Context, quarryID int64, asOf time.Time) ([]AccountBalance, error) {
	epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	return r.BalancesInRange(ctx, quarryID, epoch, asOf)
}
