package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts account persistence for the service layer.
type RepositoryPort interface {
	Insert(ctx context.Context, account Account) (Account, error)
	InsertMany(ctx context.Context, accounts []Account) error
	Update(ctx context.Context, account Account) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (Account, error)
	GetByCode(ctx context.Context, quarryID int64, code string) (Account, error)
	List(ctx context.Context, quarryID int64) ([]Account, error)
	CountForQuarry(ctx context.Context, quarryID int64) (int, error)
	CountChildren(ctx context.Context, id int64) (int, error)
	CountJournalLines(ctx context.Context, accountID int64) (int, error)
}

// Repository persists ledger accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, quarry_id, code, name, category, type, parent_id, is_system, normal_balance, display_order, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.QuarryID, &a.Code, &a.Name, &a.Category, &a.Type, &a.ParentID, &a.IsSystem, &a.NormalBalance, &a.DisplayOrder, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *Repository) Insert(ctx context.Context, account Account) (Account, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO ledger_accounts (quarry_id, code, name, category, type, parent_id, is_system, normal_balance, display_order)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING `+accountColumns,
		account.QuarryID, account.Code, account.Name, account.Category, account.Type, account.ParentID, account.IsSystem, account.NormalBalance, account.DisplayOrder)
	inserted, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err, "uq_ledger_accounts_quarry_code") {
			return Account{}, ErrDuplicateCode
		}
		return Account{}, err
	}
	return inserted, nil
}

func (r *Repository) InsertMany(ctx context.Context, accounts []Account) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, account := range accounts {
		_, err := tx.Exec(ctx, `INSERT INTO ledger_accounts (quarry_id, code, name, category, type, parent_id, is_system, normal_balance, display_order)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			account.QuarryID, account.Code, account.Name, account.Category, account.Type, account.ParentID, account.IsSystem, account.NormalBalance, account.DisplayOrder)
		if err != nil {
			if isUniqueViolation(err, "uq_ledger_accounts_quarry_code") {
				return ErrDuplicateCode
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) Update(ctx context.Context, account Account) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE ledger_accounts SET name=$2, parent_id=$3, display_order=$4, is_active=$5, updated_at=NOW()
WHERE id=$1`, account.ID, account.Name, account.ParentID, account.DisplayOrder, account.IsActive)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ledger_accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Account, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM ledger_accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *Repository) GetByCode(ctx context.Context, quarryID int64, code string) (Account, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM ledger_accounts
WHERE quarry_id=$1 AND code=$2 AND is_active`, quarryID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}

func (r *Repository) List(ctx context.Context, quarryID int64) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM ledger_accounts
WHERE quarry_id=$1 AND is_active ORDER BY display_order, code`, quarryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, account)
	}
	return list, rows.Err()
}

func (r *Repository) CountForQuarry(ctx context.Context, quarryID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_accounts WHERE quarry_id=$1`, quarryID).Scan(&count)
	return count, err
}

func (r *Repository) CountChildren(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_accounts WHERE parent_id=$1`, id).Scan(&count)
	return count, err
}

func (r *Repository) CountJournalLines(ctx context.Context, accountID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal_lines WHERE account_id=$1`, accountID).Scan(&count)
	return count, err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}
