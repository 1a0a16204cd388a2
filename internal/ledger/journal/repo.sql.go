package journal

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id, quarry_id, entry_date, reference, description, kind, source_kind, source_id, posted, posted_by, posted_at, fiscal_year, period_no, created_by, created_at, updated_at`

// Repository persists journal entries and their lines.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional journal operations.
type TxRepository interface {
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	InsertLines(ctx context.Context, entryID int64, lines []Line) error
	GetEntry(ctx context.Context, quarryID, entryID int64) (Entry, error)
	FindBySource(ctx context.Context, quarryID int64, ref SourceRef) (Entry, error)
	SetPosted(ctx context.Context, entryID, actorID int64, at time.Time) error
	ClearPosted(ctx context.Context, entryID int64) error
	DeleteEntry(ctx context.Context, entryID int64) error
	DeleteUnpostedAutoInRange(ctx context.Context, quarryID int64, from, to time.Time) (int64, error)
	ListEntries(ctx context.Context, quarryID int64, from, to time.Time) ([]Entry, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("journal repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *txRepository) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	sourceKind, sourceID := sourceParams(entry.Source)
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (quarry_id, entry_date, reference, description, kind, source_kind, source_id, posted, fiscal_year, period_no, created_by)
VALUES ($1,$2,'JE-'||$7::text||'-'||lpad(nextval('journal_reference_seq')::text, 6, '0'),$3,$4,$5,$6,FALSE,$7,$8,$9)
RETURNING id, reference, created_at, updated_at`,
		entry.QuarryID, entry.Date, entry.Description, entry.Kind, sourceKind, sourceID, entry.FiscalYear, entry.PeriodNo, entry.CreatedBy)
	if err := row.Scan(&entry.ID, &entry.Reference, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if isSourceConflict(err) {
			return Entry{}, ErrSourceAlreadyLinked
		}
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []Line) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, account_id, line_no, debit, credit, memo)
VALUES ($1,$2,$3,$4,$5,$6)`, entryID, line.AccountID, line.LineNo, line.Debit, line.Credit, line.Memo); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntry(ctx context.Context, quarryID, entryID int64) (Entry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 AND quarry_id=$2`, entryID, quarryID))
	if err != nil {
		return Entry{}, err
	}
	entry.Lines, err = r.linesFor(ctx, entry.ID)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) FindBySource(ctx context.Context, quarryID int64, ref SourceRef) (Entry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE quarry_id=$1 AND source_kind=$2 AND source_id=$3`, quarryID, string(ref.Kind), ref.ID))
	if err != nil {
		return Entry{}, err
	}
	entry.Lines, err = r.linesFor(ctx, entry.ID)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) SetPosted(ctx context.Context, entryID, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET posted=TRUE, posted_by=$2, posted_at=$3, updated_at=NOW() WHERE id=$1`, entryID, actorID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) ClearPosted(ctx context.Context, entryID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET posted=FALSE, posted_by=NULL, posted_at=NULL, updated_at=NOW() WHERE id=$1`, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteEntry(ctx context.Context, entryID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id=$1`, entryID); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) DeleteUnpostedAutoInRange(ctx context.Context, quarryID int64, from, to time.Time) (int64, error) {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id IN (
SELECT id FROM journal_entries WHERE quarry_id=$1 AND kind='AUTO' AND posted=FALSE AND entry_date BETWEEN $2 AND $3)`, quarryID, from, to); err != nil {
		return 0, err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries
WHERE quarry_id=$1 AND kind='AUTO' AND posted=FALSE AND entry_date BETWEEN $2 AND $3`, quarryID, from, to)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *txRepository) ListEntries(ctx context.Context, quarryID int64, from, to time.Time) ([]Entry, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE quarry_id=$1 AND entry_date BETWEEN $2 AND $3 ORDER BY entry_date ASC, id ASC`, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines, err = r.linesFor(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *txRepository) linesFor(ctx context.Context, entryID int64) ([]Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, entry_id, account_id, line_no, debit, credit, memo
FROM journal_lines WHERE entry_id=$1 ORDER BY line_no ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.LineNo, &line.Debit, &line.Credit, &line.Memo); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry      Entry
		sourceKind *string
		sourceID   *int64
	)
	err := row.Scan(&entry.ID, &entry.QuarryID, &entry.Date, &entry.Reference, &entry.Description, &entry.Kind,
		&sourceKind, &sourceID, &entry.Posted, &entry.PostedBy, &entry.PostedAt,
		&entry.FiscalYear, &entry.PeriodNo, &entry.CreatedBy, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	if sourceKind != nil && sourceID != nil {
		entry.Source = SourceRef{Kind: SourceKind(*sourceKind), ID: *sourceID}
	}
	return entry, nil
}

func sourceParams(ref SourceRef) (*string, *int64) {
	if ref.None() {
		return nil, nil
	}
	kind := string(ref.Kind)
	return &kind, &ref.ID
}

func isSourceConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_entries_source"
}
