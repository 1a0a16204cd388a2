package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
	"github.com/mzeesam/QDeskPro-sub003/internal/shared"
)

type memoryJournalRepo struct {
	entries map[int64]Entry
	nextID  int64
}

func newMemoryJournalRepo() *memoryJournalRepo {
	return &memoryJournalRepo{entries: make(map[int64]Entry)}
}

func (r *memoryJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryJournalRepo) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	if !entry.Source.None() {
		for _, existing := range r.entries {
			if existing.QuarryID == entry.QuarryID && existing.Source == entry.Source {
				return Entry{}, ErrSourceAlreadyLinked
			}
		}
	}
	r.nextID++
	entry.ID = r.nextID
	entry.Reference = fmt.Sprintf("JE-%d-%06d", entry.FiscalYear, entry.ID)
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	stored := entry
	stored.Lines = nil
	r.entries[entry.ID] = stored
	return entry, nil
}

func (r *memoryJournalRepo) InsertLines(ctx context.Context, entryID int64, lines []Line) error {
	entry, ok := r.entries[entryID]
	if !ok {
		return ErrNotFound
	}
	for i, line := range lines {
		line.ID = int64(len(entry.Lines) + i + 1)
		line.EntryID = entryID
		entry.Lines = append(entry.Lines, line)
	}
	r.entries[entryID] = entry
	return nil
}

func (r *memoryJournalRepo) GetEntry(ctx context.Context, quarryID, entryID int64) (Entry, error) {
	entry, ok := r.entries[entryID]
	if !ok || entry.QuarryID != quarryID {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (r *memoryJournalRepo) FindBySource(ctx context.Context, quarryID int64, ref SourceRef) (Entry, error) {
	for _, entry := range r.entries {
		if entry.QuarryID == quarryID && entry.Source == ref {
			return entry, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (r *memoryJournalRepo) SetPosted(ctx context.Context, entryID, actorID int64, at time.Time) error {
	entry, ok := r.entries[entryID]
	if !ok {
		return ErrNotFound
	}
	entry.Posted = true
	entry.PostedBy = &actorID
	entry.PostedAt = &at
	r.entries[entryID] = entry
	return nil
}

func (r *memoryJournalRepo) ClearPosted(ctx context.Context, entryID int64) error {
	entry, ok := r.entries[entryID]
	if !ok {
		return ErrNotFound
	}
	entry.Posted = false
	entry.PostedBy = nil
	entry.PostedAt = nil
	r.entries[entryID] = entry
	return nil
}

func (r *memoryJournalRepo) DeleteEntry(ctx context.Context, entryID int64) error {
	if _, ok := r.entries[entryID]; !ok {
		return ErrNotFound
	}
	delete(r.entries, entryID)
	return nil
}

func (r *memoryJournalRepo) DeleteUnpostedAutoInRange(ctx context.Context, quarryID int64, from, to time.Time) (int64, error) {
	var deleted int64
	for id, entry := range r.entries {
		if entry.QuarryID != quarryID || entry.Kind != KindAuto || entry.Posted {
			continue
		}
		if entry.Date.Before(from) || entry.Date.After(to) {
			continue
		}
		delete(r.entries, id)
		deleted++
	}
	return deleted, nil
}

func (r *memoryJournalRepo) ListEntries(ctx context.Context, quarryID int64, from, to time.Time) ([]Entry, error) {
	var out []Entry
	for _, entry := range r.entries {
		if entry.QuarryID != quarryID || entry.Date.Before(from) || entry.Date.After(to) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

type stubGuard struct {
	closedFrom *time.Time
	err        error
}

func (g *stubGuard) EnsureOpenForDate(ctx context.Context, quarryID int64, date time.Time) error {
	if g.closedFrom != nil && !date.Before(*g.closedFrom) {
		return g.err
	}
	return nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type stubAccounts struct {
	byCode map[string]accounts.Account
}

func newStubAccounts() *stubAccounts {
	codes := []string{
		accounts.CodeCash, accounts.CodeBank, accounts.CodeReceivable, accounts.CodeFuelInventory,
		accounts.CodeBrokerPayable, accounts.CodeAccruedLoadersFee, accounts.CodeAccruedLandRate,
		accounts.CodeSalesRevenue, accounts.CodeFuelCost, accounts.CodeLoadersFeeCost,
		accounts.CodeCommissionExpense, accounts.CodeLandRateExpense, accounts.CodeMaintenance,
		accounts.CodeSalaries, accounts.CodeUtilities, accounts.CodeAdmin,
	}
	s := &stubAccounts{byCode: make(map[string]accounts.Account)}
	for i, code := range codes {
		s.byCode[code] = accounts.Account{ID: int64(i + 1), Code: code}
	}
	return s
}

func (s *stubAccounts) GetByCode(ctx context.Context, quarryID int64, code string) (accounts.Account, error) {
	account, ok := s.byCode[code]
	if !ok {
		return accounts.Account{}, accounts.ErrNotFound
	}
	return account, nil
}

type stubSources struct {
	quarry   operations.Quarry
	sales    map[int64]operations.Sale
	expenses map[int64]operations.Expense
	banking  map[int64]operations.BankingDeposit
	fuel     map[int64]operations.FuelUsage
}

func newStubSources() *stubSources {
	return &stubSources{
		quarry:   operations.Quarry{ID: 1, Name: "Main Pit", LoadersFeePerUnit: 10, LandRatePerUnit: 5},
		sales:    make(map[int64]operations.Sale),
		expenses: make(map[int64]operations.Expense),
		banking:  make(map[int64]operations.BankingDeposit),
		fuel:     make(map[int64]operations.FuelUsage),
	}
}

func (s *stubSources) GetQuarry(ctx context.Context, id int64) (operations.Quarry, error) {
	return s.quarry, nil
}

func (s *stubSources) GetSale(ctx context.Context, id int64) (operations.Sale, error) {
	sale, ok := s.sales[id]
	if !ok {
		return operations.Sale{}, ErrNotFound
	}
	return sale, nil
}

func (s *stubSources) GetExpense(ctx context.Context, id int64) (operations.Expense, error) {
	expense, ok := s.expenses[id]
	if !ok {
		return operations.Expense{}, ErrNotFound
	}
	return expense, nil
}

func (s *stubSources) GetBankingDeposit(ctx context.Context, id int64) (operations.BankingDeposit, error) {
	deposit, ok := s.banking[id]
	if !ok {
		return operations.BankingDeposit{}, ErrNotFound
	}
	return deposit, nil
}

func (s *stubSources) GetFuelUsage(ctx context.Context, id int64) (operations.FuelUsage, error) {
	usage, ok := s.fuel[id]
	if !ok {
		return operations.FuelUsage{}, ErrNotFound
	}
	return usage, nil
}

func (s *stubSources) ListSalesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.Sale, error) {
	var out []operations.Sale
	for _, sale := range s.sales {
		if !sale.Date.Before(from) && !sale.Date.After(to) {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *stubSources) ListExpensesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.Expense, error) {
	var out []operations.Expense
	for _, expense := range s.expenses {
		if !expense.Date.Before(from) && !expense.Date.After(to) {
			out = append(out, expense)
		}
	}
	return out, nil
}

func (s *stubSources) ListBankingInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.BankingDeposit, error) {
	var out []operations.BankingDeposit
	for _, deposit := range s.banking {
		if !deposit.Date.Before(from) && !deposit.Date.After(to) {
			out = append(out, deposit)
		}
	}
	return out, nil
}

func (s *stubSources) ListFuelUsageInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.FuelUsage, error) {
	var out []operations.FuelUsage
	for _, usage := range s.fuel {
		if !usage.Date.Before(from) && !usage.Date.After(to) {
			out = append(out, usage)
		}
	}
	return out, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*Service, *memoryJournalRepo, *stubSources, *stubGuard, *memoryAudit) {
	t.Helper()
	repo := newMemoryJournalRepo()
	sources := newStubSources()
	guard := &stubGuard{err: fmt.Errorf("period closed")}
	audit := &memoryAudit{}
	svc := NewService(repo, newStubAccounts(), sources, audit, guard)
	svc.WithNow(func() time.Time { return day(2025, time.July, 15) })
	return svc, repo, sources, guard, audit
}

func balancedInput(debit, credit float64) CreateInput {
	return CreateInput{
		QuarryID:    1,
		Date:        day(2025, time.July, 10),
		Description: "owner capital injection",
		Lines: []LineInput{
			{AccountID: 1, Debit: debit},
			{AccountID: 8, Credit: credit},
		},
	}
}

func TestCreateManualBalanceRule(t *testing.T) {
	svc, _, _, _, audit := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateManual(ctx, 7, balancedInput(500, 480))
	require.ErrorIs(t, err, ErrUnbalanced)

	entry, err := svc.CreateManual(ctx, 7, balancedInput(500, 500))
	require.NoError(t, err)
	require.Equal(t, KindManual, entry.Kind)
	require.False(t, entry.Posted)
	require.True(t, entry.IsBalanced())
	require.NotEmpty(t, entry.Reference)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "journal.create", audit.logs[0].Action)
}

func TestCreateManualRejectsTwoSidedLine(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	input := balancedInput(500, 500)
	input.Lines[0].Credit = 500
	_, err := svc.CreateManual(context.Background(), 7, input)
	require.Error(t, err)

	input = balancedInput(500, 500)
	input.Lines = input.Lines[:1]
	_, err = svc.CreateManual(context.Background(), 7, input)
	require.ErrorIs(t, err, ErrTooFewLines)
}

func TestPostLifecycle(t *testing.T) {
	svc, _, _, _, audit := newTestService(t)
	ctx := context.Background()

	entry, err := svc.CreateManual(ctx, 7, balancedInput(500, 500))
	require.NoError(t, err)

	posted, err := svc.Post(ctx, 9, 1, entry.ID)
	require.NoError(t, err)
	require.True(t, posted.Posted)
	require.NotNil(t, posted.PostedBy)
	require.Equal(t, int64(9), *posted.PostedBy)

	require.Len(t, audit.logs, 2)
	require.Equal(t, "journal.post", audit.logs[1].Action)
	require.Equal(t, entry.ID, audit.logs[1].EntityID)

	_, err = svc.Post(ctx, 9, 1, entry.ID)
	require.ErrorIs(t, err, ErrAlreadyPosted)

	err = svc.Delete(ctx, 9, 1, entry.ID)
	require.ErrorIs(t, err, ErrPostedImmutable)

	_, err = svc.Unpost(ctx, 9, 1, entry.ID)
	require.NoError(t, err)
	_, err = svc.Unpost(ctx, 9, 1, entry.ID)
	require.ErrorIs(t, err, ErrNotPosted)

	require.NoError(t, svc.Delete(ctx, 9, 1, entry.ID))
	_, err = svc.Get(ctx, 1, entry.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostBlockedByClosedPeriod(t *testing.T) {
	svc, _, _, guard, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.CreateManual(ctx, 7, balancedInput(500, 500))
	require.NoError(t, err)

	closedFrom := day(2025, time.July, 1)
	guard.closedFrom = &closedFrom
	_, err = svc.Post(ctx, 9, 1, entry.ID)
	require.Error(t, err)

	guard.closedFrom = nil
	posted, err := svc.Post(ctx, 9, 1, entry.ID)
	require.NoError(t, err)
	require.True(t, posted.Posted)
}
