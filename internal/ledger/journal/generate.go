package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
)

// AccountResolver looks up ledger accounts by code for line generation.
type AccountResolver interface {
	GetByCode(ctx context.Context, quarryID int64, code string) (accounts.Account, error)
}

// SourceReader loads the operational records auto entries derive from.
type SourceReader interface {
	GetQuarry(ctx context.Context, id int64) (operations.Quarry, error)
	GetSale(ctx context.Context, id int64) (operations.Sale, error)
	GetExpense(ctx context.Context, id int64) (operations.Expense, error)
	GetBankingDeposit(ctx context.Context, id int64) (operations.BankingDeposit, error)
	GetFuelUsage(ctx context.Context, id int64) (operations.FuelUsage, error)
	ListSalesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.Sale, error)
	ListExpensesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.Expense, error)
	ListBankingInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.BankingDeposit, error)
	ListFuelUsageInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.FuelUsage, error)
}

// GenerateFromSource derives and persists one unposted AUTO entry for the
// given operational record. Every source kind maps to a fixed line layout,
// so generated entries are balanced by construction. A costless fuel draw
// produces no entry and returns ErrNoAccountMapping wrapped with detail.
func (s *Service) GenerateFromSource(ctx context.Context, actorID int64, ref SourceRef) (Entry, error) {
	if ref.None() {
		return Entry{}, ErrUnknownSource
	}
	draft, err := s.buildDraft(ctx, ref)
	if err != nil {
		return Entry{}, err
	}
	if s.guard != nil {
		if err := s.guard.EnsureOpenForDate(ctx, draft.QuarryID, draft.Date); err != nil {
			return Entry{}, err
		}
	}
	draft.CreatedBy = actorID
	var entry Entry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.FindBySource(ctx, draft.QuarryID, ref); err == nil {
			return ErrSourceAlreadyLinked
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, draft)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, draft.Lines); err != nil {
			return err
		}
		inserted.Lines = draft.Lines
		entry = inserted
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordAudit(ctx, actorID, entry, "journal.generate")
	return entry, nil
}

// Regenerate deletes all unposted AUTO entries in the range, then rebuilds
// entries for every operational record in the range. Sources whose entry was
// posted keep the posted entry and are skipped, so the operation converges
// on repeated runs. Returns deleted and created counts.
func (s *Service) Regenerate(ctx context.Context, actorID, quarryID int64, from, to time.Time) (int64, int, error) {
	refs, err := s.collectSources(ctx, quarryID, from, to)
	if err != nil {
		return 0, 0, err
	}
	var deleted int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		deleted, err = tx.DeleteUnpostedAutoInRange(ctx, quarryID, from, to)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	created := 0
	for _, ref := range refs {
		_, err := s.GenerateFromSource(ctx, actorID, ref)
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrSourceAlreadyLinked):
			// posted entry survived the sweep, keep it
		case errors.Is(err, ErrNoAccountMapping):
			// costless fuel draw, nothing to book
		default:
			return deleted, created, err
		}
	}
	return deleted, created, nil
}

func (s *Service) buildDraft(ctx context.Context, ref SourceRef) (Entry, error) {
	switch ref.Kind {
	case SourceSale:
		sale, err := s.sources.GetSale(ctx, ref.ID)
		if err != nil {
			return Entry{}, err
		}
		quarry, err := s.sources.GetQuarry(ctx, sale.QuarryID)
		if err != nil {
			return Entry{}, err
		}
		return s.saleDraft(ctx, quarry, sale, ref)
	case SourceExpense:
		expense, err := s.sources.GetExpense(ctx, ref.ID)
		if err != nil {
			return Entry{}, err
		}
		return s.expenseDraft(ctx, expense, ref)
	case SourceBanking:
		deposit, err := s.sources.GetBankingDeposit(ctx, ref.ID)
		if err != nil {
			return Entry{}, err
		}
		return s.bankingDraft(ctx, deposit, ref)
	case SourceFuelUsage:
		usage, err := s.sources.GetFuelUsage(ctx, ref.ID)
		if err != nil {
			return Entry{}, err
		}
		return s.fuelDraft(ctx, usage, ref)
	default:
		return Entry{}, ErrUnknownSource
	}
}

// saleDraft books the gross sale plus the commission, land rate, and loaders
// accruals the sale triggers, all in one balanced entry.
func (s *Service) saleDraft(ctx context.Context, quarry operations.Quarry, sale operations.Sale, ref SourceRef) (Entry, error) {
	builder := newLineBuilder(s.accounts, sale.QuarryID)
	gross := sale.GrossAmount()

	debitCode := accounts.CodeReceivable
	if sale.Paid {
		debitCode = accounts.CodeCash
	}
	builder.debit(ctx, debitCode, gross, "sale "+sale.Reference)
	builder.credit(ctx, accounts.CodeSalesRevenue, gross, "sale "+sale.Reference)

	if sale.CommissionAmount > 0 {
		builder.debit(ctx, accounts.CodeCommissionExpense, sale.CommissionAmount, "broker commission "+sale.BrokerName)
		builder.credit(ctx, accounts.CodeBrokerPayable, sale.CommissionAmount, "broker commission "+sale.BrokerName)
	}
	if loaders := sale.Quantity * quarry.LoadersFeePerUnit; loaders > 0 {
		builder.debit(ctx, accounts.CodeLoadersFeeCost, loaders, "loaders fee")
		builder.credit(ctx, accounts.CodeAccruedLoadersFee, loaders, "loaders fee")
	}
	if sale.LandRateApplies {
		if landRate := sale.Quantity * quarry.LandRatePerUnit; landRate > 0 {
			builder.debit(ctx, accounts.CodeLandRateExpense, landRate, "land rate")
			builder.credit(ctx, accounts.CodeAccruedLandRate, landRate, "land rate")
		}
	}
	lines, err := builder.build()
	if err != nil {
		return Entry{}, err
	}
	return autoEntry(sale.QuarryID, sale.Date, fmt.Sprintf("Sale %s (%s)", sale.Reference, sale.VehicleReg), ref, lines), nil
}

func (s *Service) expenseDraft(ctx context.Context, expense operations.Expense, ref SourceRef) (Entry, error) {
	code, ok := accounts.CodeForExpenseCategory(expense.Category)
	if !ok {
		return Entry{}, fmt.Errorf("%w: expense category %q", ErrNoAccountMapping, expense.Category)
	}
	builder := newLineBuilder(s.accounts, expense.QuarryID)
	builder.debit(ctx, code, expense.Amount, expense.Description)
	builder.credit(ctx, accounts.CodeCash, expense.Amount, expense.Description)
	lines, err := builder.build()
	if err != nil {
		return Entry{}, err
	}
	return autoEntry(expense.QuarryID, expense.Date, "Expense "+expense.Category, ref, lines), nil
}

func (s *Service) bankingDraft(ctx context.Context, deposit operations.BankingDeposit, ref SourceRef) (Entry, error) {
	builder := newLineBuilder(s.accounts, deposit.QuarryID)
	builder.debit(ctx, accounts.CodeBank, deposit.Amount, "deposit "+deposit.Reference)
	builder.credit(ctx, accounts.CodeCash, deposit.Amount, "deposit "+deposit.Reference)
	lines, err := builder.build()
	if err != nil {
		return Entry{}, err
	}
	return autoEntry(deposit.QuarryID, deposit.Date, "Banking deposit "+deposit.Reference, ref, lines), nil
}

func (s *Service) fuelDraft(ctx context.Context, usage operations.FuelUsage, ref SourceRef) (Entry, error) {
	if usage.Cost == nil || *usage.Cost <= 0 {
		return Entry{}, fmt.Errorf("%w: fuel usage %d has no cost", ErrNoAccountMapping, usage.ID)
	}
	builder := newLineBuilder(s.accounts, usage.QuarryID)
	builder.debit(ctx, accounts.CodeFuelCost, *usage.Cost, fmt.Sprintf("fuel %.1f litres", usage.Litres))
	builder.credit(ctx, accounts.CodeFuelInventory, *usage.Cost, fmt.Sprintf("fuel %.1f litres", usage.Litres))
	lines, err := builder.build()
	if err != nil {
		return Entry{}, err
	}
	return autoEntry(usage.QuarryID, usage.Date, "Fuel usage", ref, lines), nil
}

func (s *Service) collectSources(ctx context.Context, quarryID int64, from, to time.Time) ([]SourceRef, error) {
	var refs []SourceRef
	sales, err := s.sources.ListSalesInRange(ctx, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	for _, sale := range sales {
		refs = append(refs, SourceRef{Kind: SourceSale, ID: sale.ID})
	}
	expenses, err := s.sources.ListExpensesInRange(ctx, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	for _, expense := range expenses {
		refs = append(refs, SourceRef{Kind: SourceExpense, ID: expense.ID})
	}
	deposits, err := s.sources.ListBankingInRange(ctx, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	for _, deposit := range deposits {
		refs = append(refs, SourceRef{Kind: SourceBanking, ID: deposit.ID})
	}
	usages, err := s.sources.ListFuelUsageInRange(ctx, quarryID, from, to)
	if err != nil {
		return nil, err
	}
	for _, usage := range usages {
		refs = append(refs, SourceRef{Kind: SourceFuelUsage, ID: usage.ID})
	}
	return refs, nil
}

func autoEntry(quarryID int64, date time.Time, description string, ref SourceRef, lines []Line) Entry {
	return Entry{
		QuarryID:    quarryID,
		Date:        date,
		Description: description,
		Kind:        KindAuto,
		Source:      ref,
		FiscalYear:  date.Year(),
		PeriodNo:    int(date.Month()),
		Lines:       lines,
	}
}

// lineBuilder accumulates generated lines, deferring account lookup errors
// so mapping code stays linear.
type lineBuilder struct {
	accounts AccountResolver
	quarryID int64
	lines    []Line
	err      error
}

func newLineBuilder(resolver AccountResolver, quarryID int64) *lineBuilder {
	return &lineBuilder{accounts: resolver, quarryID: quarryID}
}

func (b *lineBuilder) debit(ctx context.Context, code string, amount float64, memo string) {
	b.add(ctx, code, amount, 0, memo)
}

func (b *lineBuilder) credit(ctx context.Context, code string, amount float64, memo string) {
	b.add(ctx, code, 0, amount, memo)
}

func (b *lineBuilder) add(ctx context.Context, code string, debit, credit float64, memo string) {
	if b.err != nil {
		return
	}
	account, err := b.accounts.GetByCode(ctx, b.quarryID, code)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			b.err = fmt.Errorf("%w: account code %s", ErrNoAccountMapping, code)
			return
		}
		b.err = err
		return
	}
	b.lines = append(b.lines, Line{
		AccountID: account.ID,
		LineNo:    len(b.lines) + 1,
		Debit:     debit,
		Credit:    credit,
		Memo:      memo,
	})
}

func (b *lineBuilder) build() ([]Line, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.lines) < 2 {
		return nil, ErrTooFewLines
	}
	return b.lines, nil
}
