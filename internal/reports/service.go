package reports

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
)

// RepositoryPort loads posted-line aggregates.
type RepositoryPort interface {
	BalancesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]AccountBalance, error)
	BalancesAsOf(ctx context.Context, quarryID int64, asOf time.Time) ([]AccountBalance, error)
}

// OperationsPort reads the sales rows the AR and AP reports need.
type OperationsPort interface {
	GetQuarry(ctx context.Context, id int64) (operations.Quarry, error)
	ListSalesInRange(ctx context.Context, quarryID int64, from, to time.Time) ([]operations.Sale, error)
	ListUnpaidSalesAsOf(ctx context.Context, quarryID int64, asOf time.Time) ([]operations.Sale, error)
}

// DailyChainPort looks up the most recent daily closing balance, the
// preferred opening figure for the cash flow statement.
type DailyChainPort interface {
	ClosingOnOrBefore(ctx context.Context, quarryID int64, date time.Time) (float64, bool, error)
}

// Service loads report inputs and delegates to the pure builders.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	ops    OperationsPort
	chain  DailyChainPort
}

// NewService constructs the report service. chain may be nil; the cash flow
// then opens from the trial balance.
func NewService(logger *slog.Logger, repo RepositoryPort, ops OperationsPort, chain DailyChainPort) *Service {
	return &Service{logger: logger, repo: repo, ops: ops, chain: chain}
}

// TrialBalance builds the trial balance over posted lines in the range.
func (s *Service) TrialBalance(ctx context.Context, quarryID int64, from, to time.Time) (TrialBalance, error) {
	balances, err := s.repo.BalancesInRange(ctx, quarryID, from, to)
	if err != nil {
		return TrialBalance{}, err
	}
	tb, err := buildTrialBalance(quarryID, from, to, balances)
	if err != nil {
		s.logInconsistent(err, quarryID)
		return TrialBalance{}, err
	}
	return tb, nil
}

// ProfitLoss builds the income statement, optionally with a comparative
// column for a second range of the same shape.
func (s *Service) ProfitLoss(ctx context.Context, quarryID int64, from, to time.Time, compareFrom, compareTo *time.Time) (ProfitLoss, error) {
	balances, err := s.repo.BalancesInRange(ctx, quarryID, from, to)
	if err != nil {
		return ProfitLoss{}, err
	}
	var comparative []AccountBalance
	if compareFrom != nil && compareTo != nil {
		comparative, err = s.repo.BalancesInRange(ctx, quarryID, *compareFrom, *compareTo)
		if err != nil {
			return ProfitLoss{}, err
		}
	}
	return buildProfitLoss(quarryID, from, to, balances, comparative), nil
}

// BalanceSheet builds the statement of financial position as of a date.
func (s *Service) BalanceSheet(ctx context.Context, quarryID int64, asOf time.Time) (BalanceSheet, error) {
	balances, err := s.repo.BalancesAsOf(ctx, quarryID, asOf)
	if err != nil {
		return BalanceSheet{}, err
	}
	bs, err := buildBalanceSheet(quarryID, asOf, balances)
	if err != nil {
		s.logInconsistent(err, quarryID)
		return BalanceSheet{}, err
	}
	return bs, nil
}

// CashFlow builds the cash movement statement for the range. Opening cash
// comes from the daily chain when available, otherwise from the ledger.
func (s *Service) CashFlow(ctx context.Context, quarryID int64, from, to time.Time) (CashFlow, error) {
	dayBefore := from.AddDate(0, 0, -1)
	opening, found := 0.0, false
	if s.chain != nil {
		var err error
		opening, found, err = s.chain.ClosingOnOrBefore(ctx, quarryID, dayBefore)
		if err != nil {
			return CashFlow{}, err
		}
	}
	if !found {
		prior, err := s.repo.BalancesAsOf(ctx, quarryID, dayBefore)
		if err != nil {
			return CashFlow{}, err
		}
		for _, b := range prior {
			if isCashAccount(b.Code) {
				opening += b.Debit - b.Credit
			}
		}
	}
	rangeBalances, err := s.repo.BalancesInRange(ctx, quarryID, from, to)
	if err != nil {
		return CashFlow{}, err
	}
	closingBalances, err := s.repo.BalancesAsOf(ctx, quarryID, to)
	if err != nil {
		return CashFlow{}, err
	}
	cf, err := buildCashFlow(quarryID, from, to, opening, rangeBalances, closingBalances)
	if err != nil {
		s.logInconsistent(err, quarryID)
		return CashFlow{}, err
	}
	return cf, nil
}

// ReceivablesAging builds the AR aging report as of a date.
func (s *Service) ReceivablesAging(ctx context.Context, quarryID int64, asOf time.Time) (ReceivablesAging, error) {
	sales, err := s.ops.ListUnpaidSalesAsOf(ctx, quarryID, asOf)
	if err != nil {
		return ReceivablesAging{}, err
	}
	report, err := buildReceivablesAging(quarryID, asOf, sales)
	if err != nil {
		s.logInconsistent(err, quarryID)
		return ReceivablesAging{}, err
	}
	return report, nil
}

// PayablesSummary builds the AP summary for the range.
func (s *Service) PayablesSummary(ctx context.Context, quarryID int64, from, to time.Time) (PayablesSummary, error) {
	quarry, err := s.ops.GetQuarry(ctx, quarryID)
	if err != nil {
		return PayablesSummary{}, err
	}
	sales, err := s.ops.ListSalesInRange(ctx, quarryID, from, to)
	if err != nil {
		return PayablesSummary{}, err
	}
	return buildPayablesSummary(quarryID, from, to, quarry, sales), nil
}

func (s *Service) logInconsistent(err error, quarryID int64) {
	if s.logger != nil && errors.Is(err, ErrReportInconsistent) {
		s.logger.Error("report failed integrity check", slog.Int64("quarry_id", quarryID), slog.Any("error", err))
	}
}
