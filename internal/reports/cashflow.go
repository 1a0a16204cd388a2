package reports

import (
	"fmt"
	"math"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
)

// isCashAccount marks the accounts whose movement the statement explains.
func isCashAccount(code string) bool {
	return code == accounts.CodeCash || code == accounts.CodeBank
}

// buildCashFlow derives cash movement from the ledger identity: every posted
// entry balances, so the cash change over a range equals the negated
// debit-side change of every non-cash account. Each account's contribution
// lands in one section by classification. The result must reconcile against
// the ledger's closing cash.
func buildCashFlow(quarryID int64, from, to time.Time, openingCash float64, rangeBalances, closingBalances []AccountBalance) (CashFlow, error) {
	cf := CashFlow{QuarryID: quarryID, From: from, To: to, OpeningCash: openingCash}
	for _, b := range rangeBalances {
		if isCashAccount(b.Code) {
			continue
		}
		impact := -(b.Debit - b.Credit)
		if math.Abs(impact) < tolerance {
			continue
		}
		line := ReportLine{Code: b.Code, Label: b.Name, Amount: impact}
		switch {
		case b.Category == accounts.CategoryRevenue,
			b.Category == accounts.CategoryCostOfSales,
			b.Category == accounts.CategoryExpense:
			cf.Operating = append(cf.Operating, line)
		case b.Type == accounts.TypeFixedAsset, b.Type == accounts.TypeLongTermLiability:
			cf.Investing = append(cf.Investing, line)
		case b.Category == accounts.CategoryEquity:
			cf.Financing = append(cf.Financing, line)
		default:
			// working capital: receivables, inventory, accruals
			cf.Operating = append(cf.Operating, line)
		}
		cf.NetChange += impact
	}
	cf.ClosingCash = cf.OpeningCash + cf.NetChange

	var ledgerCash float64
	for _, b := range closingBalances {
		if isCashAccount(b.Code) {
			ledgerCash += b.Debit - b.Credit
		}
	}
	if math.Abs(cf.ClosingCash-ledgerCash) >= tolerance {
		return CashFlow{}, fmt.Errorf("%w: cash flow closing %.2f vs ledger cash %.2f",
			ErrReportInconsistent, cf.ClosingCash, ledgerCash)
	}
	return cf, nil
}
