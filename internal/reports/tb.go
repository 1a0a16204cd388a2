package reports

import (
	"fmt"
	"math"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
)

// buildTrialBalance lists each account's net on its normal-balance column.
// A negative net flips to the opposite column so the listing never shows a
// negative amount.
func buildTrialBalance(quarryID int64, from, to time.Time, balances []AccountBalance) (TrialBalance, error) {
	tb := TrialBalance{QuarryID: quarryID, From: from, To: to}
	for _, b := range balances {
		net := b.Net()
		if math.Abs(net) < tolerance {
			continue
		}
		row := TrialBalanceRow{AccountID: b.AccountID, Code: b.Code, Name: b.Name}
		side := b.NormalBalance
		if net < 0 {
			net = -net
			if side == accounts.NormalDebit {
				side = accounts.NormalCredit
			} else {
				side = accounts.NormalDebit
			}
		}
		if side == accounts.NormalDebit {
			row.Debit = net
		} else {
			row.Credit = net
		}
		tb.TotalDebit += row.Debit
		tb.TotalCredit += row.Credit
		tb.Rows = append(tb.Rows, row)
	}
	if math.Abs(tb.TotalDebit-tb.TotalCredit) >= tolerance {
		return TrialBalance{}, fmt.Errorf("%w: trial balance debit %.2f credit %.2f", ErrReportInconsistent, tb.TotalDebit, tb.TotalCredit)
	}
	return tb, nil
}
