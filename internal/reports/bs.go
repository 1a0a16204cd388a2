package reports

import (
	"fmt"
	"math"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
)

// currentPeriodEarningsLabel names the synthetic equity line carrying the
// profit accumulated since inception, which has no account of its own.
const currentPeriodEarningsLabel = "Current Period Earnings"

// buildBalanceSheet splits as-of balances into the statement of financial
// position and verifies the accounting equation.
func buildBalanceSheet(quarryID int64, asOf time.Time, balances []AccountBalance) (BalanceSheet, error) {
	bs := BalanceSheet{QuarryID: quarryID, AsOf: asOf}
	for _, b := range balances {
		net := b.Net()
		if math.Abs(net) < tolerance {
			continue
		}
		line := ReportLine{Code: b.Code, Label: b.Name, Amount: net}
		switch b.Category {
		case accounts.CategoryAsset:
			if b.Type == accounts.TypeFixedAsset {
				bs.NonCurrentAssets = append(bs.NonCurrentAssets, line)
			} else {
				bs.CurrentAssets = append(bs.CurrentAssets, line)
			}
			bs.TotalAssets += net
		case accounts.CategoryLiability:
			if b.Type == accounts.TypeLongTermLiability {
				bs.NonCurrentLiabilities = append(bs.NonCurrentLiabilities, line)
			} else {
				bs.CurrentLiabilities = append(bs.CurrentLiabilities, line)
			}
			bs.TotalLiabilities += net
		case accounts.CategoryEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity += net
		}
	}
	earnings := profitForRange(balances)
	bs.Equity = append(bs.Equity, ReportLine{Label: currentPeriodEarningsLabel, Amount: earnings})
	bs.TotalEquity += earnings

	if math.Abs(bs.TotalAssets-(bs.TotalLiabilities+bs.TotalEquity)) >= tolerance {
		return BalanceSheet{}, fmt.Errorf("%w: assets %.2f vs liabilities+equity %.2f",
			ErrReportInconsistent, bs.TotalAssets, bs.TotalLiabilities+bs.TotalEquity)
	}
	return bs, nil
}
