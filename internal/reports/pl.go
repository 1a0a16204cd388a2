package reports

import (
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
)

// buildProfitLoss partitions balances into the income statement sections and
// derives profits and margins. comparative may be nil.
func buildProfitLoss(quarryID int64, from, to time.Time, balances, comparative []AccountBalance) ProfitLoss {
	pl := ProfitLoss{QuarryID: quarryID, From: from, To: to}
	prior := make(map[int64]float64, len(comparative))
	for _, b := range comparative {
		prior[b.AccountID] = b.Net()
	}
	for _, b := range balances {
		net := b.Net()
		if net == 0 {
			if _, ok := prior[b.AccountID]; !ok {
				continue
			}
		}
		line := ReportLine{Code: b.Code, Label: b.Name, Amount: net}
		if comparative != nil {
			value := prior[b.AccountID]
			line.Comparative = &value
		}
		switch b.Category {
		case accounts.CategoryRevenue:
			pl.Revenue = append(pl.Revenue, line)
			pl.TotalRevenue += net
		case accounts.CategoryCostOfSales:
			pl.CostOfSales = append(pl.CostOfSales, line)
			pl.TotalCost += net
		case accounts.CategoryExpense:
			pl.Expenses = append(pl.Expenses, line)
			pl.TotalExpenses += net
		}
	}
	pl.GrossProfit = pl.TotalRevenue - pl.TotalCost
	pl.OperatingProfit = pl.GrossProfit - pl.TotalExpenses
	if pl.TotalRevenue != 0 {
		pl.GrossMargin = pl.GrossProfit / pl.TotalRevenue * 100
		pl.OperatingMargin = pl.OperatingProfit / pl.TotalRevenue * 100
	}
	return pl
}

// profitForRange reduces a balance set to its operating profit. Used by the
// balance sheet's earnings line.
func profitForRange(balances []AccountBalance) float64 {
	var revenue, cost, expenses float64
	for _, b := range balances {
		switch b.Category {
		case accounts.CategoryRevenue:
			revenue += b.Net()
		case accounts.CategoryCostOfSales:
			cost += b.Net()
		case accounts.CategoryExpense:
			expenses += b.Net()
		}
	}
	return revenue - cost - expenses
}
