package reports

import (
	"sort"
	"time"

	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
)

// buildPayablesSummary groups unpaid broker commissions and accrues the
// quantity-driven loaders and land-rate fees for the range.
func buildPayablesSummary(quarryID int64, from, to time.Time, quarry operations.Quarry, sales []operations.Sale) PayablesSummary {
	summary := PayablesSummary{QuarryID: quarryID, From: from, To: to}
	byBroker := make(map[string]*BrokerPayableRow)
	for _, sale := range sales {
		if sale.CommissionAmount > 0 && sale.BrokerName != "" {
			row, ok := byBroker[sale.BrokerName]
			if !ok {
				row = &BrokerPayableRow{BrokerName: sale.BrokerName}
				byBroker[sale.BrokerName] = row
			}
			row.SaleCount++
			row.Commission += sale.CommissionAmount
			summary.TotalCommission += sale.CommissionAmount
		}
		summary.AccruedLoadersFee += sale.Quantity * quarry.LoadersFeePerUnit
		if sale.LandRateApplies {
			summary.AccruedLandRate += sale.Quantity * quarry.LandRatePerUnit
		}
	}
	for _, row := range byBroker {
		summary.Brokers = append(summary.Brokers, *row)
	}
	sort.Slice(summary.Brokers, func(i, j int) bool { return summary.Brokers[i].BrokerName < summary.Brokers[j].BrokerName })
	summary.TotalPayable = summary.TotalCommission + summary.AccruedLoadersFee + summary.AccruedLandRate
	return summary
}
