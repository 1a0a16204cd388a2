package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mzeesam/QDeskPro-sub003/internal/ledger/accounts"
	"github.com/mzeesam/QDeskPro-sub003/internal/operations"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func balance(id int64, code, name string, category accounts.Category, typ accounts.Type, normal accounts.NormalBalance, debit, credit float64) AccountBalance {
	return AccountBalance{AccountID: id, Code: code, Name: name, Category: category, Type: typ, NormalBalance: normal, Debit: debit, Credit: credit}
}

// postedDay mimics one fully booked trading day: a 1000 cash sale with 100
// commission accrued, a 70 admin expense, and a 200 bank deposit.
func postedDay() []AccountBalance {
	return []AccountBalance{
		balance(1, accounts.CodeCash, "Cash", accounts.CategoryAsset, accounts.TypeCurrentAsset, accounts.NormalDebit, 1000, 270),
		balance(2, accounts.CodeBank, "Bank", accounts.CategoryAsset, accounts.TypeCurrentAsset, accounts.NormalDebit, 200, 0),
		balance(3, accounts.CodeSalesRevenue, "Sales Revenue", accounts.CategoryRevenue, accounts.TypeOperatingRevenue, accounts.NormalCredit, 0, 1000),
		balance(4, accounts.CodeCommissionExpense, "Commission", accounts.CategoryExpense, accounts.TypeOperatingExpense, accounts.NormalDebit, 100, 0),
		balance(5, accounts.CodeBrokerPayable, "Broker Payable", accounts.CategoryLiability, accounts.TypeCurrentLiability, accounts.NormalCredit, 0, 100),
		balance(6, accounts.CodeAdmin, "Administration", accounts.CategoryExpense, accounts.TypeOperatingExpense, accounts.NormalDebit, 70, 0),
	}
}

func TestTrialBalanceNetsOnNormalSide(t *testing.T) {
	tb, err := buildTrialBalance(1, day(2025, time.July, 1), day(2025, time.July, 31), postedDay())
	require.NoError(t, err)
	require.InDelta(t, tb.TotalDebit, tb.TotalCredit, tolerance)

	for _, row := range tb.Rows {
		require.False(t, row.Debit > 0 && row.Credit > 0, "row %s on both columns", row.Code)
		switch row.Code {
		case accounts.CodeCash:
			require.InDelta(t, 730, row.Debit, 0.001)
		case accounts.CodeSalesRevenue:
			require.InDelta(t, 1000, row.Credit, 0.001)
		}
	}
}

func TestTrialBalanceFlipsNegativeNet(t *testing.T) {
	// Cash overdrawn: more credits than debits on a debit-normal account.
	balances := []AccountBalance{
		balance(1, accounts.CodeCash, "Cash", accounts.CategoryAsset, accounts.TypeCurrentAsset, accounts.NormalDebit, 100, 400),
		balance(2, accounts.CodeOwnerEquity, "Owner Equity", accounts.CategoryEquity, accounts.TypeEquity, accounts.NormalCredit, 300, 0),
	}
	tb, err := buildTrialBalance(1, day(2025, time.July, 1), day(2025, time.July, 31), balances)
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)
	require.InDelta(t, 300, tb.Rows[0].Credit, 0.001)
	require.Zero(t, tb.Rows[0].Debit)
	require.InDelta(t, 300, tb.Rows[1].Debit, 0.001)
}

func TestTrialBalanceDetectsCorruption(t *testing.T) {
	balances := []AccountBalance{
		balance(1, accounts.CodeCash, "Cash", accounts.CategoryAsset, accounts.TypeCurrentAsset, accounts.NormalDebit, 500, 0),
	}
	_, err := buildTrialBalance(1, day(2025, time.July, 1), day(2025, time.July, 31), balances)
	require.ErrorIs(t, err, ErrReportInconsistent)
}

func TestProfitLossMargins(t *testing.T) {
	balances := []AccountBalance{
		balance(1, accounts.CodeSalesRevenue, "Sales Revenue", accounts.CategoryRevenue, accounts.TypeOperatingRevenue, accounts.NormalCredit, 0, 2000),
		balance(2, accounts.CodeFuelCost, "Fuel Cost", accounts.CategoryCostOfSales, accounts.TypeDirectCost, accounts.NormalDebit, 500, 0),
		balance(3, accounts.CodeAdmin, "Administration", accounts.CategoryExpense, accounts.TypeOperatingExpense, accounts.NormalDebit, 300, 0),
	}
	pl := buildProfitLoss(1, day(2025, time.July, 1), day(2025, time.July, 31), balances, nil)
	require.InDelta(t, 2000, pl.TotalRevenue, 0.001)
	require.InDelta(t, 1500, pl.GrossProfit, 0.001)
	require.InDelta(t, 1200, pl.OperatingProfit, 0.001)
	require.InDelta(t, 75, pl.GrossMargin, 0.001)
	require.InDelta(t, 60, pl.OperatingMargin, 0.001)
}

func TestProfitLossZeroRevenueGuard(t *testing.T) {
	balances := []AccountBalance{
		balance(1, accounts.CodeAdmin, "Administration", accounts.CategoryExpense, accounts.TypeOperatingExpense, accounts.NormalDebit, 300, 0),
	}
	pl := buildProfitLoss(1, day(2025, time.July, 1), day(2025, time.July, 31), balances, nil)
	require.InDelta(t, -300, pl.OperatingProfit, 0.001)
	require.Zero(t, pl.GrossMargin)
	require.Zero(t, pl.OperatingMargin)
}

func TestProfitLossComparativeColumn(t *testing.T) {
	current := []AccountBalance{
		balance(1, accounts.CodeSalesRevenue, "Sales Revenue", accounts.CategoryRevenue, accounts.TypeOperatingRevenue, accounts.NormalCredit, 0, 2000),
	}
	prior := []AccountBalance{
		balance(1, accounts.CodeSalesRevenue, "Sales Revenue", accounts.CategoryRevenue, accounts.TypeOperatingRevenue, accounts.NormalCredit, 0, 1500),
	}
	pl := buildProfitLoss(1, day(2025, time.July, 1), day(2025, time.July, 31), current, prior)
	require.Len(t, pl.Revenue, 1)
	require.NotNil(t, pl.Revenue[0].Comparative)
	require.InDelta(t, 1500, *pl.Revenue[0].Comparative, 0.001)
}

func TestBalanceSheetEquation(t *testing.T) {
	bs, err := buildBalanceSheet(1, day(2025, time.July, 31), postedDay())
	require.NoError(t, err)
	require.InDelta(t, 930, bs.TotalAssets, 0.001)
	require.InDelta(t, 100, bs.TotalLiabilities, 0.001)
	// no equity accounts: everything sits on the earnings line
	require.InDelta(t, 830, bs.TotalEquity, 0.001)
	last := bs.Equity[len(bs.Equity)-1]
	require.Equal(t, currentPeriodEarningsLabel, last.Label)
	require.InDelta(t, 830, last.Amount, 0.001)
}

func TestBalanceSheetDetectsCorruption(t *testing.T) {
	balances := []AccountBalance{
		balance(1, accounts.CodeCash, "Cash", accounts.CategoryAsset, accounts.TypeCurrentAsset, accounts.NormalDebit, 700, 0),
		balance(2, accounts.CodeBrokerPayable, "Broker Payable", accounts.CategoryLiability, accounts.TypeCurrentLiability, accounts.NormalCredit, 0, 100),
	}
	_, err := buildBalanceSheet(1, day(2025, time.July, 31), balances)
	require.ErrorIs(t, err, ErrReportInconsistent)
}

func TestCashFlowReconciles(t *testing.T) {
	balances := postedDay()
	cf, err := buildCashFlow(1, day(2025, time.July, 1), day(2025, time.July, 31), 0, balances, balances)
	require.NoError(t, err)
	// cash 730 plus bank 200
	require.InDelta(t, 930, cf.ClosingCash, 0.001)
	require.InDelta(t, 930, cf.NetChange, 0.001)
	require.NotEmpty(t, cf.Operating)
	require.Empty(t, cf.Investing)
}

func TestCashFlowCrossCheckFails(t *testing.T) {
	balances := postedDay()
	// opening shifted away from what the ledger supports
	_, err := buildCashFlow(1, day(2025, time.July, 1), day(2025, time.July, 31), 250, balances, balances)
	require.ErrorIs(t, err, ErrReportInconsistent)
}

func TestAgingBucketBoundaries(t *testing.T) {
	require.Equal(t, BucketCurrent, bucketFor(0))
	require.Equal(t, Bucket1To30, bucketFor(1))
	require.Equal(t, Bucket1To30, bucketFor(30))
	require.Equal(t, Bucket31To60, bucketFor(31))
	require.Equal(t, Bucket61To90, bucketFor(90))
	require.Equal(t, BucketOver90, bucketFor(91))
}

func TestReceivablesAgingGroupsByVehicle(t *testing.T) {
	asOf := day(2025, time.July, 31)
	sales := []operations.Sale{
		{ID: 1, VehicleReg: "KBX 112A", Date: day(2025, time.July, 31), Quantity: 10, UnitPrice: 50},
		{ID: 2, VehicleReg: "KBX 112A", Date: day(2025, time.June, 30), Quantity: 4, UnitPrice: 50, PaidAmount: 80},
		{ID: 3, VehicleReg: "KCD 334B", Date: day(2025, time.April, 1), Quantity: 2, UnitPrice: 100},
	}
	report, err := buildReceivablesAging(1, asOf, sales)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	require.InDelta(t, 820, report.Total, 0.001)
	require.InDelta(t, 500, report.Buckets[BucketCurrent], 0.001)
	require.InDelta(t, 120, report.Buckets[Bucket31To60], 0.001)
	require.InDelta(t, 200, report.Buckets[BucketOver90], 0.001)

	first := report.Rows[0]
	require.Equal(t, "KBX 112A", first.VehicleReg)
	require.InDelta(t, 620, first.Total, 0.001)
}

func TestReceivablesAgingSkipsSettledSales(t *testing.T) {
	sales := []operations.Sale{
		{ID: 1, VehicleReg: "KBX 112A", Date: day(2025, time.July, 10), Quantity: 10, UnitPrice: 50, PaidAmount: 500},
	}
	report, err := buildReceivablesAging(1, day(2025, time.July, 31), sales)
	require.NoError(t, err)
	require.Empty(t, report.Rows)
	require.Zero(t, report.Total)
}

func TestPayablesSummaryAccruesFees(t *testing.T) {
	quarry := operations.Quarry{ID: 1, LoadersFeePerUnit: 10, LandRatePerUnit: 5}
	sales := []operations.Sale{
		{ID: 1, BrokerName: "Mutua", CommissionAmount: 100, Quantity: 20, LandRateApplies: true},
		{ID: 2, BrokerName: "Mutua", CommissionAmount: 50, Quantity: 10},
		{ID: 3, BrokerName: "Okoth", CommissionAmount: 80, Quantity: 5, LandRateApplies: true},
		{ID: 4, Quantity: 8},
	}
	summary := buildPayablesSummary(1, day(2025, time.July, 1), day(2025, time.July, 31), quarry, sales)
	require.Len(t, summary.Brokers, 2)
	require.Equal(t, "Mutua", summary.Brokers[0].BrokerName)
	require.Equal(t, 2, summary.Brokers[0].SaleCount)
	require.InDelta(t, 150, summary.Brokers[0].Commission, 0.001)
	require.InDelta(t, 230, summary.TotalCommission, 0.001)
	require.InDelta(t, 430, summary.AccruedLoadersFee, 0.001)
	require.InDelta(t, 125, summary.AccruedLandRate, 0.001)
	require.InDelta(t, 785, summary.TotalPayable, 0.001)
}
